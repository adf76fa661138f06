package world

import (
	"math"
	"math/rand"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/vec"
)

// Пороговые плотности вокруг игрока
const (
	ObjectRadius = 1500.0
	MinObjects   = 40
	ObjectBatch  = 12
	ObjectMinDst = 500.0
	ObjectMaxDst = 1400.0

	MinAI     = 6
	AIBatch   = 3
	AIMinDst  = 300.0
	AIMaxDst  = 900.0
	AIMaxKick = 1.0

	ActivityRadius = 2000.0
	MinActivities  = 4
	ActivityBatch  = 2
	ActivityMinDst = 400.0
	ActivityMaxDst = 1800.0

	EventChance      = 0.003
	EventMinDst      = 300.0
	EventMaxDst      = 900.0
	EventSpawnChance = 0.05
	EventDebrisKick  = 0.5

	SharedMinDst = 200.0
)

// Manager наполняет мир вокруг игрока: тела, ИИ, события и активности.
// Все проверки плотности считаются по радиусу от игрока, а не по всему миру.
type Manager struct {
	rng     *rand.Rand
	density *DensityField
	logger  *logging.Logger
}

// NewManager создаёт менеджер мира. rng разделяется с сессией,
// чтобы симуляция с одинаковым сидом была воспроизводимой.
func NewManager(rng *rand.Rand, seed int64) *Manager {
	return &Manager{
		rng:     rng,
		density: NewDensityField(seed),
		logger:  logging.GetGameLogger(),
	}
}

// EnsureObjects досоздаёт пачку объектов, если рядом с игроком их меньше MinObjects
func (m *Manager) EnsureObjects(player *entity.Body, bodies []*entity.Body) []*entity.Body {
	center := player.Pos()
	count := 0
	for _, b := range bodies {
		if b.IsPlayer() || b.IsAI() {
			continue
		}
		if center.DistanceTo(b.Pos()) <= ObjectRadius {
			count++
		}
	}
	if count >= MinObjects {
		return nil
	}

	spawned := make([]*entity.Body, 0, ObjectBatch)
	for i := 0; i < ObjectBatch; i++ {
		spawned = append(spawned, m.spawnObject(ringPoint(m.rng, center, ObjectMinDst, ObjectMaxDst)))
	}
	m.logger.Debug("🪐 Спавн объектов: рядом %d, добавлено %d", count, len(spawned))
	return spawned
}

// EnsureAI досоздаёт ИИ, если рядом с игроком их меньше MinAI
func (m *Manager) EnsureAI(player *entity.Body, bodies []*entity.Body, tick uint64) []*entity.Body {
	center := player.Pos()
	count := 0
	for _, b := range bodies {
		if b.IsAI() && center.DistanceTo(b.Pos()) <= ObjectRadius {
			count++
		}
	}
	if count >= MinAI {
		return nil
	}

	spec := entity.Catalog[entity.KindAI]
	spawned := make([]*entity.Body, 0, AIBatch)
	for i := 0; i < AIBatch; i++ {
		p := ringPoint(m.rng, center, AIMinDst, AIMaxDst)
		ai := entity.NewAI(p.X, p.Y, randRange(m.rng, spec.MinMass, spec.MaxMass))
		ai.VX = randRange(m.rng, -AIMaxKick, AIMaxKick)
		ai.VY = randRange(m.rng, -AIMaxKick, AIMaxKick)
		// разносим решения разных тел по тикам
		ai.LastDecisionTick = tick + uint64(m.rng.Intn(20))
		spawned = append(spawned, ai)
	}
	m.logger.Debug("🤖 Спавн ИИ: рядом %d, добавлено %d", count, len(spawned))
	return spawned
}

// EnsureActivities досоздаёт активности, если рядом меньше MinActivities необнаруженных
func (m *Manager) EnsureActivities(player *entity.Body, activities []*entity.SpaceActivity) []*entity.SpaceActivity {
	center := player.Pos()
	count := 0
	for _, a := range activities {
		if a.Discovered {
			continue
		}
		if center.DistanceTo(vec.Vec2{X: a.X, Y: a.Y}) <= ActivityRadius {
			count++
		}
	}
	if count >= MinActivities {
		return nil
	}

	spawned := make([]*entity.SpaceActivity, 0, ActivityBatch)
	for i := 0; i < ActivityBatch; i++ {
		p := ringPoint(m.rng, center, ActivityMinDst, ActivityMaxDst)
		spawned = append(spawned, entity.NewActivity(pickActivity(m.rng), p.X, p.Y))
	}
	return spawned
}

// MaybeSpawnEvent с вероятностью EventChance создаёт событие рядом с игроком
func (m *Manager) MaybeSpawnEvent(player *entity.Body) *entity.CosmicEvent {
	if m.rng.Float64() >= EventChance {
		return nil
	}
	kind := entity.EventKinds[m.rng.Intn(len(entity.EventKinds))]
	p := ringPoint(m.rng, player.Pos(), EventMinDst, EventMaxDst)
	ev := entity.NewEvent(kind, p.X, p.Y)
	if speed := entity.EventCatalog[kind].Speed; speed > 0 {
		v := vec.FromAngle(m.rng.Float64()*2*math.Pi, speed)
		ev.VX, ev.VY = v.X, v.Y
	}
	m.logger.Info("🌠 Космическое событие %s (%.0fс)", kind, ev.Duration)
	return ev
}

// AdvanceEvents старит события на dt секунд, удаляет истёкшие и возвращает
// тела, порождённые метеорными потоками и поясами астероидов.
func (m *Manager) AdvanceEvents(events []*entity.CosmicEvent, dt float64) ([]*entity.CosmicEvent, []*entity.Body) {
	alive := events[:0]
	var spawned []*entity.Body

	for _, ev := range events {
		ev.TimeLeft -= dt
		if ev.Expired() {
			continue
		}
		ev.X += ev.VX
		ev.Y += ev.VY

		if kind, ok := ev.SpawnsBodies(); ok && m.rng.Float64() < EventSpawnChance {
			p := diskPoint(m.rng, vec.Vec2{X: ev.X, Y: ev.Y}, ev.Radius)
			b := entity.NewBody(kind, p.X, p.Y, massFor(m.rng, kind))
			b.VX = randRange(m.rng, -EventDebrisKick, EventDebrisKick) + ev.VX
			b.VY = randRange(m.rng, -EventDebrisKick, EventDebrisKick) + ev.VY
			spawned = append(spawned, b)
		}
		alive = append(alive, ev)
	}

	// обнуляем хвост, чтобы не держать ссылки на удалённые события
	for i := len(alive); i < len(events); i++ {
		events[i] = nil
	}
	return alive, spawned
}

// SeedShared создаёт n общих объектов вокруг center для серверного зеркала
func (m *Manager) SeedShared(center vec.Vec2, n int) []*entity.Body {
	bodies := make([]*entity.Body, 0, n)
	for i := 0; i < n; i++ {
		bodies = append(bodies, m.spawnObject(ringPoint(m.rng, center, SharedMinDst, ObjectMaxDst)))
	}
	m.logger.Info("🌌 Общий мир: создано %d объектов", n)
	return bodies
}

func (m *Manager) spawnObject(p vec.Vec2) *entity.Body {
	kind := pickKind(m.rng, m.density.At(p.X, p.Y))
	b := entity.NewBody(kind, p.X, p.Y, massFor(m.rng, kind))
	b.PulsePhase = m.rng.Float64() * 2 * math.Pi
	if entity.Catalog[kind].Glowing && kind != entity.KindWormhole {
		return b
	}
	b.VX = randRange(m.rng, -0.5, 0.5)
	b.VY = randRange(m.rng, -0.5, 0.5)
	return b
}
