package game

import (
	"math"
	"math/rand"

	"github.com/annel0/gravity-arena/internal/ai"
	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/physics"
	"github.com/annel0/gravity-arena/internal/vec"
	"github.com/annel0/gravity-arena/internal/world"
)

// Периоды пополнения мира в тиках
const (
	ObjectTopUpEvery   = 60
	AITopUpEvery       = 120
	ActivityTopUpEvery = 180

	pulseSpeed = 2 * math.Pi // радиан в секунду
)

// Phase фаза сессии
type Phase int

const (
	PhasePlaying Phase = iota
	PhaseEnded
)

func (p Phase) String() string {
	if p == PhaseEnded {
		return "ended"
	}
	return "playing"
}

// Причины завершения сессии
const (
	ReasonEnergyDepleted = "energy_depleted"
	ReasonAbsorbed       = "absorbed"
)

// Input управляющий ввод одного тика
type Input struct {
	MoveX float64
	MoveY float64
	Pull  bool
	Pause bool
}

// Moving сообщает, подаёт ли игрок команду движения
func (in Input) Moving() bool { return in.MoveX != 0 || in.MoveY != 0 }

// Summary итог завершённой сессии
type Summary struct {
	Score     int     `json:"score"`
	Mass      float64 `json:"mass"`
	Energy    float64 `json:"energy"`
	MaxEnergy float64 `json:"maxEnergy"`
	Ticks     uint64  `json:"ticks"`
	Reason    string  `json:"reason"`
}

// Stats отображаемые показатели игрока
type Stats struct {
	Score     int
	Mass      float64
	Energy    float64
	MaxEnergy float64
	Risk      float64
}

// TickReport что произошло за тик
type TickReport struct {
	Absorptions   []physics.Absorption
	Discovered    []*entity.SpaceActivity
	Collected     []*entity.CosmicEvent
	PullAffected  int
	Teleported    bool
	Ended         bool
	SkippedPaused bool
}

// Session один экземпляр симуляции: владеет телами, событиями и активностями.
// Не потокобезопасна; вызывается из одной горутины.
type Session struct {
	rng    *rand.Rand
	world  *world.Manager
	policy *ai.Policy
	logger *logging.Logger

	player     *entity.Body
	bodies     []*entity.Body
	events     []*entity.CosmicEvent
	activities []*entity.SpaceActivity
	forces     []entity.GravityForce

	camera  vec.Vec2
	score   int
	tick    uint64
	phase   Phase
	summary Summary
}

// NewSession создаёт сессию с игроком в начале координат и сразу наполняет мир
func NewSession(seed int64) *Session {
	rng := rand.New(rand.NewSource(seed))
	player := entity.NewPlayer(0, 0)

	s := &Session{
		rng:    rng,
		world:  world.NewManager(rng, seed),
		policy: ai.NewPolicy(),
		logger: logging.GetGameLogger(),
		player: player,
		bodies: []*entity.Body{player},
	}
	s.topUpObjects()
	s.topUpAI()
	s.topUpActivities()
	s.forces = physics.ForceList(player, s.bodies, physics.ForceListSize)
	return s
}

// Step продвигает симуляцию на один тик. После завершения сессии ничего не делает.
func (s *Session) Step(in Input) TickReport {
	var report TickReport
	if s.phase == PhaseEnded {
		report.Ended = true
		return report
	}
	if in.Pause {
		report.SkippedPaused = true
		return report
	}
	s.tick++

	// 1. Ввод и способность притяжения
	if in.Moving() {
		physics.Thrust(s.player, in.MoveX, in.MoveY)
	}
	report.PullAffected = physics.ApplyGravityPull(s.player, s.bodies, in.Pull, physics.DT)

	// 2. Пополнение мира
	if s.tick%ObjectTopUpEvery == 0 {
		s.topUpObjects()
	}
	if s.tick%AITopUpEvery == 0 {
		s.topUpAI()
	}
	if s.tick%ActivityTopUpEvery == 0 {
		s.topUpActivities()
	}

	// 3. Тела в порядке среза
	moving := in.Moving()
	for _, b := range s.bodies {
		if b.IsAI() {
			s.policy.Update(b, s.bodies, s.tick, s.rng)
		}
		if physics.SubjectToGravity(b) {
			physics.ApplyGravity(b, s.bodies)
		}
		if b == s.player {
			physics.UpdateOrbitalRisk(b, s.bodies, moving)
		}
		if b.HasEnergy() {
			physics.UpdateEnergy(b, s.bodies, physics.DT)
		}
		physics.Integrate(b)
		if b.IsGlowing {
			b.PulsePhase = math.Mod(b.PulsePhase+pulseSpeed*physics.DT, 2*math.Pi)
		}
	}

	// 4. События
	var spawned []*entity.Body
	s.events, spawned = s.world.AdvanceEvents(s.events, physics.DT)
	s.bodies = append(s.bodies, spawned...)
	if ev := s.world.MaybeSpawnEvent(s.player); ev != nil {
		s.events = append(s.events, ev)
	}

	// 5. Обнаружение активностей и награды событий
	report.Discovered = s.discoverActivities()
	report.Collected = s.collectEventRewards()

	// 6. Столкновения
	res := physics.Resolve(s.bodies, s.player.ID, s.rng)
	s.score += res.ScoreDelta
	report.Absorptions = res.Absorptions
	report.Teleported = res.Teleported
	if len(res.RemoveOrder) > 0 {
		s.removeBodies(res.Remove)
	}

	// 7-8. Камера и список сил
	s.camera = s.player.Pos()
	s.forces = physics.ForceList(s.player, s.bodies, physics.ForceListSize)

	// 9. Проверка завершения
	switch {
	case res.PlayerAbsorbed:
		s.end(ReasonAbsorbed)
	case s.player.Energy <= 0:
		s.end(ReasonEnergyDepleted)
	}
	report.Ended = s.phase == PhaseEnded
	return report
}

func (s *Session) topUpObjects() {
	s.bodies = append(s.bodies, s.world.EnsureObjects(s.player, s.bodies)...)
}

func (s *Session) topUpAI() {
	s.bodies = append(s.bodies, s.world.EnsureAI(s.player, s.bodies, s.tick)...)
}

func (s *Session) topUpActivities() {
	s.activities = append(s.activities, s.world.EnsureActivities(s.player, s.activities)...)
}

func (s *Session) discoverActivities() []*entity.SpaceActivity {
	var found []*entity.SpaceActivity
	p := s.player
	for _, a := range s.activities {
		if a.Discovered {
			continue
		}
		if p.Pos().DistanceTo(vec.Vec2{X: a.X, Y: a.Y}) >= a.Radius+p.Radius {
			continue
		}
		a.Discover()
		s.score += a.Reward
		if a.Kind == entity.ActivityEnergyCrystal {
			p.Energy = p.MaxEnergy
		}
		found = append(found, a)
		s.logger.Info("✨ Обнаружено: %s (+%d)", a.Kind, a.Reward)
	}
	return found
}

func (s *Session) collectEventRewards() []*entity.CosmicEvent {
	var collected []*entity.CosmicEvent
	p := s.player
	for _, ev := range s.events {
		if ev.Collected || ev.Reward <= 0 {
			continue
		}
		if p.Pos().DistanceTo(vec.Vec2{X: ev.X, Y: ev.Y}) >= ev.Radius {
			continue
		}
		ev.Collected = true
		s.score += ev.Reward
		collected = append(collected, ev)
	}
	return collected
}

func (s *Session) removeBodies(remove map[string]struct{}) {
	kept := s.bodies[:0]
	for _, b := range s.bodies {
		if _, gone := remove[b.ID]; !gone {
			kept = append(kept, b)
		}
	}
	for i := len(kept); i < len(s.bodies); i++ {
		s.bodies[i] = nil
	}
	s.bodies = kept
}

func (s *Session) end(reason string) {
	s.phase = PhaseEnded
	s.summary = Summary{
		Score:     s.score,
		Mass:      s.player.Mass,
		Energy:    s.player.Energy,
		MaxEnergy: s.player.MaxEnergy,
		Ticks:     s.tick,
		Reason:    reason,
	}
	s.logger.Info("💀 Сессия завершена (%s): счёт %d, масса %.1f, тиков %d", reason, s.score, s.player.Mass, s.tick)
}

// SetPlayerID переименовывает локального игрока (идентификатор от сервера)
func (s *Session) SetPlayerID(id string) {
	s.player.ID = id
}

func (s *Session) Player() *entity.Body                { return s.player }
func (s *Session) Bodies() []*entity.Body              { return s.bodies }
func (s *Session) Events() []*entity.CosmicEvent       { return s.events }
func (s *Session) Activities() []*entity.SpaceActivity { return s.activities }
func (s *Session) Forces() []entity.GravityForce       { return s.forces }
func (s *Session) Camera() vec.Vec2                    { return s.camera }
func (s *Session) Score() int                          { return s.score }
func (s *Session) Tick() uint64                        { return s.tick }
func (s *Session) Phase() Phase                        { return s.phase }

// Summary возвращает итог; ok == false, пока сессия не завершена
func (s *Session) Summary() (Summary, bool) {
	return s.summary, s.phase == PhaseEnded
}

// Stats возвращает текущие показатели игрока
func (s *Session) Stats() Stats {
	return Stats{
		Score:     s.score,
		Mass:      s.player.Mass,
		Energy:    s.player.Energy,
		MaxEnergy: s.player.MaxEnergy,
		Risk:      s.player.AbsorptionProgress,
	}
}

// Landmarks возвращает ориентиры для мини-карты
func (s *Session) Landmarks() []*entity.Body {
	var out []*entity.Body
	for _, b := range s.bodies {
		if b.IsLandmark {
			out = append(out, b)
		}
	}
	return out
}

// Body ищет тело по идентификатору
func (s *Session) Body(id string) (*entity.Body, bool) {
	for _, b := range s.bodies {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}
