package physics

import (
	"math"
	"math/rand"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/vec"
)

// Absorption запись об одном поглощении за проход
type Absorption struct {
	AbsorberID string
	AbsorbedID string
	Gained     float64
	Score      int
}

// Resolution итог прохода столкновений. Удаление тел выполняет вызывающий код.
type Resolution struct {
	Remove         map[string]struct{}
	RemoveOrder    []string
	ScoreDelta     int
	PlayerAbsorbed bool
	Teleported     bool
	Fatal          bool
	Absorptions    []Absorption
}

// Removed сообщает, поставлено ли тело в очередь на удаление
func (r *Resolution) Removed(id string) bool {
	_, ok := r.Remove[id]
	return ok
}

func (r *Resolution) queue(id string) {
	r.Remove[id] = struct{}{}
	r.RemoveOrder = append(r.RemoveOrder, id)
}

// Resolve проверяет все неупорядоченные пары за один проход.
// Пары с телом, уже поставленным в очередь на удаление, пропускаются.
// playerID может быть пустым (зеркало на сервере не имеет локального игрока).
func Resolve(bodies []*entity.Body, playerID string, rng *rand.Rand) Resolution {
	res := Resolution{Remove: make(map[string]struct{})}

	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		if res.Removed(a.ID) {
			continue
		}
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			if res.Removed(b.ID) {
				continue
			}
			if res.Removed(a.ID) {
				break
			}
			if a.Pos().DistanceTo(b.Pos()) >= a.Radius+b.Radius {
				continue
			}

			player, other := pickPlayer(a, b, playerID)

			if player != nil && other.Kind == entity.KindWormhole {
				// не больше одного перемещения за проход
				if !res.Teleported && teleport(player, other, bodies, &res, rng) {
					res.Teleported = true
				}
				continue
			}

			if player != nil && other.IsGlowing && RiskArmed(player) {
				player.Energy = 0
				res.Fatal = true
				continue
			}

			if a.IsGlowing || b.IsGlowing {
				continue
			}

			absorb(a, b, playerID, &res)
		}
	}

	return res
}

func pickPlayer(a, b *entity.Body, playerID string) (player, other *entity.Body) {
	if playerID == "" {
		return nil, nil
	}
	if a.ID == playerID {
		return a, b
	}
	if b.ID == playerID {
		return b, a
	}
	return nil, nil
}

// absorb: большее тело поглощает меньшее, при равных массах поглощает первое в паре
func absorb(a, b *entity.Body, playerID string, res *Resolution) {
	larger, smaller := a, b
	if b.Mass > a.Mass {
		larger, smaller = b, a
	}

	gained := smaller.Mass * Retention
	larger.Grow(gained)

	if larger.HasEnergy() && smaller.HasEnergy() {
		larger.AddEnergy(smaller.Energy * EnergyTransfer)
	}

	score := 0
	if playerID != "" && larger.ID == playerID {
		score = int(math.Floor(smaller.Mass * ScorePerMass))
		res.ScoreDelta += score
	}
	if playerID != "" && smaller.ID == playerID {
		res.PlayerAbsorbed = true
		smaller.Energy = 0
	}

	res.queue(smaller.ID)
	res.Absorptions = append(res.Absorptions, Absorption{
		AbsorberID: larger.ID,
		AbsorbedID: smaller.ID,
		Gained:     gained,
		Score:      score,
	})
}

// teleport переносит игрока к случайной другой червоточине со смещением не больше WormholeJitter.
// Смещение по возможности выводит игрока из контакта с выходной червоточиной.
func teleport(player, touched *entity.Body, bodies []*entity.Body, res *Resolution, rng *rand.Rand) bool {
	var exits []*entity.Body
	for _, b := range bodies {
		if b.Kind == entity.KindWormhole && b.ID != touched.ID && !res.Removed(b.ID) {
			exits = append(exits, b)
		}
	}
	if len(exits) == 0 {
		return false
	}

	exit := exits[rng.Intn(len(exits))]
	minDist := math.Min(exit.Radius+player.Radius, WormholeJitter)
	dist := minDist + rng.Float64()*(WormholeJitter-minDist)
	offset := vec.FromAngle(rng.Float64()*2*math.Pi, dist)
	player.SetPos(exit.Pos().Add(offset))
	player.SetVel(player.Vel().Mul(WormholeDamping))
	return true
}
