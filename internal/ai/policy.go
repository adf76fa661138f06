package ai

import (
	"math"
	"math/rand"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/physics"
)

const (
	DecisionInterval = 20 // тиков между решениями одного тела
	LowEnergyRatio   = 0.3
	DangerRadius     = 250.0
	HuntRadius       = 400.0
	SteerAccel       = 0.05
	WanderChance     = 0.15
	WanderKick       = 1.2
	GrowthPerTick    = 0.002
	MassCap          = 40.0
)

// Policy принимает решения для тел ИИ. Порядок состояний задаёт приоритет.
type Policy struct {
	states   []State
	interval uint64
}

// NewPolicy создаёт политику с приоритетом charging > fleeing > hunting > exploring
func NewPolicy() *Policy {
	return &Policy{
		states:   []State{ChargingState{}, FleeingState{}, HuntingState{}, ExploringState{}},
		interval: DecisionInterval,
	}
}

// States возвращает имена состояний в порядке приоритета
func (p *Policy) States() []string {
	names := make([]string, len(p.states))
	for i, s := range p.states {
		names[i] = s.Name()
	}
	return names
}

// Update выполняет один тик ИИ: пассивный рост, решение по расписанию
// и применение сохранённого управляющего ускорения.
func (p *Policy) Update(b *entity.Body, bodies []*entity.Body, tick uint64, rng *rand.Rand) {
	if b.Mass < MassCap {
		b.SetMass(math.Min(MassCap, b.Mass+GrowthPerTick))
	}

	if tick >= b.LastDecisionTick+p.interval {
		p.decide(b, bodies, rng)
		b.LastDecisionTick = tick
	}

	b.VX += b.SteerX
	b.VY += b.SteerY
	physics.ClampSpeed(b)
}

func (p *Policy) decide(b *entity.Body, bodies []*entity.Body, rng *rand.Rand) {
	for _, s := range p.states {
		target, ok := s.Select(b, bodies)
		if !ok {
			continue
		}
		s.Enter(b, target, rng)
		b.AIState = s.Name()
		b.AITarget = ""
		if target != nil {
			b.AITarget = target.ID
		}
		return
	}
}
