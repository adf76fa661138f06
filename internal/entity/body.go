package entity

import (
	"fmt"
	"math"

	"github.com/annel0/gravity-arena/internal/vec"
	"github.com/google/uuid"
)

const (
	PlayerStartMass = 5.0
	PlayerMaxEnergy = 100.0
	AIMaxEnergy     = 60.0
)

// Body единица симуляции. Энергия есть только у тел с MaxEnergy > 0
// (игрок и ИИ), орбитальный риск накапливает только игрок.
type Body struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Mass   float64 `json:"mass"`
	Radius float64 `json:"radius"`
	Kind   Kind    `json:"type"`
	Color  string  `json:"color"`

	Energy    float64 `json:"energy,omitempty"`
	MaxEnergy float64 `json:"maxEnergy,omitempty"`

	IsGlowing    bool    `json:"isGlowing,omitempty"`
	ChargingRate float64 `json:"chargingRate,omitempty"`
	IsLandmark   bool    `json:"isLandmark,omitempty"`
	PulsePhase   float64 `json:"pulsePhase,omitempty"`

	AbsorptionProgress float64 `json:"absorptionProgress,omitempty"`

	AIState  string `json:"aiState,omitempty"`
	AITarget string `json:"aiTarget,omitempty"`

	// Локальные поля планировщика ИИ, по сети не передаются
	LastDecisionTick uint64  `json:"-"`
	SteerX           float64 `json:"-"`
	SteerY           float64 `json:"-"`
}

// NewBody создаёт тело вида kind с параметрами из каталога
func NewBody(kind Kind, x, y, mass float64) *Body {
	if mass <= 0 {
		panic(fmt.Sprintf("entity: масса должна быть положительной, получено %v", mass))
	}
	spec := Catalog[kind]
	b := &Body{
		ID:           uuid.NewString(),
		X:            x,
		Y:            y,
		Mass:         mass,
		Radius:       RadiusFor(mass, kind),
		Kind:         kind,
		Color:        spec.Color,
		IsGlowing:    spec.Glowing,
		ChargingRate: spec.ChargingRate,
		IsLandmark:   spec.Landmark,
	}
	return b
}

// NewPlayer создаёт тело игрока с полной энергией
func NewPlayer(x, y float64) *Body {
	b := NewBody(KindPlayer, x, y, PlayerStartMass)
	b.Energy = PlayerMaxEnergy
	b.MaxEnergy = PlayerMaxEnergy
	return b
}

// NewAI создаёт тело ИИ с полной энергией
func NewAI(x, y, mass float64) *Body {
	b := NewBody(KindAI, x, y, mass)
	b.Energy = AIMaxEnergy
	b.MaxEnergy = AIMaxEnergy
	b.AIState = "exploring"
	return b
}

func (b *Body) Pos() vec.Vec2 { return vec.Vec2{X: b.X, Y: b.Y} }
func (b *Body) Vel() vec.Vec2 { return vec.Vec2{X: b.VX, Y: b.VY} }

func (b *Body) SetPos(p vec.Vec2) { b.X, b.Y = p.X, p.Y }
func (b *Body) SetVel(v vec.Vec2) { b.VX, b.VY = v.X, v.Y }

// HasEnergy сообщает, расходует ли тело энергию
func (b *Body) HasEnergy() bool { return b.MaxEnergy > 0 }

// IsPlayer true для тела игрока (локального или удалённого)
func (b *Body) IsPlayer() bool { return b.Kind == KindPlayer }

// IsAI true для тел под управлением ИИ
func (b *Body) IsAI() bool { return b.Kind == KindAI }

// SetMass устанавливает массу и пересчитывает радиус.
// Масса только растёт; нарушение считается ошибкой программы.
func (b *Body) SetMass(mass float64) {
	if mass <= 0 || math.IsNaN(mass) {
		panic(fmt.Sprintf("entity: недопустимая масса %v у тела %s", mass, b.ID))
	}
	if mass < b.Mass {
		panic(fmt.Sprintf("entity: масса тела %s не может уменьшаться (%v -> %v)", b.ID, b.Mass, mass))
	}
	b.Mass = mass
	b.Radius = RadiusFor(mass, b.Kind)
}

// Grow увеличивает массу на delta >= 0
func (b *Body) Grow(delta float64) {
	b.SetMass(b.Mass + delta)
}

// AddEnergy изменяет энергию с ограничением в [0, MaxEnergy]
func (b *Body) AddEnergy(delta float64) {
	if !b.HasEnergy() {
		return
	}
	b.Energy = clamp(b.Energy+delta, 0, b.MaxEnergy)
}

// Clone возвращает независимую копию тела
func (b *Body) Clone() *Body {
	c := *b
	return &c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
