package ai

import (
	"math"
	"math/rand"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/vec"
)

// State правило конечного автомата ИИ. Policy проверяет состояния по приоритету
// и входит в первое применимое.
type State interface {
	Name() string
	// Select возвращает цель состояния; ok == false — состояние неприменимо
	Select(self *entity.Body, bodies []*entity.Body) (target *entity.Body, ok bool)
	// Enter выставляет управляющее ускорение тела для выбранной цели
	Enter(self, target *entity.Body, rng *rand.Rand)
}

const (
	StateExploring = "exploring"
	StateCharging  = "charging"
	StateFleeing   = "fleeing"
	StateHunting   = "hunting"
)

// === Конкретные состояния ===

// ChargingState - поиск ближайшего светящегося тела при нехватке энергии
type ChargingState struct{}

func (ChargingState) Name() string { return StateCharging }

func (ChargingState) Select(self *entity.Body, bodies []*entity.Body) (*entity.Body, bool) {
	if !lowEnergy(self) {
		return nil, false
	}
	return nearest(self, bodies, math.Inf(1), func(b *entity.Body) bool { return b.IsGlowing })
}

func (ChargingState) Enter(self, target *entity.Body, _ *rand.Rand) {
	setSteer(self, target.Pos().Sub(self.Pos()))
}

// FleeingState - уход от ближайшего более тяжёлого тела в радиусе опасности
type FleeingState struct{}

func (FleeingState) Name() string { return StateFleeing }

func (FleeingState) Select(self *entity.Body, bodies []*entity.Body) (*entity.Body, bool) {
	if lowEnergy(self) {
		return nil, false
	}
	return nearest(self, bodies, DangerRadius, func(b *entity.Body) bool { return b.Mass > self.Mass })
}

func (FleeingState) Enter(self, target *entity.Body, _ *rand.Rand) {
	setSteer(self, self.Pos().Sub(target.Pos()))
}

// HuntingState - преследование ближайшего более лёгкого несветящегося тела
type HuntingState struct{}

func (HuntingState) Name() string { return StateHunting }

func (HuntingState) Select(self *entity.Body, bodies []*entity.Body) (*entity.Body, bool) {
	return nearest(self, bodies, HuntRadius, func(b *entity.Body) bool {
		return b.Mass < self.Mass && !b.IsGlowing
	})
}

func (HuntingState) Enter(self, target *entity.Body, _ *rand.Rand) {
	setSteer(self, target.Pos().Sub(self.Pos()))
}

// ExploringState - свободный дрейф со случайными толчками; применимо всегда
type ExploringState struct{}

func (ExploringState) Name() string { return StateExploring }

func (ExploringState) Select(*entity.Body, []*entity.Body) (*entity.Body, bool) {
	return nil, true
}

func (ExploringState) Enter(self, _ *entity.Body, rng *rand.Rand) {
	self.SteerX, self.SteerY = 0, 0
	if rng.Float64() < WanderChance {
		kick := vec.FromAngle(rng.Float64()*2*math.Pi, rng.Float64()*WanderKick)
		self.SetVel(self.Vel().Add(kick))
	}
}

func lowEnergy(b *entity.Body) bool {
	return b.HasEnergy() && b.Energy < LowEnergyRatio*b.MaxEnergy
}

func setSteer(b *entity.Body, dir vec.Vec2) {
	s := dir.Normalized().Mul(SteerAccel)
	b.SteerX, b.SteerY = s.X, s.Y
}

// nearest ищет ближайшее тело в радиусе, удовлетворяющее условию
func nearest(self *entity.Body, bodies []*entity.Body, radius float64, match func(*entity.Body) bool) (*entity.Body, bool) {
	var best *entity.Body
	bestDist := radius
	for _, b := range bodies {
		if b == self || !match(b) {
			continue
		}
		d := self.Pos().DistanceTo(b.Pos())
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, best != nil
}
