package physics

import (
	"math"
	"sort"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/vec"
)

// ComputeAcceleration суммирует притяжение всех остальных тел к target.
// Совпадающие центры (d == 0) не дают вклада.
func ComputeAcceleration(target *entity.Body, bodies []*entity.Body) (ax, ay float64) {
	for _, other := range bodies {
		if other == target {
			continue
		}
		dx := other.X - target.X
		dy := other.Y - target.Y
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		a := G * other.Mass / (d * d)
		if other.IsGlowing {
			a *= GlowBonus
		}
		ax += a * dx / d
		ay += a * dy / d
	}
	return ax, ay
}

// SubjectToGravity: светящиеся тела неподвижны, кроме червоточин
func SubjectToGravity(b *entity.Body) bool {
	return !b.IsGlowing || b.Kind == entity.KindWormhole
}

// ApplyGravity добавляет ускорение к скорости и ограничивает её модуль
func ApplyGravity(b *entity.Body, bodies []*entity.Body) {
	ax, ay := ComputeAcceleration(b, bodies)
	b.VX += ax
	b.VY += ay
	ClampSpeed(b)
}

// ClampSpeed равномерно масштабирует скорость до MaxSpeed
func ClampSpeed(b *entity.Body) {
	b.SetVel(b.Vel().ClampLength(MaxSpeed))
}

// ApplyGravityPull притягивает к игроку все тела легче него в радиусе PullRadius.
// Способность списывает PullEnergyCost·dt энергии. Возвращает число затронутых тел.
func ApplyGravityPull(player *entity.Body, bodies []*entity.Body, active bool, dt float64) int {
	if !active || player.Energy <= 0 {
		return 0
	}

	affected := 0
	for _, b := range bodies {
		if b == player || b.Mass >= player.Mass {
			continue
		}
		toPlayer := player.Pos().Sub(b.Pos())
		d := toPlayer.Length()
		if d == 0 || d > PullRadius {
			continue
		}
		a := PullStrength * player.Mass / (d * d)
		b.SetVel(b.Vel().Add(toPlayer.Mul(a / d)))
		ClampSpeed(b)
		affected++
	}

	player.AddEnergy(-PullEnergyCost * dt)
	return affected
}

// ForceList возвращает n сильнейших гравитационных влияний на игрока
func ForceList(player *entity.Body, bodies []*entity.Body, n int) []entity.GravityForce {
	type rawForce struct {
		force    entity.GravityForce
		strength float64
	}
	raw := make([]rawForce, 0, len(bodies))
	for _, other := range bodies {
		if other == player {
			continue
		}
		delta := other.Pos().Sub(player.Pos())
		d := delta.Length()
		if d == 0 {
			continue
		}
		strength := G * other.Mass / (d * d)
		if other.IsGlowing {
			strength *= GlowBonus
		}
		raw = append(raw, rawForce{
			force: entity.GravityForce{
				Direction: delta.Angle(),
				SourceID:  other.ID,
				Color:     other.Color,
			},
			strength: strength,
		})
	}

	// Порядок по реальной силе; ограничение только для отображаемого значения
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].strength > raw[j].strength
	})
	if len(raw) > n {
		raw = raw[:n]
	}
	forces := make([]entity.GravityForce, len(raw))
	for i, r := range raw {
		forces[i] = r.force
		forces[i].Strength = math.Min(r.strength, ForceDisplayCap)
	}
	return forces
}

// Thrust переводит ввод направления в изменение скорости игрока.
// Диагональный ввод нормализуется до единичной длины.
func Thrust(b *entity.Body, moveX, moveY float64) {
	dir := vec.Vec2{X: clampUnit(moveX), Y: clampUnit(moveY)}
	if dir.LengthSq() > 1 {
		dir = dir.Normalized()
	}
	b.SetVel(b.Vel().Add(dir.Mul(PlayerThrust)))
	ClampSpeed(b)
}

// Integrate сдвигает тело на его скорость и применяет трение
func Integrate(b *entity.Body) {
	b.X += b.VX
	b.Y += b.VY
	b.VX *= Friction
	b.VY *= Friction
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
