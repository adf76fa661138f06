package physics

import (
	"math"

	"github.com/annel0/gravity-arena/internal/entity"
)

// UpdateEnergy списывает EnergyDecay·dt и начисляет подзарядку от светящихся тел,
// находящихся ближе ChargingRadius, но без прямого контакта.
func UpdateEnergy(b *entity.Body, bodies []*entity.Body, dt float64) {
	if !b.HasEnergy() {
		return
	}

	b.AddEnergy(-EnergyDecay * dt)

	for _, src := range bodies {
		if src == b || !src.IsGlowing {
			continue
		}
		d := b.Pos().DistanceTo(src.Pos())
		surface := d - (b.Radius + src.Radius)
		if surface <= 0 || d >= ChargingRadius {
			continue
		}
		b.AddEnergy(src.ChargingRate * (1 - d/ChargingRadius) * dt)
	}
}

// UpdateOrbitalRisk обновляет риск поглощения игрока (AbsorptionProgress).
// В полосе OrbitalBand риск растёт, пока игрок стоит, и падает при движении;
// вне полосы всех светящихся тел сбрасывается. Дальше MinStandoff от поверхности
// к скорости добавляется касательный толчок. Возвращает true, если игрок в полосе.
func UpdateOrbitalRisk(player *entity.Body, bodies []*entity.Body, moving bool) bool {
	inBand := false
	nudged := false

	for _, src := range bodies {
		if src == player || !src.IsGlowing {
			continue
		}
		toSrc := src.Pos().Sub(player.Pos())
		altitude := toSrc.Length() - src.Radius
		if altitude >= OrbitalBand {
			continue
		}
		inBand = true

		if moving {
			player.AbsorptionProgress = math.Max(0, player.AbsorptionProgress-RiskRelief)
		} else {
			player.AbsorptionProgress += RiskGain
		}

		if altitude > MinStandoff {
			tangent := toSrc.Normalized().Perp()
			player.SetVel(player.Vel().Add(tangent.Mul(OrbitNudge)))
			nudged = true
		}
	}

	if !inBand {
		player.AbsorptionProgress = 0
	}
	if nudged {
		ClampSpeed(player)
	}
	return inBand
}

// RiskArmed сообщает, приведёт ли контакт со светящимся телом к гибели игрока
func RiskArmed(player *entity.Body) bool {
	return player.AbsorptionProgress > FatalRisk
}
