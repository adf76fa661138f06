package client

import (
	"math"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/game"
)

const (
	autopilotLowEnergy  = 0.4 // доля MaxEnergy, ниже которой ищем подзарядку
	autopilotPullRadius = 150.0
)

// Autopilot простой ввод для headless-клиента: при низкой энергии летит
// к ближайшему светящемуся телу, иначе охотится на ближайшее тело легче себя
// и включает притяжение, когда цель рядом. Червоточины обходит.
func Autopilot() InputFunc {
	return func(s *game.Session) game.Input {
		p := s.Player()
		low := p.HasEnergy() && p.Energy < p.MaxEnergy*autopilotLowEnergy

		var target *entity.Body
		best := math.Inf(1)
		for _, b := range s.Bodies() {
			if b == p || b.Kind == entity.KindWormhole {
				continue
			}
			if low != b.IsGlowing {
				continue
			}
			if !low && b.Mass >= p.Mass {
				continue
			}
			if d := p.Pos().DistanceTo(b.Pos()); d < best {
				best, target = d, b
			}
		}
		if target == nil {
			return game.Input{}
		}

		dir := target.Pos().Sub(p.Pos()).Normalized()
		return game.Input{
			MoveX: dir.X,
			MoveY: dir.Y,
			Pull:  !low && best < autopilotPullRadius,
		}
	}
}
