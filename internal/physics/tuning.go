package physics

// Параметры симуляции. Скорости в единицах за тик, ускорения в единицах за тик²,
// время (dt) в секундах.
const (
	DT = 1.0 / 60.0

	G         = 5.0
	GlowBonus = 1.3
	MaxSpeed  = 10.0
	Friction  = 0.99

	PlayerThrust = 0.3

	PullRadius     = 350.0
	PullStrength   = 60.0
	PullEnergyCost = 15.0 // в секунду

	EnergyDecay    = 1.0 // в секунду
	ChargingRadius = 300.0

	OrbitalBand = 120.0 // от поверхности светящегося тела
	RiskRelief  = 0.02
	RiskGain    = 0.005
	FatalRisk   = 1.0
	MinStandoff = 30.0
	OrbitNudge  = 0.04

	Retention      = 0.8
	EnergyTransfer = 0.5
	ScorePerMass   = 20.0

	WormholeJitter  = 40.0
	WormholeDamping = 0.5

	ForceListSize   = 5
	ForceDisplayCap = 2.0
)
