package entity

import "github.com/google/uuid"

// ActivityKind тип обнаруживаемой активности
type ActivityKind string

const (
	ActivityEnergyCrystal  ActivityKind = "energyCrystal"
	ActivityDerelictShip   ActivityKind = "derelictShip"
	ActivityAncientBeacon  ActivityKind = "ancientBeacon"
	ActivityAlienArtifact  ActivityKind = "alienArtifact"
	ActivityStellarNursery ActivityKind = "stellarNursery"
)

// ActivitySpec параметры вида активности
type ActivitySpec struct {
	Reward      int
	Weight      int
	Radius      float64
	Description string
}

var ActivityCatalog = map[ActivityKind]ActivitySpec{
	ActivityEnergyCrystal:  {Reward: 50, Weight: 40, Radius: 25, Description: "Energy crystal: fully restores energy"},
	ActivityDerelictShip:   {Reward: 120, Weight: 25, Radius: 35, Description: "Derelict ship drifting without crew"},
	ActivityAncientBeacon:  {Reward: 200, Weight: 15, Radius: 30, Description: "Ancient beacon still broadcasting"},
	ActivityAlienArtifact:  {Reward: 350, Weight: 12, Radius: 30, Description: "Alien artifact of unknown origin"},
	ActivityStellarNursery: {Reward: 500, Weight: 8, Radius: 60, Description: "Stellar nursery where new stars form"},
}

// ActivityKinds порядок видов в таблице наград
var ActivityKinds = []ActivityKind{
	ActivityEnergyCrystal, ActivityDerelictShip, ActivityAncientBeacon, ActivityAlienArtifact, ActivityStellarNursery,
}

// SpaceActivity объект, который игрок может обнаружить один раз
type SpaceActivity struct {
	ID          string       `json:"id"`
	Kind        ActivityKind `json:"type"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	Radius      float64      `json:"radius"`
	Reward      int          `json:"reward"`
	Discovered  bool         `json:"discovered"`
	Description string       `json:"description"`
}

// NewActivity создаёт активность с параметрами из каталога
func NewActivity(kind ActivityKind, x, y float64) *SpaceActivity {
	spec := ActivityCatalog[kind]
	return &SpaceActivity{
		ID:          uuid.NewString(),
		Kind:        kind,
		X:           x,
		Y:           y,
		Radius:      spec.Radius,
		Reward:      spec.Reward,
		Description: spec.Description,
	}
}

// Discover помечает активность обнаруженной. Возвращает false, если она уже была обнаружена.
func (a *SpaceActivity) Discover() bool {
	if a.Discovered {
		return false
	}
	a.Discovered = true
	return true
}
