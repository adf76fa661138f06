package entity

import "math"

// Kind тип небесного тела; сериализуется в поле "type"
type Kind string

const (
	KindPlayer       Kind = "player"
	KindAI           Kind = "ai"
	KindDebris       Kind = "debris"
	KindPlanet       Kind = "planet"
	KindStar         Kind = "star"
	KindBlackHole    Kind = "blackhole"
	KindWhiteDwarf   Kind = "whitedwarf"
	KindWormhole     Kind = "wormhole"
	KindPulsar       Kind = "pulsar"
	KindNeutronStar  Kind = "neutronstar"
	KindComet        Kind = "comet"
	KindAsteroid     Kind = "asteroid"
	KindSpaceStation Kind = "spacestation"
	KindAnomaly      Kind = "anomaly"
)

// KindSpec описывает параметры вида тела при генерации
type KindSpec struct {
	MinMass      float64
	MaxMass      float64
	Glowing      bool
	Landmark     bool
	ChargingRate float64
	Weight       int     // вес в таблице спавна (0 — не спавнится миром)
	RadiusScale  float64 // radius = scale * sqrt(mass)
	Color        string
}

// MinRadius нижняя граница радиуса любого тела
const MinRadius = 2.0

// Catalog таблица видов тел
var Catalog = map[Kind]KindSpec{
	KindBlackHole:    {MinMass: 300, MaxMass: 500, Glowing: true, Landmark: true, ChargingRate: 4, Weight: 1, RadiusScale: 1.2, Color: "#6a0dad"},
	KindStar:         {MinMass: 150, MaxMass: 250, Glowing: true, Landmark: true, ChargingRate: 12, Weight: 3, RadiusScale: 2.0, Color: "#ffd23f"},
	KindPulsar:       {MinMass: 100, MaxMass: 160, Glowing: true, Landmark: true, ChargingRate: 15, Weight: 2, RadiusScale: 1.3, Color: "#00e5ff"},
	KindNeutronStar:  {MinMass: 90, MaxMass: 140, Glowing: true, ChargingRate: 10, Weight: 1, RadiusScale: 1.0, Color: "#b3e5fc"},
	KindWhiteDwarf:   {MinMass: 60, MaxMass: 100, Glowing: true, ChargingRate: 8, Weight: 3, RadiusScale: 1.5, Color: "#f5f5f5"},
	KindWormhole:     {MinMass: 40, MaxMass: 60, Glowing: true, Landmark: true, ChargingRate: 5, Weight: 3, RadiusScale: 2.0, Color: "#ff00ff"},
	KindAnomaly:      {MinMass: 20, MaxMass: 40, Glowing: true, ChargingRate: 6, Weight: 1, RadiusScale: 2.0, Color: "#76ff03"},
	KindSpaceStation: {MinMass: 15, MaxMass: 30, Weight: 4, RadiusScale: 2.5, Color: "#90a4ae"},
	KindPlanet:       {MinMass: 20, MaxMass: 60, Weight: 10, RadiusScale: 3.0, Color: "#4caf50"},
	KindComet:        {MinMass: 3, MaxMass: 8, Weight: 12, RadiusScale: 3.0, Color: "#80deea"},
	KindAsteroid:     {MinMass: 2, MaxMass: 5, Weight: 20, RadiusScale: 3.0, Color: "#8d6e63"},
	KindDebris:       {MinMass: 0.3, MaxMass: 1.5, Weight: 40, RadiusScale: 3.0, Color: "#9e9e9e"},
	KindPlayer:       {MinMass: 5, MaxMass: 5, RadiusScale: 4.0, Color: "#2196f3"},
	KindAI:           {MinMass: 2, MaxMass: 8, RadiusScale: 4.0, Color: "#f44336"},
}

// SpawnOrder фиксированный порядок видов в таблице спавна (от редких к частым)
var SpawnOrder = []Kind{
	KindBlackHole, KindStar, KindPulsar, KindNeutronStar, KindWhiteDwarf, KindWormhole,
	KindAnomaly, KindSpaceStation, KindPlanet, KindComet, KindAsteroid, KindDebris,
}

// RadiusFor возвращает радиус тела заданной массы и вида
func RadiusFor(mass float64, kind Kind) float64 {
	scale := 3.0
	if spec, ok := Catalog[kind]; ok {
		scale = spec.RadiusScale
	}
	return math.Max(MinRadius, scale*math.Sqrt(mass))
}

// Valid сообщает, известен ли вид
func (k Kind) Valid() bool {
	_, ok := Catalog[k]
	return ok
}
