package entity

import "github.com/google/uuid"

// EventKind тип космического события
type EventKind string

const (
	EventMeteorShower EventKind = "meteorShower"
	EventAsteroidBelt EventKind = "asteroidBelt"
	EventSolarFlare   EventKind = "solarFlare"
	EventIonStorm     EventKind = "ionStorm"
	EventGravityWave  EventKind = "gravityWave"
	EventNebulaCloud  EventKind = "nebulaCloud"
	EventSupernova    EventKind = "supernova"
	EventCosmicRay    EventKind = "cosmicRay"
	EventDarkMatter   EventKind = "darkMatter"
)

// EventSpec параметры вида события: длительность в секундах, радиус, награда
type EventSpec struct {
	Duration float64
	Radius   float64
	Reward   int
	Speed    float64 // модуль начальной скорости дрейфа, 0 — событие неподвижно
}

// EventCatalog таблица видов событий
var EventCatalog = map[EventKind]EventSpec{
	EventMeteorShower: {Duration: 20, Radius: 250, Speed: 0.5},
	EventAsteroidBelt: {Duration: 30, Radius: 350},
	EventSolarFlare:   {Duration: 12, Radius: 200, Reward: 30},
	EventIonStorm:     {Duration: 18, Radius: 220, Reward: 40, Speed: 0.3},
	EventGravityWave:  {Duration: 10, Radius: 300, Reward: 60},
	EventNebulaCloud:  {Duration: 40, Radius: 400, Reward: 25, Speed: 0.1},
	EventSupernova:    {Duration: 15, Radius: 350, Reward: 150},
	EventCosmicRay:    {Duration: 8, Radius: 150, Reward: 80, Speed: 0.8},
	EventDarkMatter:   {Duration: 25, Radius: 300, Reward: 100},
}

// EventKinds фиксированный порядок видов событий
var EventKinds = []EventKind{
	EventMeteorShower, EventAsteroidBelt, EventSolarFlare, EventIonStorm, EventGravityWave,
	EventNebulaCloud, EventSupernova, EventCosmicRay, EventDarkMatter,
}

// CosmicEvent временное явление вблизи игрока
type CosmicEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"type"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	VX        float64   `json:"vx,omitempty"`
	VY        float64   `json:"vy,omitempty"`
	Duration  float64   `json:"duration"`
	TimeLeft  float64   `json:"timeLeft"`
	Radius    float64   `json:"radius"`
	Reward    int       `json:"reward,omitempty"`
	Collected bool      `json:"collected,omitempty"`
}

// NewEvent создаёт событие с параметрами из каталога
func NewEvent(kind EventKind, x, y float64) *CosmicEvent {
	spec := EventCatalog[kind]
	return &CosmicEvent{
		ID:       uuid.NewString(),
		Kind:     kind,
		X:        x,
		Y:        y,
		Duration: spec.Duration,
		TimeLeft: spec.Duration,
		Radius:   spec.Radius,
		Reward:   spec.Reward,
	}
}

// Expired сообщает, истекло ли время жизни события
func (e *CosmicEvent) Expired() bool { return e.TimeLeft <= 0 }

// SpawnsBodies возвращает вид тел, порождаемых событием, если оно их порождает
func (e *CosmicEvent) SpawnsBodies() (Kind, bool) {
	switch e.Kind {
	case EventMeteorShower:
		return KindDebris, true
	case EventAsteroidBelt:
		return KindAsteroid, true
	}
	return "", false
}
