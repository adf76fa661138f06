package entity

// GravityForce вклад одного тела в притяжение игрока; пересчитывается каждый тик.
// SourceID ссылается на тело сессии по идентификатору.
type GravityForce struct {
	Direction float64 `json:"direction"`
	Strength  float64 `json:"strength"`
	SourceID  string  `json:"sourceId"`
	Color     string  `json:"color"`
}
