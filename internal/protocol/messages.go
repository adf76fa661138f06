package protocol

import "github.com/annel0/gravity-arena/internal/entity"

// Типы сообщений (поле "type")
const (
	TypeInit         = "init"
	TypeGameState    = "gameState"
	TypePlayerJoined = "playerJoined"
	TypePlayerLeft   = "playerLeft"
	TypeUpdate       = "update"
	TypeAction       = "action"
)

// ActionGravityPull единственный известный тип действия
const ActionGravityPull = "gravityPull"

// Message сообщение протокола синхронизации
type Message interface {
	MessageType() string
}

// GameState снимок разделяемого состояния
type GameState struct {
	Players []entity.Body `json:"players"`
	Objects []entity.Body `json:"objects"`
}

// InitMessage сервер -> новый клиент: назначенный ID и текущее состояние
type InitMessage struct {
	Type      string    `json:"type"`
	PlayerID  string    `json:"playerId"`
	GameState GameState `json:"gameState"`
}

// GameStateMessage сервер -> все клиенты каждый тик сервера
type GameStateMessage struct {
	Type  string    `json:"type"`
	State GameState `json:"state"`
}

// PlayerJoinedMessage сервер -> все, кроме присоединившегося
type PlayerJoinedMessage struct {
	Type   string      `json:"type"`
	Player entity.Body `json:"player"`
}

// PlayerLeftMessage сервер -> все оставшиеся
type PlayerLeftMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

// UpdateMessage клиент -> сервер: тело игрока целиком; счёт и имя для
// таблицы рекордов опциональны
type UpdateMessage struct {
	Type  string      `json:"type"`
	State entity.Body `json:"state"`
	Score *int        `json:"score,omitempty"`
	Name  string      `json:"name,omitempty"`
}

// Action действие игрока
type Action struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// ActionMessage клиент -> сервер
type ActionMessage struct {
	Type   string `json:"type"`
	Action Action `json:"action"`
}

func (*InitMessage) MessageType() string         { return TypeInit }
func (*GameStateMessage) MessageType() string    { return TypeGameState }
func (*PlayerJoinedMessage) MessageType() string { return TypePlayerJoined }
func (*PlayerLeftMessage) MessageType() string   { return TypePlayerLeft }
func (*UpdateMessage) MessageType() string       { return TypeUpdate }
func (*ActionMessage) MessageType() string       { return TypeAction }

func NewInit(playerID string, players, objects []entity.Body) *InitMessage {
	return &InitMessage{PlayerID: playerID, GameState: GameState{Players: players, Objects: objects}}
}

func NewGameState(players, objects []entity.Body) *GameStateMessage {
	return &GameStateMessage{State: GameState{Players: players, Objects: objects}}
}

func NewPlayerJoined(player entity.Body) *PlayerJoinedMessage {
	return &PlayerJoinedMessage{Player: player}
}

func NewPlayerLeft(playerID string) *PlayerLeftMessage {
	return &PlayerLeftMessage{PlayerID: playerID}
}

// NewUpdate создаёт update; score < 0 означает "без счёта"
func NewUpdate(state entity.Body, score int) *UpdateMessage {
	m := &UpdateMessage{State: state}
	if score >= 0 {
		m.Score = &score
	}
	return m
}

// WithName задаёт имя игрока в таблице рекордов
func (m *UpdateMessage) WithName(name string) *UpdateMessage {
	m.Name = name
	return m
}

func NewGravityPull(active bool) *ActionMessage {
	return &ActionMessage{Action: Action{Type: ActionGravityPull, Active: active}}
}
