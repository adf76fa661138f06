package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrBusClosed публикация или подписка после Close
var ErrBusClosed = errors.New("eventbus: шина закрыта")

// Типы игровых событий
const (
	TypePlayerJoined  = "PlayerJoined"
	TypePlayerLeft    = "PlayerLeft"
	TypeScoreRecorded = "ScoreRecorded"
)

// PlayerJoined игрок подключился к разделяемому миру
type PlayerJoined struct {
	PlayerID   string `json:"playerId"`
	RemoteAddr string `json:"remoteAddr"`
	Transport  string `json:"transport"`
}

// PlayerLeft игрок отключился
type PlayerLeft struct {
	PlayerID string  `json:"playerId"`
	Mass     float64 `json:"mass"`
	Reason   string  `json:"reason"`
}

// ScoreRecorded лучший счёт игрока сохранён в таблице рекордов
type ScoreRecorded struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

// NewEnvelope упаковывает полезную нагрузку в JSON-конверт с новым UUID
func NewEnvelope(source, eventType, correlationID string, priority int, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("eventbus: сериализация %s: %w", eventType, err)
	}
	return &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        source,
		EventType:     eventType,
		Version:       1,
		CorrelationID: correlationID,
		Priority:      priority,
		Payload:       data,
	}, nil
}

// DecodePayload разбирает полезную нагрузку конверта
func DecodePayload[T any](ev *Envelope) (T, error) {
	var v T
	if err := json.Unmarshal(ev.Payload, &v); err != nil {
		return v, fmt.Errorf("eventbus: разбор %s: %w", ev.EventType, err)
	}
	return v, nil
}

// PublishEvent собирает конверт и публикует его; bus == nil допустим
func PublishEvent(ctx context.Context, bus EventBus, source, eventType, correlationID string, priority int, payload any) error {
	if bus == nil {
		return nil
	}
	ev, err := NewEnvelope(source, eventType, correlationID, priority, payload)
	if err != nil {
		return err
	}
	return bus.Publish(ctx, ev)
}
