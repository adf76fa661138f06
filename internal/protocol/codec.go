package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage пустой кадр
	ErrEmptyMessage = errors.New("protocol: пустое сообщение")
	// ErrUnknownType сообщение с неизвестным полем type; получатель его игнорирует
	ErrUnknownType = errors.New("protocol: неизвестный тип сообщения")
	// ErrMalformed кадр не является корректным JSON-сообщением
	ErrMalformed = errors.New("protocol: некорректное сообщение")
)

// Encode сериализует сообщение в один JSON-объект, проставляя поле type
func Encode(msg Message) ([]byte, error) {
	switch m := msg.(type) {
	case *InitMessage:
		m.Type = TypeInit
	case *GameStateMessage:
		m.Type = TypeGameState
	case *PlayerJoinedMessage:
		m.Type = TypePlayerJoined
	case *PlayerLeftMessage:
		m.Type = TypePlayerLeft
	case *UpdateMessage:
		m.Type = TypeUpdate
	case *ActionMessage:
		m.Type = TypeAction
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, msg)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации %s: %w", msg.MessageType(), err)
	}
	return data, nil
}

// MustEncode как Encode, но паникует при ошибке (для сообщений, собранных в коде)
func MustEncode(msg Message) []byte {
	data, err := Encode(msg)
	if err != nil {
		panic(err)
	}
	return data
}

// Decode разбирает кадр в типизированное сообщение.
// Ошибки: ErrEmptyMessage, ErrMalformed, ErrUnknownType (проверять через errors.Is).
func Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Message
	switch head.Type {
	case TypeInit:
		msg = &InitMessage{}
	case TypeGameState:
		msg = &GameStateMessage{}
	case TypePlayerJoined:
		msg = &PlayerJoinedMessage{}
	case TypePlayerLeft:
		msg = &PlayerLeftMessage{}
	case TypeUpdate:
		msg = &UpdateMessage{}
	case TypeAction:
		msg = &ActionMessage{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	return msg, nil
}
