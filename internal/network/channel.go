package network

import (
	"context"
	"errors"
)

var (
	// ErrChannelClosed канал закрыт локально или удалённой стороной
	ErrChannelClosed = errors.New("network: канал закрыт")
	// ErrSendQueueFull очередь отправки переполнена; сообщение отброшено
	ErrSendQueueFull = errors.New("network: очередь отправки переполнена")
	// ErrFrameTooLarge кадр превышает MaxFrameSize
	ErrFrameTooLarge = errors.New("network: слишком большой кадр")
)

// MaxFrameSize ограничение размера одного сообщения протокола
const MaxFrameSize = 1 << 20

// Conn то, что хаб использует для отправки клиенту. Send не блокирует:
// при заполненной очереди возвращает ErrSendQueueFull.
type Conn interface {
	Send(data []byte) error
	Close() error
}

// Channel двунаправленный канал сообщений: один кадр = одно JSON-сообщение.
type Channel interface {
	Conn
	Receive(ctx context.Context) ([]byte, error)
	RemoteAddr() string
}

// Транспорты, для логов и событий
const (
	TransportWebSocket = "websocket"
	TransportKCP       = "kcp"
)
