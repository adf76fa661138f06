package network

import "github.com/annel0/gravity-arena/internal/protocol"

// Команды актора хаба. Все изменения состояния проходят через Hub.Inbox.

// Join подключение нового клиента; ответ приходит в Reply.
type Join struct {
	Conn       Conn
	RemoteAddr string
	Transport  string
	Reply      chan<- JoinResult
}

// JoinResult назначенный сервером ID игрока.
type JoinResult struct {
	PlayerID string
}

// Incoming разобранное сообщение клиента.
type Incoming struct {
	PlayerID string
	Msg      protocol.Message
}

// Leave отключение клиента. Повторный Leave для того же игрока игнорируется.
type Leave struct {
	PlayerID string
	Reason   string
}

// Причины отключения
const (
	ReasonDisconnect = "disconnect"
	ReasonSendFailed = "send failed"
	ReasonShutdown   = "shutdown"
)
