package network

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/annel0/gravity-arena/internal/logging"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 25 * time.Second
)

// WSChannel реализует Channel поверх WebSocket (текстовые кадры).
// Запись выполняет одна горутина writePump; Send только ставит кадр в очередь.
type WSChannel struct {
	conn     *websocket.Conn
	addr     string
	outbound chan []byte
	inbound  chan []byte

	closeOnce sync.Once
	closed    chan struct{}

	errMu   sync.Mutex
	readErr error
}

// NewWSChannel запускает горутины чтения и записи для установленного соединения.
func NewWSChannel(conn *websocket.Conn, queueSize int) *WSChannel {
	if queueSize <= 0 {
		queueSize = 256
	}
	ch := &WSChannel{
		conn:     conn,
		addr:     conn.RemoteAddr().String(),
		outbound: make(chan []byte, queueSize),
		inbound:  make(chan []byte, queueSize),
		closed:   make(chan struct{}),
	}

	conn.SetReadLimit(MaxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	go ch.readPump()
	go ch.writePump()
	return ch
}

// DialWS подключается к серверу по WebSocket.
func DialWS(ctx context.Context, url string, queueSize int) (*WSChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return NewWSChannel(conn, queueSize), nil
}

func (c *WSChannel) Send(data []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}
	select {
	case c.outbound <- data:
		return nil
	case <-c.closed:
		return ErrChannelClosed
	default:
		return ErrSendQueueFull
	}
}

func (c *WSChannel) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		// Отдаём то, что успело прийти до закрытия
		select {
		case data := <-c.inbound:
			return data, nil
		default:
		}
		c.errMu.Lock()
		readErr := c.readErr
		c.errMu.Unlock()
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrChannelClosed, readErr)
		}
		return nil, ErrChannelClosed
	}
}

// Close останавливает канал; writePump отправляет close-кадр и закрывает соединение.
func (c *WSChannel) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *WSChannel) RemoteAddr() string { return c.addr }

func (c *WSChannel) readPump() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			_ = c.Close()
			return
		}
		select {
		case c.inbound <- data:
		case <-c.closed:
			return
		}
	}
}

func (c *WSChannel) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case data := <-c.outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// WSHandler HTTP-обработчик /ws: апгрейд соединения и передача его хабу.
func WSHandler(hub *Hub, queueSize int) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// Клиенты подключаются с любых origin; CORS проверяет REST API
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	logger := logging.GetNetworkLogger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("❌ WebSocket upgrade %s: %v", r.RemoteAddr, err)
			return
		}
		ch := NewWSChannel(conn, queueSize)
		if err := hub.Serve(r.Context(), ch, TransportWebSocket); err != nil {
			logger.Debug("WebSocket %s завершён: %v", ch.RemoteAddr(), err)
		}
	})
}
