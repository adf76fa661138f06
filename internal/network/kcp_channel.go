package network

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/gravity-arena/internal/logging"
)

const (
	kcpIdleTimeout  = 30 * time.Second
	kcpWriteTimeout = 10 * time.Second
	kcpPingInterval = 10 * time.Second
)

// kcpTimeouts таймауты канала; в тестах укорачиваются
type kcpTimeouts struct {
	idle  time.Duration // без входящих кадров дольше idle канал закрывается
	write time.Duration
	ping  time.Duration // пустой кадр-keepalive, если исходящих не было
}

// KCPChannel реализует Channel поверх потокового соединения (KCP-сессия):
// кадр = 4 байта длины (big-endian) + полезная нагрузка, при включённом
// сжатии полезная нагрузка сжата zstd. Обе стороны должны совпадать по настройке сжатия.
// Кадр нулевой длины служит keepalive и наружу не отдаётся.
// Запись выполняет одна горутина writeLoop; Send только ставит кадр в очередь.
type KCPChannel struct {
	conn     net.Conn
	addr     string
	reader   *bufio.Reader
	inbound  chan []byte
	outbound chan []byte
	timeouts kcpTimeouts

	compressor   *zstd.Encoder
	decompressor *zstd.Decoder

	closeOnce sync.Once
	closed    chan struct{}

	errMu   sync.Mutex
	readErr error
}

// NewKCPChannel оборачивает соединение; compress включает zstd.
func NewKCPChannel(conn net.Conn, compress bool, queueSize int) (*KCPChannel, error) {
	return newKCPChannel(conn, compress, queueSize, kcpTimeouts{
		idle:  kcpIdleTimeout,
		write: kcpWriteTimeout,
		ping:  kcpPingInterval,
	})
}

func newKCPChannel(conn net.Conn, compress bool, queueSize int, timeouts kcpTimeouts) (*KCPChannel, error) {
	if queueSize <= 0 {
		queueSize = 256
	}
	ch := &KCPChannel{
		conn:     conn,
		addr:     conn.RemoteAddr().String(),
		reader:   bufio.NewReader(conn),
		inbound:  make(chan []byte, queueSize),
		outbound: make(chan []byte, queueSize),
		timeouts: timeouts,
		closed:   make(chan struct{}),
	}

	if compress {
		var err error
		ch.compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		ch.decompressor, err = zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
	}

	go ch.readLoop()
	go ch.writeLoop()
	return ch, nil
}

// tuneSession настраивает KCP для игрового трафика
func tuneSession(s *kcp.UDPSession) {
	s.SetStreamMode(true)
	s.SetWriteDelay(false)
	s.SetNoDelay(1, 20, 2, 1) // Агрессивные настройки для игр
	s.SetWindowSize(512, 512) // Увеличиваем окно для пропускной способности
	s.SetMtu(1400)            // Стандартный MTU для интернета
}

// DialKCP подключается к KCP-серверу.
func DialKCP(addr string, compress bool, queueSize int) (*KCPChannel, error) {
	sess, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	tuneSession(sess)
	ch, err := NewKCPChannel(sess, compress, queueSize)
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	return ch, nil
}

func (c *KCPChannel) Send(data []byte) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	frame, err := c.encodeFrame(data)
	if err != nil {
		return err
	}

	select {
	case c.outbound <- frame:
		return nil
	case <-c.closed:
		return ErrChannelClosed
	default:
		return ErrSendQueueFull
	}
}

func (c *KCPChannel) Receive(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		select {
		case data := <-c.inbound:
			return data, nil
		default:
		}
		c.errMu.Lock()
		readErr := c.readErr
		c.errMu.Unlock()
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrChannelClosed, readErr)
		}
		return nil, ErrChannelClosed
	}
}

func (c *KCPChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *KCPChannel) RemoteAddr() string { return c.addr }

func (c *KCPChannel) encodeFrame(data []byte) ([]byte, error) {
	payload := data
	if c.compressor != nil {
		payload = c.compressor.EncodeAll(data, nil)
	}
	if len(payload) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	return frame, nil
}

func (c *KCPChannel) readFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.reader, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.reader, payload); err != nil {
		return nil, err
	}
	if length == 0 {
		return payload, nil
	}
	if c.decompressor != nil {
		decompressed, err := c.decompressor.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompression failed: %w", err)
		}
		return decompressed, nil
	}
	return payload, nil
}

func (c *KCPChannel) readLoop() {
	if c.decompressor != nil {
		defer c.decompressor.Close()
	}
	for {
		// UDP не сообщает о разрыве: молчащий пир отваливается по таймауту
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeouts.idle))
		data, err := c.readFrame()
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			_ = c.Close()
			return
		}
		if len(data) == 0 {
			continue
		}
		select {
		case c.inbound <- data:
		case <-c.closed:
			return
		}
	}
}

func (c *KCPChannel) writeLoop() {
	ticker := time.NewTicker(c.timeouts.ping)
	defer ticker.Stop()

	var keepalive [4]byte
	for {
		select {
		case frame := <-c.outbound:
			if !c.write(frame) {
				return
			}
			ticker.Reset(c.timeouts.ping)
		case <-ticker.C:
			if !c.write(keepalive[:]) {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *KCPChannel) write(frame []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeouts.write))
	if _, err := c.conn.Write(frame); err != nil {
		c.errMu.Lock()
		if c.readErr == nil {
			c.readErr = err
		}
		c.errMu.Unlock()
		_ = c.Close()
		return false
	}
	return true
}

// KCPServer принимает KCP-сессии и передаёт их хабу.
type KCPServer struct {
	listener  *kcp.Listener
	hub       *Hub
	compress  bool
	queueSize int
	logger    *logging.Logger
}

// ListenKCP открывает KCP-листенер на addr (":7777").
func ListenKCP(addr string, hub *Hub, compress bool, queueSize int) (*KCPServer, error) {
	listener, err := kcp.ListenWithOptions(addr, nil, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("kcp listen %s: %w", addr, err)
	}
	return &KCPServer{
		listener:  listener,
		hub:       hub,
		compress:  compress,
		queueSize: queueSize,
		logger:    logging.GetNetworkLogger(),
	}, nil
}

// Addr адрес, на котором слушает сервер.
func (s *KCPServer) Addr() net.Addr { return s.listener.Addr() }

// Serve принимает соединения до отмены ctx или закрытия листенера.
func (s *KCPServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	s.logger.Info("🚀 KCP сервер слушает %s (zstd=%v)", s.listener.Addr(), s.compress)
	for {
		sess, err := s.listener.AcceptKCP()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kcp accept: %w", err)
		}
		tuneSession(sess)

		ch, err := NewKCPChannel(sess, s.compress, s.queueSize)
		if err != nil {
			s.logger.Error("❌ KCP канал %s: %v", sess.RemoteAddr(), err)
			_ = sess.Close()
			continue
		}
		go func() {
			if err := s.hub.Serve(ctx, ch, TransportKCP); err != nil {
				s.logger.Debug("KCP %s завершён: %v", ch.RemoteAddr(), err)
			}
		}()
	}
}
