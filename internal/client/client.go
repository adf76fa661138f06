package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/game"
	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/network"
	"github.com/annel0/gravity-arena/internal/protocol"
)

// Dialer устанавливает соединение с сервером синхронизации.
type Dialer interface {
	Dial(ctx context.Context) (network.Channel, error)
}

// DialerFunc адаптер функции к Dialer.
type DialerFunc func(ctx context.Context) (network.Channel, error)

func (f DialerFunc) Dial(ctx context.Context) (network.Channel, error) { return f(ctx) }

// InputFunc источник ввода на каждый тик (клавиатура, автопилот, тест).
type InputFunc func(s *game.Session) game.Input

// Options настройки клиента. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	TickInterval      time.Duration
	UpdateEveryTicks  int
	ReconnectInterval time.Duration
	InboxSize         int
	Name              string // имя в таблице рекордов; пусто: ID соединения
}

// Client локальная симуляция, синхронизируемая с сервером.
// Run крутит сессию в одной горутине; входящие сообщения приходят через inbox
// и применяются между тиками. Потеря связи не останавливает симуляцию.
type Client struct {
	session *game.Session
	dialer  Dialer
	input   InputFunc
	opts    Options
	logger  *logging.Logger

	inbox chan protocol.Message

	chMu sync.RWMutex
	ch   network.Channel

	remoteMu sync.RWMutex
	remote   map[string]entity.Body
	order    []string
	objects  []entity.Body

	lastPull bool
	playerID string
	dials    atomic.Int64
}

func New(session *game.Session, dialer Dialer, input InputFunc, opts Options) *Client {
	if opts.TickInterval <= 0 {
		opts.TickInterval = network.BaseTickInterval
	}
	if opts.UpdateEveryTicks <= 0 {
		opts.UpdateEveryTicks = 2
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 3 * time.Second
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if input == nil {
		input = func(*game.Session) game.Input { return game.Input{} }
	}
	return &Client{
		session: session,
		dialer:  dialer,
		input:   input,
		opts:    opts,
		logger:  logging.GetSyncLogger(),
		inbox:   make(chan protocol.Message, opts.InboxSize),
		remote:  make(map[string]entity.Body),
	}
}

// Run симулирует до отмены ctx или завершения сессии. Возвращает итог сессии,
// если она завершилась.
func (c *Client) Run(ctx context.Context) (game.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.dialer != nil {
		go c.connectLoop(ctx)
	}

	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.closeChannel()
			return game.Summary{}, ctx.Err()
		case <-ticker.C:
			c.drainInbox()

			in := c.input(c.session)
			report := c.session.Step(in)

			if in.Pull != c.lastPull {
				c.lastPull = in.Pull
				c.send(protocol.NewGravityPull(in.Pull))
			}
			if report.Ended || c.session.Tick()%uint64(c.opts.UpdateEveryTicks) == 0 {
				c.send(protocol.NewUpdate(*c.session.Player(), c.session.Score()).WithName(c.opts.Name))
			}

			if summary, ended := c.session.Summary(); ended {
				c.closeChannel()
				return summary, nil
			}
		}
	}
}

// PlayerID идентификатор, назначенный сервером (пусто до init)
func (c *Client) PlayerID() string {
	c.remoteMu.RLock()
	defer c.remoteMu.RUnlock()
	return c.playerID
}

// RemotePlayers тела других игроков для отображения (в порядке подключения)
func (c *Client) RemotePlayers() []entity.Body {
	c.remoteMu.RLock()
	defer c.remoteMu.RUnlock()
	out := make([]entity.Body, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.remote[id])
	}
	return out
}

// SharedObjects общие объекты сервера для отображения
func (c *Client) SharedObjects() []entity.Body {
	c.remoteMu.RLock()
	defer c.remoteMu.RUnlock()
	return append([]entity.Body(nil), c.objects...)
}

// Dials число попыток подключения
func (c *Client) Dials() int64 { return c.dials.Load() }

// Connected есть ли сейчас соединение с сервером
func (c *Client) Connected() bool {
	c.chMu.RLock()
	defer c.chMu.RUnlock()
	return c.ch != nil
}

func (c *Client) drainInbox() {
	for {
		select {
		case msg := <-c.inbox:
			c.apply(msg)
		default:
			return
		}
	}
}

func (c *Client) apply(msg protocol.Message) {
	c.remoteMu.Lock()
	defer c.remoteMu.Unlock()

	switch m := msg.(type) {
	case *protocol.InitMessage:
		c.playerID = m.PlayerID
		c.session.SetPlayerID(m.PlayerID)
		c.replacePlayers(m.GameState.Players)
		c.objects = m.GameState.Objects
		c.logger.Info("🔗 Получен ID игрока %s, игроков на сервере %d", m.PlayerID, len(m.GameState.Players))
	case *protocol.GameStateMessage:
		c.replacePlayers(m.State.Players)
		c.objects = m.State.Objects
	case *protocol.PlayerJoinedMessage:
		if m.Player.ID == c.playerID {
			return
		}
		if _, ok := c.remote[m.Player.ID]; !ok {
			c.order = append(c.order, m.Player.ID)
		}
		c.remote[m.Player.ID] = m.Player
	case *protocol.PlayerLeftMessage:
		if _, ok := c.remote[m.PlayerID]; !ok {
			return
		}
		delete(c.remote, m.PlayerID)
		for i, id := range c.order {
			if id == m.PlayerID {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// replacePlayers заменяет удалённых игроков снимком, исключая локального
func (c *Client) replacePlayers(players []entity.Body) {
	c.remote = make(map[string]entity.Body, len(players))
	c.order = c.order[:0]
	for _, p := range players {
		if p.ID == c.playerID {
			continue
		}
		c.remote[p.ID] = p
		c.order = append(c.order, p.ID)
	}
}

func (c *Client) send(msg protocol.Message) {
	c.chMu.RLock()
	ch := c.ch
	c.chMu.RUnlock()
	if ch == nil {
		return
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		c.logger.Error("❌ Ошибка сериализации %s: %v", msg.MessageType(), err)
		return
	}
	if err := ch.Send(data); err != nil {
		if errors.Is(err, network.ErrSendQueueFull) {
			c.logger.Debug("Очередь отправки переполнена, %s отброшено", msg.MessageType())
			return
		}
		c.logger.Warn("⚠️ Отправка %s: %v", msg.MessageType(), err)
		_ = ch.Close()
	}
}

func (c *Client) closeChannel() {
	c.chMu.Lock()
	defer c.chMu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
}

// connectLoop держит соединение: подключается с постоянной паузой между
// попытками и читает сообщения, пока соединение живо.
func (c *Client) connectLoop(ctx context.Context) {
	for ctx.Err() == nil {
		var ch network.Channel
		operation := func() error {
			c.dials.Add(1)
			var err error
			ch, err = c.dialer.Dial(ctx)
			return err
		}
		notify := func(err error, wait time.Duration) {
			c.logger.Warn("⚠️ Нет связи с сервером: %v; повтор через %v", err, wait)
		}

		policy := backoff.WithContext(backoff.NewConstantBackOff(c.opts.ReconnectInterval), ctx)
		if err := backoff.RetryNotify(operation, policy, notify); err != nil {
			return
		}

		c.chMu.Lock()
		c.ch = ch
		c.chMu.Unlock()
		c.logger.Info("✅ Подключено к серверу %s", ch.RemoteAddr())

		c.readLoop(ctx, ch)

		c.chMu.Lock()
		if c.ch == ch {
			c.ch = nil
		}
		c.chMu.Unlock()
		_ = ch.Close()

		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("🔌 Соединение потеряно, продолжаем офлайн")

		// Пауза перед повторным подключением
		select {
		case <-time.After(c.opts.ReconnectInterval):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context, ch network.Channel) {
	for {
		data, err := ch.Receive(ctx)
		if err != nil {
			return
		}
		msg, err := protocol.Decode(data)
		switch {
		case err == nil:
		case errors.Is(err, protocol.ErrUnknownType):
			continue
		default:
			logging.LogProtocolError(c.logger, ch.RemoteAddr(), err, data)
			continue
		}
		select {
		case c.inbox <- msg:
		case <-ctx.Done():
			return
		}
	}
}
