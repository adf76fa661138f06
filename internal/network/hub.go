package network

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/annel0/gravity-arena/internal/eventbus"
	"github.com/annel0/gravity-arena/internal/game"
	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/metrics"
	"github.com/annel0/gravity-arena/internal/protocol"
	"github.com/annel0/gravity-arena/internal/storage"
)

// BaseTickInterval длительность одного тика симуляции (60 Гц); дрейф зеркала
// считается в этих тиках независимо от частоты рассылки.
const BaseTickInterval = time.Second / 60

// HubOptions зависимости и настройки хаба. Нулевые значения допустимы.
type HubOptions struct {
	TickInterval time.Duration
	RateLimit    rate.Limit // сообщений в секунду на соединение
	RateBurst    int
	Source       string // имя узла в событиях шины

	Scores  storage.ScoreRepo
	Bus     eventbus.EventBus
	Metrics *metrics.HubMetrics
}

// HubStats текущая загрузка хаба (читается без обращения к актору).
type HubStats struct {
	Players int
	Objects int
}

type hubClient struct {
	conn      Conn
	addr      string
	transport string
}

// Hub актор разделяемого состояния: владеет game.Mirror, рассылает
// gameState каждый тик и обрабатывает команды из Inbox.
type Hub struct {
	Inbox chan any

	mirror  *game.Mirror
	clients map[string]*hubClient
	opts    HubOptions
	logger  *logging.Logger

	lastTick time.Time
	players  atomic.Int64
	objects  atomic.Int64
	done     chan struct{}
}

func NewHub(mirror *game.Mirror, opts HubOptions) *Hub {
	if opts.TickInterval <= 0 {
		opts.TickInterval = BaseTickInterval
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 240
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 480
	}
	if opts.Source == "" {
		opts.Source = "arena-server"
	}
	h := &Hub{
		Inbox:   make(chan any, 256),
		mirror:  mirror,
		clients: make(map[string]*hubClient),
		opts:    opts,
		logger:  logging.GetNetworkLogger(),
		done:    make(chan struct{}),
	}
	h.objects.Store(int64(mirror.ObjectCount()))
	return h
}

// Run цикл актора; возвращается при отмене ctx, закрывая все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.opts.TickInterval)
	defer ticker.Stop()
	h.lastTick = time.Now()

	h.logger.Info("🌌 Хаб запущен: тик %v, общих объектов %d", h.opts.TickInterval, h.mirror.ObjectCount())
	for {
		select {
		case <-ctx.Done():
			for id := range h.clients {
				h.leave(id, ReasonShutdown)
			}
			h.logger.Info("🛑 Хаб остановлен")
			return
		case cmd := <-h.Inbox:
			h.handleCommand(cmd)
		case now := <-ticker.C:
			h.tick(now)
		}
	}
}

// Done закрывается после завершения Run.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Stats возвращает число игроков и общих объектов.
func (h *Hub) Stats() HubStats {
	return HubStats{Players: int(h.players.Load()), Objects: int(h.objects.Load())}
}

func (h *Hub) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		h.join(c)
	case Incoming:
		h.handleIncoming(c)
	case Leave:
		h.leave(c.PlayerID, c.Reason)
	default:
		h.logger.Warn("Неизвестная команда хаба: %T", cmd)
	}
}

func (h *Hub) join(c Join) {
	id := uuid.NewString()
	body := h.mirror.AddPlayer(id)
	h.clients[id] = &hubClient{conn: c.Conn, addr: c.RemoteAddr, transport: c.Transport}

	players, objects := h.mirror.Snapshot()
	h.sendTo(id, protocol.NewInit(id, players, objects))
	if _, ok := h.clients[id]; !ok {
		// init не доставлен, игрок уже отключён
		if c.Reply != nil {
			c.Reply <- JoinResult{PlayerID: id}
		}
		return
	}
	h.broadcast(protocol.NewPlayerJoined(*body), id)
	h.updatePopulation()

	h.logger.Info("✅ Игрок %s подключился (%s, %s), всего %d", id, c.Transport, c.RemoteAddr, h.mirror.PlayerCount())
	h.publish(eventbus.TypePlayerJoined, id, 1, eventbus.PlayerJoined{
		PlayerID:   id,
		RemoteAddr: c.RemoteAddr,
		Transport:  c.Transport,
	})

	if c.Reply != nil {
		c.Reply <- JoinResult{PlayerID: id}
	}
}

func (h *Hub) handleIncoming(c Incoming) {
	if _, ok := h.clients[c.PlayerID]; !ok {
		return
	}
	switch m := c.Msg.(type) {
	case *protocol.UpdateMessage:
		h.mirror.UpdatePlayer(c.PlayerID, m.State)
		if m.Name != "" {
			h.mirror.SetName(c.PlayerID, m.Name)
		}
		if m.Score != nil {
			h.mirror.ReportScore(c.PlayerID, *m.Score)
		}
	case *protocol.ActionMessage:
		if m.Action.Type == protocol.ActionGravityPull {
			h.mirror.SetPull(c.PlayerID, m.Action.Active)
		}
	default:
		// Серверные типы от клиента игнорируются
	}
}

func (h *Hub) leave(id, reason string) {
	cl, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	_ = cl.conn.Close()

	best, hasScore := h.mirror.BestScore(id)
	key := h.mirror.ScoreKey(id)
	body, _ := h.mirror.RemovePlayer(id)
	mass := 0.0
	if body != nil {
		mass = body.Mass
	}

	h.broadcast(protocol.NewPlayerLeft(id), "")
	h.updatePopulation()

	h.logger.Info("👋 Игрок %s отключился (%s, %s %s), осталось %d", id, reason, cl.transport, cl.addr, h.mirror.PlayerCount())
	h.publish(eventbus.TypePlayerLeft, id, 1, eventbus.PlayerLeft{PlayerID: id, Mass: mass, Reason: reason})

	if hasScore && best > 0 {
		h.recordScore(storage.ScoreEntry{PlayerID: key, Score: best, Mass: mass})
	}
}

func (h *Hub) tick(now time.Time) {
	elapsed := now.Sub(h.lastTick)
	h.lastTick = now
	dtTicks := float64(elapsed) / float64(BaseTickInterval)

	h.mirror.Drift(dtTicks)
	if len(h.clients) > 0 {
		players, objects := h.mirror.Snapshot()
		h.broadcast(protocol.NewGameState(players, objects), "")
	}
	h.opts.Metrics.ObserveTick(now)
}

// sendTo отправляет сообщение одному клиенту. Закрытый канал приводит к отключению.
func (h *Hub) sendTo(id string, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("❌ Ошибка сериализации %s: %v", msg.MessageType(), err)
		return
	}
	if cl, ok := h.clients[id]; ok {
		if h.deliver(id, cl, data) {
			h.opts.Metrics.Outbound(msg.MessageType(), 1)
		}
	}
}

// broadcast рассылает сообщение всем, кроме except
func (h *Hub) broadcast(msg protocol.Message, except string) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.logger.Error("❌ Ошибка сериализации %s: %v", msg.MessageType(), err)
		return
	}

	sent := 0
	var failed []string
	for id, cl := range h.clients {
		if id == except {
			continue
		}
		if err := cl.conn.Send(data); err != nil {
			if errors.Is(err, ErrSendQueueFull) {
				h.opts.Metrics.SendDropped()
				continue
			}
			failed = append(failed, id)
			continue
		}
		sent++
	}
	h.opts.Metrics.Outbound(msg.MessageType(), sent)

	for _, id := range failed {
		h.leave(id, ReasonSendFailed)
	}
}

func (h *Hub) deliver(id string, cl *hubClient, data []byte) bool {
	err := cl.conn.Send(data)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrSendQueueFull):
		h.opts.Metrics.SendDropped()
	default:
		h.leave(id, ReasonSendFailed)
	}
	return false
}

func (h *Hub) updatePopulation() {
	h.players.Store(int64(h.mirror.PlayerCount()))
	h.objects.Store(int64(h.mirror.ObjectCount()))
	h.opts.Metrics.SetPopulation(h.mirror.PlayerCount(), h.mirror.ObjectCount())
}

// publish отправляет событие в шину вне актора: JetStream публикует синхронно
func (h *Hub) publish(eventType, playerID string, priority int, payload any) {
	if h.opts.Bus == nil {
		return
	}
	bus, source := h.opts.Bus, h.opts.Source
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := eventbus.PublishEvent(ctx, bus, source, eventType, playerID, priority, payload); err != nil {
			h.logger.Warn("⚠️ Событие %s не опубликовано: %v", eventType, err)
		}
	}()
}

func (h *Hub) recordScore(e storage.ScoreEntry) {
	if h.opts.Scores == nil {
		return
	}
	repo := h.opts.Scores
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		updated, err := repo.Record(ctx, e)
		if err != nil {
			h.logger.Error("❌ Не удалось сохранить рекорд %s: %v", e.PlayerID, err)
			return
		}
		if updated {
			h.logger.Info("🏆 Новый рекорд %s: %d", e.PlayerID, e.Score)
			h.publish(eventbus.TypeScoreRecorded, e.PlayerID, 5, eventbus.ScoreRecorded{PlayerID: e.PlayerID, Score: e.Score})
		}
	}()
}

// Serve обслуживает соединение до его закрытия: регистрирует игрока,
// применяет ограничение частоты, разбирает сообщения и передаёт их актору.
func (h *Hub) Serve(ctx context.Context, ch Channel, transport string) error {
	reply := make(chan JoinResult, 1)
	if !h.submit(ctx, Join{Conn: ch, RemoteAddr: ch.RemoteAddr(), Transport: transport, Reply: reply}) {
		_ = ch.Close()
		return fmt.Errorf("хаб недоступен: %w", ErrChannelClosed)
	}

	var id string
	select {
	case res := <-reply:
		id = res.PlayerID
	case <-ctx.Done():
		_ = ch.Close()
		return ctx.Err()
	case <-h.done:
		_ = ch.Close()
		return ErrChannelClosed
	}

	limiter := rate.NewLimiter(h.opts.RateLimit, h.opts.RateBurst)
	var limited uint64

	for {
		data, err := ch.Receive(ctx)
		if err != nil {
			h.submit(context.Background(), Leave{PlayerID: id, Reason: ReasonDisconnect})
			if errors.Is(err, ErrChannelClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if !limiter.Allow() {
			limited++
			h.opts.Metrics.RateLimited()
			if limited == 1 || limited%100 == 0 {
				h.logger.Warn("⚠️ %s превышает лимит сообщений (отброшено %d)", id, limited)
			}
			continue
		}

		msg, err := protocol.Decode(data)
		switch {
		case err == nil:
			h.opts.Metrics.Inbound(msg.MessageType())
			h.submit(ctx, Incoming{PlayerID: id, Msg: msg})
		case errors.Is(err, protocol.ErrUnknownType):
			h.logger.Debug("Неизвестный тип сообщения от %s", id)
		default:
			h.opts.Metrics.Malformed()
			logging.LogProtocolError(h.logger, id, err, data)
		}
	}
}

// submit ставит команду в Inbox; false, если хаб уже остановлен или ctx отменён
func (h *Hub) submit(ctx context.Context, cmd any) bool {
	select {
	case h.Inbox <- cmd:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}
