package network

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/gravity-arena/internal/entity"
	"github.com/annel0/gravity-arena/internal/game"
	"github.com/annel0/gravity-arena/internal/metrics"
	"github.com/annel0/gravity-arena/internal/protocol"
	"github.com/annel0/gravity-arena/internal/storage"
)

type fakeChannel struct {
	sendCh    chan []byte
	recvCh    chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		sendCh: make(chan []byte, 1024),
		recvCh: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeChannel) Send(b []byte) error {
	select {
	case <-f.closed:
		return ErrChannelClosed
	default:
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (f *fakeChannel) Receive(ctx context.Context) ([]byte, error) {
	// Сначала отдаём уже поставленные сообщения, как настоящий канал после закрытия
	select {
	case b := <-f.recvCh:
		return b, nil
	default:
	}
	select {
	case b := <-f.recvCh:
		return b, nil
	case <-f.closed:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeChannel) RemoteAddr() string { return "fake" }

// waitFor ждёт сообщение нужного типа, пропуская остальные
func waitFor(t *testing.T, fc *fakeChannel, msgType string) protocol.Message {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			msg, err := protocol.Decode(b)
			require.NoError(t, err)
			if msg.MessageType() == msgType {
				return msg
			}
		case <-timeout:
			t.Fatalf("не дождались сообщения %s", msgType)
			return nil
		}
	}
}

// countUntilQuiet считает сообщения типа msgType, пока канал не затихнет по этому типу
func countUntilQuiet(fc *fakeChannel, msgType string, quiet time.Duration) int {
	n := 0
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case b := <-fc.sendCh:
			if msg, err := protocol.Decode(b); err == nil && msg.MessageType() == msgType {
				n++
			}
		case <-timer.C:
			return n
		}
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func startHub(t *testing.T, opts HubOptions) (*Hub, context.Context) {
	t.Helper()
	objects := []*entity.Body{
		entity.NewBody(entity.KindPlanet, 100, 0, 30),
		entity.NewBody(entity.KindAsteroid, -200, 50, 3),
	}
	hub := NewHub(game.NewMirror(objects), opts)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub, ctx
}

func connect(t *testing.T, hub *Hub, ctx context.Context) (*fakeChannel, string) {
	t.Helper()
	fc := newFakeChannel()
	go func() { _ = hub.Serve(ctx, fc, "fake") }()
	init := waitFor(t, fc, protocol.TypeInit).(*protocol.InitMessage)
	require.NotEmpty(t, init.PlayerID)
	return fc, init.PlayerID
}

func TestHub_JoinSendsInitAndAnnounces(t *testing.T) {
	hub, ctx := startHub(t, HubOptions{})

	a, idA := connect(t, hub, ctx)
	b, idB := connect(t, hub, ctx)
	assert.NotEqual(t, idA, idB)

	joined := waitFor(t, a, protocol.TypePlayerJoined).(*protocol.PlayerJoinedMessage)
	assert.Equal(t, idB, joined.Player.ID)
	assert.Equal(t, 0, countUntilQuiet(b, protocol.TypePlayerJoined, 100*time.Millisecond),
		"присоединившийся не получает playerJoined о себе")

	state := waitFor(t, a, protocol.TypeGameState).(*protocol.GameStateMessage)
	assert.Len(t, state.State.Players, 2)
	assert.Len(t, state.State.Objects, 2)

	assert.Eventually(t, func() bool { return hub.Stats().Players == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, hub.Stats().Objects)
}

func TestHub_InitCarriesCurrentState(t *testing.T) {
	hub, ctx := startHub(t, HubOptions{})
	_, idA := connect(t, hub, ctx)

	fc := newFakeChannel()
	go func() { _ = hub.Serve(ctx, fc, "fake") }()
	init := waitFor(t, fc, protocol.TypeInit).(*protocol.InitMessage)

	require.Len(t, init.GameState.Players, 2)
	assert.Equal(t, idA, init.GameState.Players[0].ID)
	assert.Equal(t, init.PlayerID, init.GameState.Players[1].ID)
	assert.Len(t, init.GameState.Objects, 2)
}

func TestHub_DisconnectBroadcastsPlayerLeftOnce(t *testing.T) {
	hub, ctx := startHub(t, HubOptions{})

	a, _ := connect(t, hub, ctx)
	b, idB := connect(t, hub, ctx)

	require.NoError(t, b.Close())
	// Повторный Leave для того же игрока игнорируется
	hub.Inbox <- Leave{PlayerID: idB, Reason: ReasonDisconnect}

	left := waitFor(t, a, protocol.TypePlayerLeft).(*protocol.PlayerLeftMessage)
	assert.Equal(t, idB, left.PlayerID)
	assert.Equal(t, 0, countUntilQuiet(a, protocol.TypePlayerLeft, 200*time.Millisecond))

	state := waitFor(t, a, protocol.TypeGameState).(*protocol.GameStateMessage)
	for _, p := range state.State.Players {
		assert.NotEqual(t, idB, p.ID, "отключившийся игрок удалён из состояния")
	}
}

func TestHub_UpdateStoredVerbatimAndMalformedKeepsConnection(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHubMetrics(reg)
	hub, ctx := startHub(t, HubOptions{Metrics: m})
	fc, id := connect(t, hub, ctx)

	fc.recvCh <- []byte(`{"type":"update","state":`)
	fc.recvCh <- []byte(`{"type":"chat","text":"hi"}`)

	body := entity.NewPlayer(500, -20)
	body.ID = "forged-id"
	body.VX = 0
	body.VY = 0
	fc.recvCh <- protocol.MustEncode(protocol.NewUpdate(*body, 120))

	found := false
	deadline := time.Now().Add(2 * time.Second)
	for !found && time.Now().Before(deadline) {
		state := waitFor(t, fc, protocol.TypeGameState).(*protocol.GameStateMessage)
		for _, p := range state.State.Players {
			if p.ID == id && p.X == 500 && p.Y == -20 {
				found = true
			}
		}
	}
	assert.True(t, found, "тело игрока сохранено как прислано, с ID соединения")
	assert.Equal(t, 1.0, counterValue(t, reg, "arena_messages_malformed_total"))
}

func TestHub_RecordsBestScoreOnLeave(t *testing.T) {
	repo := storage.NewMemoryScoreRepo()
	hub, ctx := startHub(t, HubOptions{Scores: repo})
	fc, id := connect(t, hub, ctx)

	body := entity.NewPlayer(0, 0)
	fc.recvCh <- protocol.MustEncode(protocol.NewUpdate(*body, 80))
	fc.recvCh <- protocol.MustEncode(protocol.NewUpdate(*body, 40))
	waitFor(t, fc, protocol.TypeGameState)
	require.NoError(t, fc.Close())

	assert.Eventually(t, func() bool {
		e, err := repo.Best(context.Background(), id)
		return err == nil && e.Score == 80
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RateLimitDropsExcess(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewHubMetrics(reg)
	hub, ctx := startHub(t, HubOptions{Metrics: m, RateLimit: 0.001, RateBurst: 2})
	fc, _ := connect(t, hub, ctx)

	for i := 0; i < 5; i++ {
		fc.recvCh <- protocol.MustEncode(protocol.NewGravityPull(i%2 == 0))
	}

	assert.Eventually(t, func() bool {
		return counterValue(t, reg, "arena_messages_rate_limited_total") == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StalledKCPPeerDoesNotStopBroadcast(t *testing.T) {
	hub, ctx := startHub(t, HubOptions{})
	a, _ := connect(t, hub, ctx)

	// Пир не читает и не пишет: запись висит, пока канал не закроется по таймауту чтения
	serverEnd, peerEnd := net.Pipe()
	t.Cleanup(func() { _ = peerEnd.Close() })
	stalled, err := newKCPChannel(serverEnd, false, 4, kcpTimeouts{
		idle:  500 * time.Millisecond,
		write: time.Minute,
		ping:  time.Hour,
	})
	require.NoError(t, err)
	go func() { _ = hub.Serve(ctx, stalled, TransportKCP) }()

	joined := waitFor(t, a, protocol.TypePlayerJoined).(*protocol.PlayerJoinedMessage)
	assert.Greater(t, countUntilQuiet(a, protocol.TypeGameState, 200*time.Millisecond), 3,
		"остальные продолжают получать gameState")

	left := waitFor(t, a, protocol.TypePlayerLeft).(*protocol.PlayerLeftMessage)
	assert.Equal(t, joined.Player.ID, left.PlayerID, "молчащий пир удалён")
	assert.Eventually(t, func() bool { return hub.Stats().Players == 1 }, time.Second, 10*time.Millisecond)
}

func TestHub_NamedPlayerImprovesSameLeaderboardEntry(t *testing.T) {
	repo := storage.NewMemoryScoreRepo()
	hub, ctx := startHub(t, HubOptions{Scores: repo})
	body := entity.NewPlayer(0, 0)

	play := func(score int) {
		fc, _ := connect(t, hub, ctx)
		fc.recvCh <- protocol.MustEncode(protocol.NewUpdate(*body, score).WithName("ace"))
		waitFor(t, fc, protocol.TypeGameState)
		require.NoError(t, fc.Close())
	}

	play(50)
	assert.Eventually(t, func() bool {
		e, err := repo.Best(context.Background(), "ace")
		return err == nil && e.Score == 50
	}, 2*time.Second, 10*time.Millisecond)

	play(90)
	assert.Eventually(t, func() bool {
		e, err := repo.Best(context.Background(), "ace")
		return err == nil && e.Score == 90
	}, 2*time.Second, 10*time.Millisecond, "новая сессия с тем же именем улучшает рекорд")

	top, err := repo.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}
