package network

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeChannels(t *testing.T, compress bool) (*KCPChannel, *KCPChannel) {
	t.Helper()
	return pipeChannelsWith(t, compress, kcpTimeouts{idle: kcpIdleTimeout, write: kcpWriteTimeout, ping: kcpPingInterval})
}

func pipeChannelsWith(t *testing.T, compress bool, timeouts kcpTimeouts) (*KCPChannel, *KCPChannel) {
	t.Helper()
	c1, c2 := net.Pipe()
	a, err := newKCPChannel(c1, compress, 8, timeouts)
	require.NoError(t, err)
	b, err := newKCPChannel(c2, compress, 8, timeouts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

func TestKCPChannel_FramesRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		a, b := pipeChannels(t, compress)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

		big := `{"type":"gameState","state":{"players":[],"objects":[` + strings.Repeat(`{"id":"x"},`, 500) + `{"id":"y"}]}}`
		msgs := []string{`{"type":"update"}`, big, `{}`}
		go func() {
			for _, m := range msgs {
				_ = a.Send([]byte(m))
			}
		}()

		for _, want := range msgs {
			got, err := b.Receive(ctx)
			require.NoError(t, err, "compress=%v", compress)
			assert.Equal(t, want, string(got))
		}
		cancel()
	}
}

func TestKCPChannel_BigEndianLengthPrefix(t *testing.T) {
	c1, c2 := net.Pipe()
	ch, err := NewKCPChannel(c1, false, 8)
	require.NoError(t, err)
	defer ch.Close()

	go func() { _ = ch.Send([]byte("hello")) }()

	header := make([]byte, 4)
	_, err = c2.Read(header)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), binary.BigEndian.Uint32(header))

	payload := make([]byte, 5)
	_, err = c2.Read(payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(payload))
	_ = c2.Close()
}

func TestKCPChannel_RejectsOversizedFrame(t *testing.T) {
	c1, c2 := net.Pipe()
	ch, err := NewKCPChannel(c1, false, 8)
	require.NoError(t, err)

	go func() {
		header := make([]byte, 4)
		binary.BigEndian.PutUint32(header, MaxFrameSize+1)
		_, _ = c2.Write(header)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = ch.Receive(ctx)
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.ErrorIs(t, ch.Send([]byte("x")), ErrChannelClosed)
}

func TestKCPChannel_SendDoesNotBlockOnStalledPeer(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	ch, err := newKCPChannel(c1, false, 2, kcpTimeouts{idle: time.Minute, write: time.Minute, ping: time.Hour})
	require.NoError(t, err)
	defer ch.Close()

	done := make(chan int)
	go func() {
		full := 0
		for i := 0; i < 10; i++ {
			if errors.Is(ch.Send([]byte(`{"type":"gameState"}`)), ErrSendQueueFull) {
				full++
			}
		}
		done <- full
	}()

	select {
	case full := <-done:
		assert.GreaterOrEqual(t, full, 7, "лишние кадры отбрасываются, а не ждут окна")
	case <-time.After(time.Second):
		t.Fatal("Send заблокировался на зависшем пире")
	}
}

func TestKCPChannel_SilentPeerTimesOut(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	ch, err := newKCPChannel(c1, false, 8, kcpTimeouts{idle: 100 * time.Millisecond, write: time.Minute, ping: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = ch.Receive(ctx)
	assert.ErrorIs(t, err, ErrChannelClosed)
	assert.ErrorIs(t, ch.Send([]byte("x")), ErrChannelClosed)
}

func TestKCPChannel_KeepaliveHoldsIdleConnection(t *testing.T) {
	a, b := pipeChannelsWith(t, true, kcpTimeouts{
		idle:  150 * time.Millisecond,
		write: time.Second,
		ping:  30 * time.Millisecond,
	})

	// Дольше idle без полезного трафика: keepalive-кадры держат соединение
	time.Sleep(400 * time.Millisecond)

	require.NoError(t, a.Send([]byte(`{"type":"update"}`)))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"update"}`, string(got), "keepalive не отдаётся получателю")
}
