package eventbus

import (
	"context"

	"github.com/annel0/gravity-arena/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог.
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	logger := logging.GetComponentLogger(logging.ComponentEventBus)
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		switch ev.EventType {
		case TypeScoreRecorded:
			if p, err := DecodePayload[ScoreRecorded](ev); err == nil {
				logger.Info("🏆 Рекорд %s: %d", p.PlayerID, p.Score)
				return
			}
		case TypePlayerLeft:
			if p, err := DecodePayload[PlayerLeft](ev); err == nil {
				logger.Info("👋 Игрок %s вышел (%s), масса %.1f", p.PlayerID, p.Reason, p.Mass)
				return
			}
		}
		logger.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
