package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/gravity-arena/internal/client"
	"github.com/annel0/gravity-arena/internal/config"
	"github.com/annel0/gravity-arena/internal/game"
	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/network"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию GAME_CONFIG)")
	url := flag.String("url", "", "адрес WebSocket сервера (по умолчанию из конфигурации)")
	kcpAddr := flag.String("kcp", "", "адрес KCP сервера host:port; если задан, используется вместо WebSocket")
	seed := flag.Int64("seed", 0, "seed локального мира (0 — от времени)")
	name := flag.String("name", "", "имя в таблице рекордов (по умолчанию из конфигурации)")
	duration := flag.Duration("duration", 0, "ограничение времени игры (0 — до конца сессии)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	logging.SetConsoleLevel(logging.ParseLevel(cfg.Logging.Level))
	if err := logging.InitDefaultLogger("bot"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	if err := logging.GetLoggerManager().Configure(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ Ошибка настройки логгеров: %v", err)
	}
	defer logging.CloseDefaultLogger()

	serverURL := cfg.Sync.ServerURL
	if *url != "" {
		serverURL = *url
	}
	playerName := cfg.Sync.PlayerName
	if *name != "" {
		playerName = *name
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	var dialer client.Dialer
	if *kcpAddr != "" {
		dialer = client.DialerFunc(func(ctx context.Context) (network.Channel, error) {
			return network.DialKCP(*kcpAddr, cfg.Server.Compression, cfg.Sync.OutboundQueueSize)
		})
		logging.Info("🤖 Бот подключается по KCP к %s", *kcpAddr)
	} else {
		dialer = client.DialerFunc(func(ctx context.Context) (network.Channel, error) {
			return network.DialWS(ctx, serverURL, cfg.Sync.OutboundQueueSize)
		})
		logging.Info("🤖 Бот подключается по WebSocket к %s", serverURL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	c := client.New(game.NewSession(*seed), dialer, client.Autopilot(), client.Options{
		UpdateEveryTicks:  cfg.Sync.UpdateEveryTicks,
		ReconnectInterval: cfg.Sync.ReconnectInterval(),
		InboxSize:         cfg.Sync.OutboundQueueSize,
		Name:              playerName,
	})

	summary, err := c.Run(ctx)
	if err != nil {
		logging.Info("⏹️ Бот остановлен: %v", err)
		return
	}
	logging.Info("🏁 Итог: счёт %d, масса %.1f, энергия %.1f/%.0f, тиков %d (%s)",
		summary.Score, summary.Mass, summary.Energy, summary.MaxEnergy, summary.Ticks, summary.Reason)
}
