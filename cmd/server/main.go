package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/annel0/gravity-arena/internal/api"
	"github.com/annel0/gravity-arena/internal/config"
	"github.com/annel0/gravity-arena/internal/eventbus"
	"github.com/annel0/gravity-arena/internal/game"
	"github.com/annel0/gravity-arena/internal/logging"
	"github.com/annel0/gravity-arena/internal/metrics"
	"github.com/annel0/gravity-arena/internal/network"
	"github.com/annel0/gravity-arena/internal/observability"
	"github.com/annel0/gravity-arena/internal/storage"
	"github.com/annel0/gravity-arena/internal/vec"
	"github.com/annel0/gravity-arena/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию GAME_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	logging.SetConsoleLevel(logging.ParseLevel(cfg.Logging.Level))
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	if err := logging.GetLoggerManager().Configure(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ Ошибка настройки логгеров: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск gravity-arena сервера...")

	// === НАБЛЮДАЕМОСТЬ ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	reg := prometheus.DefaultRegisterer

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		js, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, time.Duration(cfg.EventBus.Retention)*time.Hour)
		if err != nil {
			return fmt.Errorf("шина событий: %w", err)
		}
		bus = js
		logging.Info("📨 JetStream шина: %s (stream %s)", cfg.EventBus.URL, cfg.EventBus.Stream)
	} else {
		bus = eventbus.NewMemoryBus(1024)
		logging.Info("📨 Шина событий в памяти")
	}
	defer bus.Close()

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("слушатель событий: %w", err)
	}
	busMetrics := eventbus.NewMetricsExporter(bus, reg)
	busMetrics.Start()
	defer busMetrics.Stop()

	// === ХРАНИЛИЩЕ РЕКОРДОВ ===
	scores, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("хранилище рекордов: %w", err)
	}
	defer scores.Close()
	logging.Info("🗄️ Хранилище рекордов: %s", cfg.Storage.Backend)

	// === РАЗДЕЛЯЕМЫЙ МИР ===
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	manager := world.NewManager(rand.New(rand.NewSource(seed)), seed)
	mirror := game.NewMirror(manager.SeedShared(vec.Vec2{}, cfg.Simulation.SharedObjects))

	hub := network.NewHub(mirror, network.HubOptions{
		TickInterval: cfg.Server.TickInterval(),
		RateLimit:    rate.Limit(cfg.Sync.RateLimitPerSec),
		RateBurst:    cfg.Sync.RateLimitBurst,
		Scores:       scores,
		Bus:          bus,
		Metrics:      metrics.NewHubMetrics(reg),
	})
	go hub.Run(ctx)

	// === ТРАНСПОРТЫ ===
	errCh := make(chan error, 3)

	wsMux := http.NewServeMux()
	wsMux.Handle("/ws", network.WSHandler(hub, cfg.Sync.OutboundQueueSize))
	wsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetWSPort()),
		Handler:           wsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("websocket сервер: %w", err)
		}
	}()

	if cfg.Server.EnableKCP {
		kcpServer, err := network.ListenKCP(fmt.Sprintf(":%d", cfg.Server.GetKCPPort()), hub, cfg.Server.Compression, cfg.Sync.OutboundQueueSize)
		if err != nil {
			return err
		}
		go func() {
			if err := kcpServer.Serve(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	// === REST API ===
	restAPI := api.NewServer(api.Config{
		CORSOrigin: cfg.Server.CORSOrigin,
		Hub:        hub,
		Scores:     scores,
		Registerer: reg,
		Gatherer:   prometheus.DefaultGatherer,
	})
	restServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Handler:           restAPI.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("REST API: %w", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🎮 WebSocket: ws://localhost:%d/ws", cfg.Server.GetWSPort())
	if cfg.Server.EnableKCP {
		logging.Info("   🎮 KCP: :%d (zstd=%v)", cfg.Server.GetKCPPort(), cfg.Server.Compression)
	}
	logging.Info("   🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
	logging.Info("   🌌 Общих объектов: %d, seed %d", mirror.ObjectCount(), seed)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, остановка...")
	case runErr = <-errCh:
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки WebSocket сервера: %v", err)
	}
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	<-hub.Done()
	return runErr
}
