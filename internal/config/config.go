package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера и бота.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Sync       SyncConfig       `yaml:"sync"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Storage    StorageConfig    `yaml:"storage"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	WSPort      int    `yaml:"ws_port"`
	KCPPort     int    `yaml:"kcp_port"`
	RESTPort    int    `yaml:"rest_port"`
	EnableKCP   bool   `yaml:"enable_kcp"`
	Compression bool   `yaml:"kcp_compression"`
	TickRate    int    `yaml:"tick_rate"`
	CORSOrigin  string `yaml:"cors_origin"`
}

type SimulationConfig struct {
	Seed          int64 `yaml:"seed"`
	SharedObjects int   `yaml:"shared_objects"`
}

type SyncConfig struct {
	ServerURL         string `yaml:"server_url"`
	UpdateEveryTicks  int    `yaml:"update_every_ticks"`
	ReconnectSeconds  int    `yaml:"reconnect_seconds"`
	RateLimitPerSec   int    `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int    `yaml:"rate_limit_burst"`
	OutboundQueueSize int    `yaml:"outbound_queue_size"`
	PlayerName        string `yaml:"player_name"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend"` // memory | redis | badger
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	BadgerPath string `yaml:"badger_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Components уровни по компонентам (network: debug), перекрывают Level
	Components map[string]string `yaml:"components"`
}

// Default возвращает полную конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			TickRate:   60,
			CORSOrigin: "*",
		},
		Simulation: SimulationConfig{
			SharedObjects: 40,
		},
		Sync: SyncConfig{
			ServerURL:         "ws://localhost:8080/ws",
			UpdateEveryTicks:  2,
			ReconnectSeconds:  3,
			RateLimitPerSec:   240,
			RateLimitBurst:    480,
			OutboundQueueSize: 256,
		},
		EventBus: EventBusConfig{
			Stream:    "GAME_EVENTS",
			Retention: 24,
		},
		Storage: StorageConfig{
			Backend:    "memory",
			RedisAddr:  "localhost:6379",
			BadgerPath: "data/scores",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "gravity-arena",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "logs",
		},
	}
}

// GetWSPort возвращает порт WebSocket с поддержкой fallback значений
func (s *ServerConfig) GetWSPort() int {
	return getPortWithEnvFallback(s.WSPort, "GAME_WS_PORT", 8080)
}

// GetKCPPort возвращает порт KCP с поддержкой fallback значений
func (s *ServerConfig) GetKCPPort() int {
	return getPortWithEnvFallback(s.KCPPort, "GAME_KCP_PORT", 7777)
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// TickInterval возвращает период тика сервера.
func (s *ServerConfig) TickInterval() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}

// ReconnectInterval возвращает паузу между попытками переподключения клиента.
func (s *SyncConfig) ReconnectInterval() time.Duration {
	if s.ReconnectSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(s.ReconnectSeconds) * time.Second
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Перед чтением подхватывает .env (если есть). Если path == "" и GAME_CONFIG
// не задан, возвращает Default().
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			cfg.applyEnv()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv переопределяет строковые параметры из окружения.
func (c *Config) applyEnv() {
	if v := os.Getenv("NATS_URL"); v != "" {
		c.EventBus.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("SCORE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("GAME_SERVER_URL"); v != "" {
		c.Sync.ServerURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		c.Telemetry.Enabled = true
	}
}
