package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")
	t.Setenv("SCORE_BACKEND", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 60, cfg.Server.TickRate)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 240, cfg.Sync.RateLimitPerSec)
	assert.Equal(t, 3*time.Second, cfg.Sync.ReconnectInterval())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	data := []byte(`
server:
  ws_port: 9000
  tick_rate: 30
storage:
  backend: badger
  badger_path: /tmp/scores
logging:
  components:
    network: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0644))
	t.Setenv("SCORE_BACKEND", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.GetWSPort())
	assert.Equal(t, time.Second/30, cfg.Server.TickInterval())
	assert.Equal(t, "badger", cfg.Storage.Backend)
	assert.Equal(t, 2, cfg.Sync.UpdateEveryTicks, "незаданные поля остаются по умолчанию")
	assert.Equal(t, map[string]string{"network": "debug"}, cfg.Logging.Components)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("GAME_REST_PORT", "9999")
	assert.Equal(t, 9999, s.GetRESTPort())

	t.Setenv("GAME_REST_PORT", "not-a-number")
	assert.Equal(t, 8088, s.GetRESTPort())

	s.RESTPort = 1234
	assert.Equal(t, 1234, s.GetRESTPort())
}
