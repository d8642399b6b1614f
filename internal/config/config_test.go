package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "APP_ENV", "LISTEN_ADDR", "LOG_LEVEL", "STORE_DRIVER", "SQLITE_PATH",
	"DATABASE_URL", "PROFILES_FILE", "WRITE_QUEUE_SIZE", "STORE_RETRY_DELAY", "STORE_APPEND_TIMEOUT",
	"LEAKSCAN_SERVER", "SETTLE_DELAY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.AppendTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("WRITE_QUEUE_SIZE", "32")
	t.Setenv("STORE_RETRY_DELAY", "1s")
	t.Setenv("STORE_APPEND_TIMEOUT", "garbage")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 32, cfg.WriteQueueSize)
	assert.Equal(t, time.Second, cfg.StoreRetryDelay)
	assert.Equal(t, 5*time.Second, cfg.AppendTimeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "leakscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
store_driver: postgres
database_url: postgres://file/db
log_level: debug
store_retry_delay: 500ms
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env/db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.StoreRetryDelay)
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("WRITE_QUEUE_SIZE", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "WRITE_QUEUE_SIZE")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClientDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, ClientDefaults(), cfg)
	assert.Equal(t, 1500*time.Millisecond, cfg.SettleDelay)
}

func TestLoadClientFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "leakscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: http://file:8080
settle_delay: 3s
store_driver: memory
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SETTLE_DELAY", "250ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://file:8080", cfg.Server)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("LEAKSCAN_SERVER", "http://env:9000")
	t.Setenv("SETTLE_DELAY", "-1s")
	_, err = LoadClient()
	assert.ErrorContains(t, err, "SETTLE_DELAY")
}
