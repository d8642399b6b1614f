package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env             string        `yaml:"env"`
	ListenAddr      string        `yaml:"listen_addr"`
	LogLevel        string        `yaml:"log_level"`
	StoreDriver     string        `yaml:"store_driver"`
	SQLitePath      string        `yaml:"sqlite_path"`
	DatabaseURL     string        `yaml:"database_url"`
	ProfilesFile    string        `yaml:"profiles_file"`
	WriteQueueSize  int           `yaml:"write_queue_size"`
	StoreRetryDelay time.Duration `yaml:"store_retry_delay"`
	AppendTimeout   time.Duration `yaml:"store_append_timeout"`
}

// ClientConfig is what scanctl reads: where the server is and how the
// content observer behaves.
type ClientConfig struct {
	Server      string        `yaml:"server"`
	LogLevel    string        `yaml:"log_level"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

func Defaults() Config {
	return Config{
		Env:             "development",
		ListenAddr:      ":8080",
		LogLevel:        "info",
		StoreDriver:     DriverSQLite,
		SQLitePath:      "leakscan.db",
		WriteQueueSize:  256,
		StoreRetryDelay: 200 * time.Millisecond,
		AppendTimeout:   5 * time.Second,
	}
}

func ClientDefaults() ClientConfig {
	return ClientConfig{
		Server:      "http://localhost:8080",
		LogLevel:    "info",
		SettleDelay: 1500 * time.Millisecond,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load builds the config from defaults, then the YAML file named by
// CONFIG_FILE (if any), then the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.ListenAddr = getenv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.StoreDriver = getenv("STORE_DRIVER", cfg.StoreDriver)
	cfg.SQLitePath = getenv("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.ProfilesFile = getenv("PROFILES_FILE", cfg.ProfilesFile)
	cfg.WriteQueueSize = getenvInt("WRITE_QUEUE_SIZE", cfg.WriteQueueSize)
	cfg.StoreRetryDelay = getenvDuration("STORE_RETRY_DELAY", cfg.StoreRetryDelay)
	cfg.AppendTimeout = getenvDuration("STORE_APPEND_TIMEOUT", cfg.AppendTimeout)
	return cfg, cfg.Validate()
}

// LoadClient layers the client settings the same way Load does, reading
// the same CONFIG_FILE when one is set.
func LoadClient() (ClientConfig, error) {
	cfg := ClientDefaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.Server = getenv("LEAKSCAN_SERVER", cfg.Server)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.SettleDelay = getenvDuration("SETTLE_DELAY", cfg.SettleDelay)
	return cfg, cfg.Validate()
}

func (c *Config) overlayFile(path string) error { return overlayFile(path, c) }

func overlayFile(path string, dst any) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(buf, dst); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.WriteQueueSize < 1 {
		return fmt.Errorf("WRITE_QUEUE_SIZE must be positive")
	}
	if c.AppendTimeout <= 0 {
		return fmt.Errorf("STORE_APPEND_TIMEOUT must be positive")
	}
	return nil
}

func (c ClientConfig) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("LEAKSCAN_SERVER is required")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("SETTLE_DELAY must not be negative")
	}
	return nil
}
