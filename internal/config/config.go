package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig - storage selection. SQLite is the default single-file
// store; Postgres is for shared deployments.
type DatabaseConfig struct {
	Driver string
	Path   string // sqlite file location
	DSN    string // postgres connection string
}

// TelegramConfig - bot credentials. An empty token disables the bot.
type TelegramConfig struct {
	BotToken string
	ChatID   int64 // default delivery target for trigger notifications
}

// WatcherConfig - verification cycle tuning
type WatcherConfig struct {
	Interval      time.Duration
	MaxConcurrent int
	SearchTimeout time.Duration
}

// MetricsConfig - prometheus exposure. An empty address disables the listener.
type MetricsConfig struct {
	Addr string
}

type Config struct {
	Env      string // "local", "prod"
	Database DatabaseConfig
	Telegram TelegramConfig
	Watcher  WatcherConfig
	Metrics  MetricsConfig
}

// LoadConfig reads settings from the environment, falling back to defaults
// that work for a local single-user setup.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "local"),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", DriverSQLite),
			Path:   getEnv("DB_PATH", "./pricewatcher.db"),
			DSN:    os.Getenv("DATABASE_URL"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
		Watcher: WatcherConfig{
			Interval:      30 * time.Minute,
			MaxConcurrent: 5,
			SearchTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":9090"),
		},
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Telegram.ChatID = chatID
	}

	if v := os.Getenv("CHECK_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CHECK_INTERVAL: %w", err)
		}
		cfg.Watcher.Interval = interval
	}

	if v := os.Getenv("SEARCH_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SEARCH_TIMEOUT: %w", err)
		}
		cfg.Watcher.SearchTimeout = timeout
	}

	if v := os.Getenv("MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_CONCURRENT: %w", err)
		}
		cfg.Watcher.MaxConcurrent = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH must not be empty with the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required with the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	if c.Watcher.Interval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL must be positive")
	}
	if c.Watcher.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.Watcher.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
