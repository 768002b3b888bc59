package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string
	DBDSN          string
	Environment    string
	RedisAddr      string
	RedisPassword  string
	MetricsAddr    string
	MigrationsPath string

	ModerationMinLength   int
	ModerationMaxLength   int
	ModerationHistorySize int
	SessionSweepInterval  time.Duration

	// Location is the zone session times are typed and shown in.
	Location *time.Location
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work too
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		DBDSN:          getenv("DB_DSN"),
		Environment:    withDefault(getenv("ENV"), "development"),
		RedisAddr:      withDefault(getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD"),
		MetricsAddr:    withDefault(getenv("METRICS_ADDR"), ":9090"),
		MigrationsPath: withDefault(getenv("MIGRATIONS_PATH"), "migrations"),
	}

	var err error
	if cfg.ModerationMinLength, err = intVar(getenv, "MODERATION_MIN_LENGTH", 10); err != nil {
		return nil, err
	}
	if cfg.ModerationMaxLength, err = intVar(getenv, "MODERATION_MAX_LENGTH", 5000); err != nil {
		return nil, err
	}
	if cfg.ModerationHistorySize, err = intVar(getenv, "MODERATION_HISTORY_SIZE", 20); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = durationVar(getenv, "SESSION_SWEEP_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}

	tz := withDefault(getenv("TIMEZONE"), "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", tz, err)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.ModerationMinLength > cfg.ModerationMaxLength {
		return nil, fmt.Errorf("MODERATION_MIN_LENGTH (%d) exceeds MODERATION_MAX_LENGTH (%d)",
			cfg.ModerationMinLength, cfg.ModerationMaxLength)
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}
