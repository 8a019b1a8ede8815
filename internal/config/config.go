package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds environment-based settings
type Config struct {
	Environment   string
	ServerAddress string
	JWTSecret     string
	LogLevel      zerolog.Level

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string
	MQTTClientID  string

	SyncTimeout     time.Duration
	SyncMinInterval time.Duration
	SyncRemoteURL   string
	SyncSchedule    string

	BookingHorizon time.Duration
	SeedFile       string
}

func (c *Config) Development() bool { return c.Environment == "development" }

// DSN returns the connection string for the configured SQL driver.
func (c *Config) DSN() string {
	if c.DatabaseDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.DatabaseURL
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Environment:    getenv("APP_ENV", "production"),
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		DatabaseDriver: getenv("DATABASE_DRIVER", DriverSQLite),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     getenv("SQLITE_PATH", "./data/app.db"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),
		RedisAddress:   os.Getenv("REDIS_ADDRESS"),
		RedisUsername:  os.Getenv("REDIS_USERNAME"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		MQTTBrokerURL:  os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:   getenv("MQTT_CLIENT_ID", "family-fleet"),
		SyncRemoteURL:  os.Getenv("SYNC_REMOTE_URL"),
		SyncSchedule:   os.Getenv("SYNC_SCHEDULE"),
		SeedFile:       os.Getenv("SEED_FILE"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite, DriverMemory:
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER %q: use postgres, sqlite or memory", cfg.DatabaseDriver)
	}

	level, err := zerolog.ParseLevel(getenv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.SyncTimeout, err = duration("SYNC_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncMinInterval, err = duration("SYNC_MIN_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}

	days, err := strconv.Atoi(getenv("BOOKING_HORIZON_DAYS", "365"))
	if err != nil || days <= 0 {
		return nil, fmt.Errorf("BOOKING_HORIZON_DAYS must be a positive integer")
	}
	cfg.BookingHorizon = time.Duration(days) * 24 * time.Hour

	if cfg.SyncSchedule != "" && cfg.SyncRemoteURL == "" {
		return nil, errors.New("SYNC_SCHEDULE needs SYNC_REMOTE_URL")
	}
	return cfg, nil
}
