package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/config"
	"github.com/Nixie-Tech-LLC/fleet/internal/db"
	"github.com/Nixie-Tech-LLC/fleet/internal/mqtt"
	"github.com/Nixie-Tech-LLC/fleet/internal/redis"
)

// InitStore selects and returns the configured persistence backend
func InitStore(cfg *config.Config) (db.Store, func()) {
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), func() {}
	}

	if cfg.DatabaseDriver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("cannot create database directory")
		}
	}

	conn, err := db.Open(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}
	if err := db.RunMigrations(conn, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	return db.NewStore(conn), func() { _ = conn.Close() }
}

// InitLocker returns a Redis lock when REDIS_ADDRESS is set so that several
// server processes can share one database. Otherwise locks are in-process.
func InitLocker(ctx context.Context, cfg *config.Config) booking.Locker {
	if cfg.RedisAddress == "" {
		return booking.NewLocalLocker()
	}
	rdb := redis.NewClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
	if err := redis.Ping(ctx, rdb); err != nil {
		log.Fatal().Err(err).Str("address", cfg.RedisAddress).Msg("redis unreachable")
	}
	log.Info().Str("address", cfg.RedisAddress).Msg("using redis resource locks")
	return redis.NewLocker(rdb, 0)
}

func InitPublisher(cfg *config.Config) (booking.Publisher, func()) {
	if cfg.MQTTBrokerURL == "" {
		return mqtt.Nop{}, func() {}
	}
	pub, err := mqtt.Connect(cfg.MQTTBrokerURL, cfg.MQTTClientID)
	if err != nil {
		// notifications are optional; keep serving without them
		log.Error().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt connect failed")
		return mqtt.Nop{}, func() {}
	}
	return pub, pub.Close
}
