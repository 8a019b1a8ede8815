package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/db"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, k := range []string{"DATABASE_DRIVER", "SERVER_ADDRESS", "SYNC_TIMEOUT", "BOOKING_HORIZON_DAYS", "LOG_LEVEL", "SYNC_SCHEDULE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "./data/app.db", cfg.DSN())
	assert.Equal(t, 15*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 365*24*time.Hour, cfg.BookingHorizon)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://fleet@localhost/fleet")
	t.Setenv("SYNC_TIMEOUT", "3s")
	t.Setenv("BOOKING_HORIZON_DAYS", "30")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://fleet@localhost/fleet", cfg.DSN())
	assert.Equal(t, 3*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.BookingHorizon)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":       {"JWT_SECRET": ""},
		"postgres without url": {"DATABASE_DRIVER": "postgres", "DATABASE_URL": ""},
		"unknown driver":       {"DATABASE_DRIVER": "mongo"},
		"bad timeout":          {"SYNC_TIMEOUT": "soon"},
		"bad horizon":          {"BOOKING_HORIZON_DAYS": "-1"},
		"schedule no remote":   {"SYNC_SCHEDULE": "@hourly", "SYNC_REMOTE_URL": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("DATABASE_DRIVER", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

const seedYAML = `
resources:
  - name: Car 1
    color: "#3788d8"
  - name: Car 2
  - name: Bike
homes:
  - name: Lake House
    owner: alice
    members: [bob]
    resources:
      - name: Kayak
        color: "#00aa00"
`

func TestSeedApplyIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Resources, 3)

	ctx := context.Background()
	engine := booking.New(db.NewMemoryStore())
	require.NoError(t, seed.Apply(ctx, engine))
	require.NoError(t, seed.Apply(ctx, engine))

	offline, err := engine.ListResources(ctx, model.OfflineHomeID)
	require.NoError(t, err)
	assert.Len(t, offline, 3)

	homes, err := engine.ListHomes(ctx, model.Scope{UserID: "bob"})
	require.NoError(t, err)
	require.Len(t, homes, 1)
	assert.Equal(t, "Lake House", homes[0].Name)

	kayaks, err := engine.ListResources(ctx, homes[0].ID)
	require.NoError(t, err)
	require.Len(t, kayaks, 1)
	assert.Equal(t, "#00aa00", kayaks[0].Color)
}

func TestLoadSeedRejectsOwnerlessHome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("homes:\n  - name: Cabin\n"), 0o644))

	_, err := LoadSeed(path)
	assert.Error(t, err)
}
