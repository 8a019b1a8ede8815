package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/config"
	"github.com/Nixie-Tech-LLC/fleet/internal/syncer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := InitStore(cfg)
	defer closeStore()

	locker := InitLocker(ctx, cfg)
	pub, closePub := InitPublisher(cfg)
	defer closePub()

	engine := booking.New(store,
		booking.WithLocker(locker),
		booking.WithPublisher(pub),
		booking.WithHorizon(cfg.BookingHorizon),
	)
	if err := engine.EnsureOfflineHome(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create offline home")
	}

	if cfg.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load seed")
		}
		if err := seed.Apply(ctx, engine); err != nil {
			log.Fatal().Err(err).Msg("failed to apply seed")
		}
	}

	reconciler := syncer.New(engine, cfg.SyncTimeout, syncer.WithPublisher(pub))

	sched, err := StartSyncSchedule(ctx, cfg, reconciler)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SYNC_SCHEDULE")
	}
	if sched != nil {
		defer sched.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, engine, reconciler)

	if err := serve(ctx, &http.Server{Addr: cfg.ServerAddress, Handler: r}); err != nil {
		log.Error().Err(err).Msg("server error")
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
