package main

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/config"
	"github.com/Nixie-Tech-LLC/fleet/internal/syncer"
)

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// StartSyncSchedule runs a sync against SYNC_REMOTE_URL on SYNC_SCHEDULE.
// It returns nil when no schedule is configured.
func StartSyncSchedule(ctx context.Context, cfg *config.Config, r *syncer.Reconciler) (*cron.Cron, error) {
	if cfg.SyncSchedule == "" {
		return nil, nil
	}
	c := cron.New(cron.WithParser(scheduleParser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(cfg.SyncSchedule, func() {
		res, err := r.Sync(ctx, cfg.SyncRemoteURL)
		if err != nil {
			log.Error().Err(err).Str("remote", cfg.SyncRemoteURL).Msg("scheduled sync failed")
			return
		}
		log.Debug().Int("events_imported", res.EventsImported).Msg("scheduled sync done")
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	log.Info().Str("schedule", cfg.SyncSchedule).Str("remote", cfg.SyncRemoteURL).Msg("sync schedule started")
	return c, nil
}
