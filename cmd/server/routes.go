package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/config"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/endpoints"
	"github.com/Nixie-Tech-LLC/fleet/internal/syncer"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, store *booking.Store, reconciler *syncer.Reconciler) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		SecretKey: cfg.JWTSecret,
	},
		endpoints.HealthModule(),
	)

	// anonymous callers act on the offline home
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		SecretKey: cfg.JWTSecret,
	},
		endpoints.ResourceModule(store),
		endpoints.BookingModule(store),
		endpoints.SyncModule(reconciler, cfg.SyncMinInterval),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api",
		Auth:      true,
		SecretKey: cfg.JWTSecret,
	},
		endpoints.HomeModule(store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/ics",
		SecretKey: cfg.JWTSecret,
	},
		endpoints.FeedModule(store),
	)
}
