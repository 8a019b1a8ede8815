package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/http/middleware"
)

// Module attaches a feature's endpoints to a Controller.
type Module interface {
	Mount(c *Controller)
}

type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig describes one mounted route group.
type GroupConfig struct {
	Prefix string
	// Auth rejects requests without a valid bearer token. Groups without it
	// still read a token when one is sent, to scope the request.
	Auth       bool
	SecretKey  string
	Middleware []gin.HandlerFunc
}

// MountGroup mounts modules under cfg.Prefix. Engines and groups both work as
// parent since each is a gin.IRouter.
func MountGroup(parent gin.IRouter, cfg GroupConfig, modules ...Module) {
	if cfg.SecretKey == "" {
		log.Fatal().Str("prefix", cfg.Prefix).Msg("api.MountGroup: SecretKey is empty")
	}

	handlers := append([]gin.HandlerFunc{}, cfg.Middleware...)
	if cfg.Auth {
		handlers = append(handlers, middleware.JWTMiddleware(cfg.SecretKey))
	} else {
		handlers = append(handlers, middleware.OptionalJWTMiddleware(cfg.SecretKey))
	}

	controller := &Controller{Group: parent.Group(cfg.Prefix, handlers...)}
	for _, m := range modules {
		m.Mount(controller)
	}
}
