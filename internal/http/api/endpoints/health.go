package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

func HealthModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/healthz", func(*gin.Context, model.Scope) (any, *api.APIError) {
			return gin.H{"status": "ok"}, nil
		})
	})
}
