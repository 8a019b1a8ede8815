package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/syncer"
)

type SyncController struct {
	reconciler *syncer.Reconciler
	limiter    *rate.Limiter
}

// SyncModule mounts POST /sync. Runs are throttled to one per minInterval;
// zero disables the throttle.
func SyncModule(reconciler *syncer.Reconciler, minInterval time.Duration) api.Module {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	ctl := &SyncController{reconciler: reconciler, limiter: rate.NewLimiter(limit, 1)}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/sync", ctl.sync)
	})
}

// POST /api/sync
func (s *SyncController) sync(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var request packets.SyncRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	if !s.limiter.Allow() {
		return nil, &api.APIError{Code: http.StatusTooManyRequests, Message: "sync already ran recently, try again later"}
	}

	result, err := s.reconciler.Sync(ctx.Request.Context(), request.BaseURL)
	if err != nil {
		log.Warn().Err(err).Str("user_id", scope.UserID).Msg("sync request failed")
		return nil, api.FromError(err)
	}
	return result, nil
}
