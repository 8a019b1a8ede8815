package endpoints

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/fleet/internal/ics"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

const calendarContentType = "text/calendar; charset=utf-8"

type FeedController struct {
	store *booking.Store
}

// FeedModule mounts the calendar subscriptions, one VEVENT per series.
func FeedModule(store *booking.Store) api.Module {
	ctl := &FeedController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.RAW_GET("/all.ics", ctl.allFeed)
		c.RAW_GET("/resource/:file", ctl.resourceFeed)
	})
}

// GET /ics/all.ics
func (f *FeedController) allFeed(ctx *gin.Context) {
	scope := middleware.GetScope(ctx)
	resources, err := f.store.ListResources(ctx.Request.Context(), scope.HomeID)
	if err != nil {
		writeFeedError(ctx, err)
		return
	}
	f.render(ctx, resources)
}

// GET /ics/resource/:id.ics
func (f *FeedController) resourceFeed(ctx *gin.Context) {
	id, ok := strings.CutSuffix(ctx.Param("file"), ".ics")
	if !ok || id == "" {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	res, err := f.store.GetResource(ctx.Request.Context(), id)
	if err != nil {
		writeFeedError(ctx, err)
		return
	}
	f.render(ctx, []model.Resource{res})
}

func (f *FeedController) render(ctx *gin.Context, resources []model.Resource) {
	var entries []ics.Entry
	for _, r := range resources {
		series, err := f.store.Series(ctx.Request.Context(), r.ID)
		if err != nil {
			writeFeedError(ctx, err)
			return
		}
		for _, b := range series {
			entries = append(entries, ics.Entry{Booking: b, Resource: r})
		}
	}
	ctx.Data(http.StatusOK, calendarContentType, []byte(ics.Export(entries, time.Now())))
}

func writeFeedError(ctx *gin.Context, err error) {
	e := api.FromError(err)
	ctx.JSON(e.Code, gin.H{"error": e.Message})
}
