package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

type BookingController struct {
	store *booking.Store
}

func newBookingController(store *booking.Store) *BookingController {
	return &BookingController{store: store}
}

// BookingModule mounts booking writes and the calendar range query.
// Anonymous callers act on the offline home.
func BookingModule(store *booking.Store) api.Module {
	ctl := newBookingController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/bookings", ctl.createBooking)
		c.PUBLIC_DELETE("/bookings/:id", ctl.deleteSeries)
		c.PUBLIC_GET("/events", ctl.listEvents)
	})
}

// POST /api/bookings
func (b *BookingController) createBooking(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var request packets.CreateBookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}

	in := booking.CreateBookingInput{
		ResourceID: request.ResourceID,
		Title:      request.Title,
		Start:      request.Start,
		End:        request.End,
		RRule:      request.RRule,
	}
	if request.HorizonEnd != nil {
		in.HorizonEnd = *request.HorizonEnd
	}

	created, err := b.store.Create(ctx.Request.Context(), scope, in)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewBookingResponse(created), nil
}

// DELETE /api/bookings/:id takes a series id or any occurrence id.
func (b *BookingController) deleteSeries(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	if err := b.store.DeleteSeries(ctx.Request.Context(), scope, ctx.Param("id")); err != nil {
		return nil, api.FromError(err)
	}
	return packets.OKResponse{OK: true}, nil
}

// GET /api/events?start&end[&resource_id]
func (b *BookingController) listEvents(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var query packets.EventsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, api.BadRequest(err)
	}

	occs, err := b.store.QueryRange(ctx.Request.Context(), booking.RangeQuery{
		ResourceID: query.ResourceID,
		HomeID:     scope.HomeID,
		Start:      query.Start,
		End:        query.End,
	})
	if err != nil {
		return nil, api.FromError(err)
	}

	out := make([]packets.OccurrenceResponse, 0, len(occs))
	for _, o := range occs {
		out = append(out, packets.NewOccurrenceResponse(o))
	}
	return out, nil
}
