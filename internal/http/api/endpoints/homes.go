package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

type HomeController struct {
	store *booking.Store
}

func HomeModule(store *booking.Store) api.Module {
	ctl := &HomeController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/homes", ctl.listHomes)
		c.POST("/homes", ctl.createHome)
		c.POST("/homes/:id/members", ctl.addMember)
	})
}

// GET /api/homes
func (h *HomeController) listHomes(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	homes, err := h.store.ListHomes(ctx.Request.Context(), scope)
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.HomeResponse, 0, len(homes))
	for _, home := range homes {
		out = append(out, packets.NewHomeResponse(home))
	}
	return out, nil
}

// POST /api/homes
func (h *HomeController) createHome(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var request packets.CreateHomeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	home, err := h.store.CreateHome(ctx.Request.Context(), scope, request.Name)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewHomeResponse(home), nil
}

// POST /api/homes/:id/members
func (h *HomeController) addMember(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var request packets.AddMemberRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	homeID := ctx.Param("id")
	if err := h.store.AddMember(ctx.Request.Context(), scope, homeID, request.UserID); err != nil {
		return nil, api.FromError(err)
	}
	home, err := h.store.GetHome(ctx.Request.Context(), scope, homeID)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewHomeResponse(home), nil
}
