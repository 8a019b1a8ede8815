package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/fleet/internal/booking"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api"
	"github.com/Nixie-Tech-LLC/fleet/internal/http/api/packets"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

type ResourceController struct {
	store *booking.Store
}

func newResourceController(store *booking.Store) *ResourceController {
	return &ResourceController{store: store}
}

// ResourceModule mounts /resources. Listing is public because other
// instances sync from it.
func ResourceModule(store *booking.Store) api.Module {
	ctl := newResourceController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/resources", ctl.listResources)
		c.POST("/resources", ctl.createResource)
		c.PATCH("/resources/:id", ctl.updateResource)
		c.DELETE("/resources/:id", ctl.deleteResource)
	})
}

// GET /api/resources[?home_id=]
func (r *ResourceController) listResources(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var query packets.ResourcesQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, api.BadRequest(err)
	}
	homeID := query.HomeID
	if homeID == "" {
		homeID = scope.HomeID
	}

	all, err := r.store.ListResources(ctx.Request.Context(), homeID)
	if err != nil {
		return nil, api.FromError(err)
	}
	out := make([]packets.ResourceResponse, 0, len(all))
	for _, res := range all {
		out = append(out, packets.NewResourceResponse(res))
	}
	return out, nil
}

// POST /api/resources
func (r *ResourceController) createResource(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var request packets.CreateResourceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	res, err := r.store.CreateResource(ctx.Request.Context(), scope, request.Name, request.Color)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewResourceResponse(res), nil
}

// PATCH /api/resources/:id
func (r *ResourceController) updateResource(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	var request packets.UpdateResourceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err)
	}
	res, err := r.store.UpdateResource(ctx.Request.Context(), scope, ctx.Param("id"), request.Name, request.Color)
	if err != nil {
		return nil, api.FromError(err)
	}
	return packets.NewResourceResponse(res), nil
}

// DELETE /api/resources/:id
func (r *ResourceController) deleteResource(ctx *gin.Context, scope model.Scope) (any, *api.APIError) {
	if err := r.store.DeleteResource(ctx.Request.Context(), scope, ctx.Param("id")); err != nil {
		return nil, api.FromError(err)
	}
	return packets.OKResponse{OK: true}, nil
}
