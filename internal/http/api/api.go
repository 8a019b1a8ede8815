package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

type APIError struct {
	Code    int
	Message string
	Details any
}

// HandlerFunc receives the request scope; it is anonymous on public routes
// called without a token.
type HandlerFunc func(ctx *gin.Context, scope model.Scope) (any, *APIError)

func BadRequest(err error) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
}

type conflictDetails struct {
	ResourceID     string `json:"resource_id"`
	SeriesID       string `json:"series_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	CandidateStart string `json:"candidate_start"`
	CandidateEnd   string `json:"candidate_end"`
}

// FromError maps engine errors onto HTTP statuses.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var conflict *model.ConflictError
	var notFound *model.NotFoundError
	var invalid *model.ValidationError
	var syncErr *model.SyncError

	switch {
	case errors.As(err, &conflict):
		return &APIError{Code: http.StatusConflict, Message: err.Error(), Details: conflictDetails{
			ResourceID:     conflict.ResourceID,
			SeriesID:       conflict.SeriesID,
			Start:          conflict.Start.UTC().Format(timeLayout),
			End:            conflict.End.UTC().Format(timeLayout),
			CandidateStart: conflict.CandidateStart.UTC().Format(timeLayout),
			CandidateEnd:   conflict.CandidateEnd.UTC().Format(timeLayout),
		}}
	case errors.As(err, &notFound):
		return &APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errors.As(err, &invalid):
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errors.As(err, &syncErr):
		code := http.StatusBadGateway
		if syncErr.Step == model.StepApply {
			code = http.StatusInternalServerError
		}
		return &APIError{Code: code, Message: err.Error(), Details: gin.H{"step": syncErr.Step}}
	case errors.Is(err, model.ErrForbidden):
		return &APIError{Code: http.StatusForbidden, Message: err.Error()}
	case errors.Is(err, model.ErrInUse):
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{Code: http.StatusGatewayTimeout, Message: err.Error()}
	}

	log.Error().Err(err).Msg("unhandled error")
	return &APIError{Code: http.StatusInternalServerError, Message: "internal error"}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func writeError(ctx *gin.Context, e *APIError) {
	body := gin.H{"error": e.Message}
	if e.Details != nil {
		body["details"] = e.Details
	}
	ctx.AbortWithStatusJSON(e.Code, body)
}

// ResolveEndpointWithAuth rejects anonymous callers before running h.
func ResolveEndpointWithAuth(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		scope := middleware.GetScope(ctx)
		if scope.Anonymous() {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		respond(ctx, h, scope)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		respond(ctx, h, middleware.GetScope(ctx))
	}
}

func respond(ctx *gin.Context, h HandlerFunc, scope model.Scope) {
	result, apiErr := h(ctx, scope)
	if apiErr != nil {
		writeError(ctx, apiErr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
