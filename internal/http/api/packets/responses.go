package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/recurrence"
)

// ResourceResponse is also the wire format other instances sync from, so
// id, name and color must stay stable.
type ResourceResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	HomeID string `json:"home_id"`
}

func NewResourceResponse(r model.Resource) ResourceResponse {
	return ResourceResponse{ID: r.ID, Name: r.Name, Color: r.Color, HomeID: r.HomeID}
}

// BookingResponse mirrors model.Booking but flattens times to RFC3339.
type BookingResponse struct {
	ID         string `json:"id"`
	SeriesID   string `json:"series_id"`
	ResourceID string `json:"resource_id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
	RRule      string `json:"rrule,omitempty"`
	Source     string `json:"source"`
	CreatedBy  string `json:"created_by,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func NewBookingResponse(b model.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		SeriesID:   b.SeriesID,
		ResourceID: b.ResourceID,
		Title:      b.Title,
		Start:      b.Start.UTC().Format(time.RFC3339),
		End:        b.End.UTC().Format(time.RFC3339),
		RRule:      recurrence.String(b.Rule),
		Source:     b.Source,
		CreatedBy:  b.CreatedBy,
		CreatedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type OccurrenceResponse struct {
	OccurrenceID string `json:"occurrence_id"`
	SeriesID     string `json:"series_id"`
	ResourceID   string `json:"resource_id"`
	Title        string `json:"title"`
	Start        string `json:"start"`
	End          string `json:"end"`
}

func NewOccurrenceResponse(o model.Occurrence) OccurrenceResponse {
	return OccurrenceResponse{
		OccurrenceID: o.OccurrenceID,
		SeriesID:     o.SeriesID,
		ResourceID:   o.ResourceID,
		Title:        o.Title,
		Start:        o.Start.UTC().Format(time.RFC3339),
		End:          o.End.UTC().Format(time.RFC3339),
	}
}

type HomeResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	OwnerID string   `json:"owner_id"`
	Members []string `json:"members"`
}

func NewHomeResponse(h model.Home) HomeResponse {
	members := h.Members
	if members == nil {
		members = []string{}
	}
	return HomeResponse{ID: h.ID, Name: h.Name, OwnerID: h.OwnerID, Members: members}
}

type OKResponse struct {
	OK bool `json:"ok"`
}
