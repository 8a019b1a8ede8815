package packets

import "time"

type CreateResourceRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateResourceRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// CreateBookingRequest takes RFC 3339 instants. RRule is optional RRULE text
// such as "FREQ=WEEKLY;BYDAY=WE".
type CreateBookingRequest struct {
	ResourceID string     `json:"resource_id" binding:"required"`
	Title      string     `json:"title" binding:"required"`
	Start      time.Time  `json:"start" binding:"required"`
	End        time.Time  `json:"end" binding:"required"`
	RRule      string     `json:"rrule"`
	HorizonEnd *time.Time `json:"horizon_end"`
}

type EventsQuery struct {
	Start      time.Time `form:"start" binding:"required"`
	End        time.Time `form:"end" binding:"required"`
	ResourceID string    `form:"resource_id"`
}

type ResourcesQuery struct {
	HomeID string `form:"home_id"`
}

type SyncRequest struct {
	BaseURL string `json:"base_url" binding:"required,url"`
}

type CreateHomeRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}
