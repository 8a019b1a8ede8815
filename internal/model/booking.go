package model

import (
	"fmt"
	"time"
)

// Frequency is the repeat period of a recurring series.
type Frequency string

const (
	Daily  Frequency = "DAILY"
	Weekly Frequency = "WEEKLY"
)

// Period returns the fixed distance between two consecutive occurrences.
func (f Frequency) Period() time.Duration {
	switch f {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

// RecurrenceRule describes an unbounded series. Weekday is only set for
// WEEKLY rules and is the anchor's UTC weekday recorded at creation.
type RecurrenceRule struct {
	Freq    Frequency     `json:"freq"`
	Weekday *time.Weekday `json:"weekday,omitempty"`
}

const (
	SourceLocal = "local"
	SourceSync  = "sync"
)

// Booking is one stored series. A single booking is a series of one and
// carries SeriesID == ID; a recurring booking stores only its anchor.
type Booking struct {
	ID         string          `json:"id"`
	SeriesID   string          `json:"series_id"`
	ResourceID string          `json:"resource_id"`
	Title      string          `json:"title"`
	Start      time.Time       `json:"start"`
	End        time.Time       `json:"end"`
	Rule       *RecurrenceRule `json:"rule,omitempty"`
	CreatedBy  string          `json:"created_by,omitempty"`
	Source     string          `json:"source"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (b Booking) Recurring() bool { return b.Rule != nil }

// Occurrence is one concrete interval of a booking, as returned by calendar
// queries.
type Occurrence struct {
	OccurrenceID string    `json:"occurrence_id"`
	SeriesID     string    `json:"series_id"`
	ResourceID   string    `json:"resource_id"`
	Title        string    `json:"title"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// OccurrenceID identifies one instance of a series. Single bookings reuse
// their own id.
func OccurrenceID(b Booking, start time.Time) string {
	if b.Rule == nil {
		return b.ID
	}
	return fmt.Sprintf("%s@%s", b.SeriesID, start.UTC().Format(time.RFC3339))
}

// SeriesIDFromOccurrence strips the instance suffix of an occurrence id.
func SeriesIDFromOccurrence(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '@' {
			return id[:i]
		}
	}
	return id
}
