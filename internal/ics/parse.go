package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"
)

// Event is one VEVENT of a remote feed. Only the fields the importer uses are
// kept; RRULE is recorded but never expanded.
type Event struct {
	UID          string
	Summary      string
	Start        time.Time
	End          time.Time
	ResourceID   string
	ResourceName string
	RawRRule     string
}

var (
	ErrEmptyFeed   = errors.New("empty calendar feed")
	ErrNotCalendar = errors.New("body is not a VCALENDAR")
)

// Parse decodes a feed. A body that is not a calendar fails as a whole;
// individual events without a UID or a usable time range are dropped and
// counted in skipped.
func Parse(body []byte) (events []Event, skipped int, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, 0, ErrEmptyFeed
	}
	if !bytes.Contains(body, []byte("BEGIN:VCALENDAR")) {
		return nil, 0, ErrNotCalendar
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse calendar: %w", err)
	}

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			log.Warn().Err(perr).Str("uid", ev.UID).Msg("skipping feed event")
			skipped++
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

func value(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	out := Event{
		UID:          value(ve, ical.ComponentPropertyUniqueId),
		Summary:      value(ve, ical.ComponentPropertySummary),
		ResourceID:   value(ve, PropResourceID),
		ResourceName: value(ve, PropResourceName),
		RawRRule:     value(ve, ical.ComponentPropertyRrule),
	}
	if out.UID == "" {
		return out, errors.New("missing UID")
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, fmt.Errorf("DTEND: %w", err)
	}
	out.Start = start.UTC().Truncate(time.Second)
	out.End = end.UTC().Truncate(time.Second)
	if !out.Start.Before(out.End) {
		return out, errors.New("DTSTART must be before DTEND")
	}
	return out, nil
}
