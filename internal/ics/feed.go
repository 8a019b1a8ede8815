// Package ics reads and writes the calendar feeds exchanged between fleet
// instances. One VEVENT describes one stored series.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/recurrence"
)

const (
	ProdID = "-//Family Fleet//EN"

	// PropResourceID carries the exporting instance's resource id.
	PropResourceID ical.ComponentProperty = "X-FLEET-RESOURCE-ID"
	// PropResourceName carries the resource name.
	PropResourceName ical.ComponentProperty = "X-FLEET-RESOURCE"

	uidSuffix = "@family-fleet"
)

// Entry pairs a series with the resource it books.
type Entry struct {
	Booking  model.Booking
	Resource model.Resource
}

// Summary renders the event title the way feeds show it: "<resource>: <title>".
func Summary(resourceName, title string) string {
	return resourceName + ": " + title
}

// Export renders entries as a text/calendar document.
func Export(entries []Entry, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProdID)

	stamp := now.UTC()
	for _, e := range entries {
		b := e.Booking
		ev := cal.AddEvent(b.SeriesID + uidSuffix)
		ev.SetDtStampTime(stamp)
		ev.SetCreatedTime(b.CreatedAt.UTC())
		ev.SetStartAt(b.Start.UTC())
		ev.SetEndAt(b.End.UTC())
		ev.SetSummary(Summary(e.Resource.Name, b.Title))
		ev.SetProperty(PropResourceID, e.Resource.ID)
		ev.SetProperty(PropResourceName, e.Resource.Name)
		if b.Rule != nil {
			ev.SetProperty(ical.ComponentPropertyRrule, recurrence.String(b.Rule))
		}
	}
	return cal.Serialize()
}

// StripResourcePrefix removes a leading "<name>: " from summary.
func StripResourcePrefix(summary, name string) string {
	if name == "" {
		return summary
	}
	return strings.TrimPrefix(summary, Summary(name, ""))
}
