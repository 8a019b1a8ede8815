// Package conflict decides whether candidate occurrences fit on a resource.
// It holds no state; the booking store supplies the existing occurrences.
package conflict

import (
	"context"
	"slices"
	"time"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/recurrence"
)

// Source returns the occurrences of a resource intersecting [start, end).
type Source interface {
	OccurrencesBetween(ctx context.Context, resourceID string, start, end time.Time) ([]model.Occurrence, error)
}

// Check accepts the candidates (nil error) or returns a *model.ConflictError
// naming the first existing occurrence they collide with. It stops at the
// first clash and never writes.
func Check(ctx context.Context, src Source, resourceID string, candidates []recurrence.Interval) error {
	if len(candidates) == 0 {
		return nil
	}
	start, end := Span(candidates)
	existing, err := src.OccurrencesBetween(ctx, resourceID, start, end)
	if err != nil {
		return err
	}
	return FirstConflict(resourceID, candidates, existing)
}

// Span returns the union time span of a set of intervals.
func Span(intervals []recurrence.Interval) (time.Time, time.Time) {
	start, end := intervals[0].Start, intervals[0].End
	for _, iv := range intervals[1:] {
		if iv.Start.Before(start) {
			start = iv.Start
		}
		if iv.End.After(end) {
			end = iv.End
		}
	}
	return start, end
}

type entry struct {
	iv        recurrence.Interval
	existing  *model.Occurrence
	candidate bool
}

// FirstConflict sweeps both sets in start order, keeping the latest-ending
// interval seen on each side. An interval overlaps something on the other
// side iff that side's latest end is past its start.
func FirstConflict(resourceID string, candidates []recurrence.Interval, existing []model.Occurrence) error {
	entries := make([]entry, 0, len(candidates)+len(existing))
	for _, c := range candidates {
		entries = append(entries, entry{iv: c, candidate: true})
	}
	for i := range existing {
		e := &existing[i]
		entries = append(entries, entry{iv: recurrence.Interval{Start: e.Start, End: e.End}, existing: e})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return a.iv.Start.Compare(b.iv.Start)
	})

	var lastCandidate *recurrence.Interval
	var lastExisting *model.Occurrence
	for i := range entries {
		en := entries[i]
		if en.candidate {
			if lastExisting != nil && lastExisting.End.After(en.iv.Start) {
				return clash(resourceID, en.iv, lastExisting)
			}
			if lastCandidate != nil && lastCandidate.End.After(en.iv.Start) {
				return &model.ValidationError{
					ResourceID: resourceID,
					Reason:     "occurrences of the series overlap each other",
					Start:      en.iv.Start,
					End:        en.iv.End,
				}
			}
			if lastCandidate == nil || en.iv.End.After(lastCandidate.End) {
				c := en.iv
				lastCandidate = &c
			}
			continue
		}
		if lastCandidate != nil && lastCandidate.End.After(en.iv.Start) {
			return clash(resourceID, *lastCandidate, en.existing)
		}
		if lastExisting == nil || en.existing.End.After(lastExisting.End) {
			lastExisting = en.existing
		}
	}
	return nil
}

func clash(resourceID string, candidate recurrence.Interval, existing *model.Occurrence) error {
	return &model.ConflictError{
		ResourceID:     resourceID,
		SeriesID:       existing.SeriesID,
		Start:          existing.Start,
		End:            existing.End,
		CandidateStart: candidate.Start,
		CandidateEnd:   candidate.End,
	}
}
