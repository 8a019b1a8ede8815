// Package recurrence turns a stored series anchor into the concrete
// occurrences that fall inside a query window.
package recurrence

import (
	"iter"
	"time"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// Interval is one half-open occurrence [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Expand yields the occurrences of a series whose start lies in
// [windowStart, windowEnd), in increasing start order. Occurrence k (k >= 0)
// starts at anchorStart + k*period and keeps the anchor's duration.
//
// A nil rule is a single booking: it is yielded iff it intersects the window.
// The returned sequence is lazy and can be ranged over any number of times.
func Expand(rule *model.RecurrenceRule, anchorStart, anchorEnd, windowStart, windowEnd time.Time) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if !anchorStart.Before(anchorEnd) || !windowStart.Before(windowEnd) {
			return
		}
		if rule == nil {
			single := Interval{Start: anchorStart, End: anchorEnd}
			if single.Overlaps(Interval{Start: windowStart, End: windowEnd}) {
				yield(single)
			}
			return
		}
		expandSeries(rule, anchorStart, anchorEnd, windowStart, windowEnd, yield)
	}
}

// Intersecting yields every occurrence whose interval intersects
// [windowStart, windowEnd), including one that started before the window.
func Intersecting(rule *model.RecurrenceRule, anchorStart, anchorEnd, windowStart, windowEnd time.Time) iter.Seq[Interval] {
	if rule == nil {
		return Expand(nil, anchorStart, anchorEnd, windowStart, windowEnd)
	}
	from := windowStart.Add(-anchorEnd.Sub(anchorStart)).Add(time.Nanosecond)
	return Expand(rule, anchorStart, anchorEnd, from, windowEnd)
}

// MayIntersect is a constant-time check that a series has at least one
// occurrence intersecting the window. Range queries use it to skip series
// before expanding them.
func MayIntersect(rule *model.RecurrenceRule, anchorStart, anchorEnd, windowStart, windowEnd time.Time) bool {
	if !anchorStart.Before(anchorEnd) || !windowStart.Before(windowEnd) {
		return false
	}
	if rule == nil {
		return Interval{anchorStart, anchorEnd}.Overlaps(Interval{windowStart, windowEnd})
	}
	if !anchorStart.Before(windowEnd) {
		return false
	}
	period := periodSeconds(rule)
	if period == 0 || !weekdayMatches(rule, anchorStart) {
		return false
	}
	from := windowStart.Add(-anchorEnd.Sub(anchorStart)).Add(time.Nanosecond)
	first := nth(anchorStart, firstIndex(anchorStart, from, period), period)
	return first.Before(windowEnd)
}

func expandSeries(rule *model.RecurrenceRule, anchorStart, anchorEnd, from, to time.Time, yield func(Interval) bool) {
	period := periodSeconds(rule)
	if period == 0 || !weekdayMatches(rule, anchorStart) {
		return
	}
	duration := anchorEnd.Sub(anchorStart)
	for k := firstIndex(anchorStart, from, period); ; k++ {
		start := nth(anchorStart, k, period)
		if !start.Before(to) {
			return
		}
		if !yield(Interval{Start: start, End: start.Add(duration)}) {
			return
		}
	}
}

func periodSeconds(rule *model.RecurrenceRule) int64 {
	return int64(rule.Freq.Period() / time.Second)
}

// Every occurrence of a weekly series lands on the anchor's weekday, so the
// recorded weekday either keeps all of them or none.
func weekdayMatches(rule *model.RecurrenceRule, anchorStart time.Time) bool {
	if rule.Freq != model.Weekly || rule.Weekday == nil {
		return true
	}
	return anchorStart.UTC().Weekday() == *rule.Weekday
}

// firstIndex returns the smallest k >= 0 with nth(anchor, k) >= from. It works
// in whole seconds so anchors centuries in the past do not overflow
// time.Duration.
func firstIndex(anchor, from time.Time, period int64) int64 {
	if !from.After(anchor) {
		return 0
	}
	k := (from.Unix() - anchor.Unix()) / period
	for nth(anchor, k, period).Before(from) {
		k++
	}
	return k
}

func nth(anchor time.Time, k, period int64) time.Time {
	return time.Unix(anchor.Unix()+k*period, int64(anchor.Nanosecond())).UTC()
}
