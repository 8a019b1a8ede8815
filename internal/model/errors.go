package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrForbidden is returned when the request scope may not touch a home.
var ErrForbidden = errors.New("forbidden")

// ErrInUse is returned when deleting a resource that still has bookings.
var ErrInUse = errors.New("resource still has bookings")

const rangeLayout = "2006-01-02T15:04Z07:00"

func formatRange(start, end time.Time) string {
	return start.UTC().Format(rangeLayout) + "–" + end.UTC().Format(rangeLayout)
}

// ConflictError reports the existing occurrence a candidate collided with.
type ConflictError struct {
	ResourceID string
	SeriesID   string
	Start      time.Time
	End        time.Time

	CandidateStart time.Time
	CandidateEnd   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %s: %s overlaps existing booking %s (%s)",
		e.ResourceID, formatRange(e.CandidateStart, e.CandidateEnd), e.SeriesID, formatRange(e.Start, e.End))
}

// NotFoundError is returned for unknown bookings, series, resources and homes.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError rejects malformed input before it reaches storage.
type ValidationError struct {
	Field      string
	Reason     string
	ResourceID string
	Start      time.Time
	End        time.Time
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.ResourceID != "" {
		msg = fmt.Sprintf("resource %s: %s", e.ResourceID, msg)
	}
	if !e.Start.IsZero() || !e.End.IsZero() {
		msg = fmt.Sprintf("%s (%s)", msg, formatRange(e.Start, e.End))
	}
	return msg
}

// SyncStep names the stage of a sync run that failed.
type SyncStep string

const (
	StepFetchResources SyncStep = "fetch resources"
	StepFetchFeed      SyncStep = "fetch feed"
	StepParseResources SyncStep = "parse resources"
	StepParseFeed      SyncStep = "parse feed"
	StepApply          SyncStep = "apply"
)

// SyncError aborts a whole sync run; nothing is written when it is returned.
type SyncError struct {
	Step  SyncStep
	URL   string
	Cause error
}

func (e *SyncError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("sync %s (%s): %v", e.Step, e.URL, e.Cause)
	}
	return fmt.Sprintf("sync %s: %v", e.Step, e.Cause)
}

func (e *SyncError) Unwrap() error { return e.Cause }
