package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/recurrence"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func iv(start, end string) recurrence.Interval {
	return recurrence.Interval{Start: at(start), End: at(end)}
}

func occ(series, start, end string) model.Occurrence {
	return model.Occurrence{OccurrenceID: series, SeriesID: series, ResourceID: "R", Start: at(start), End: at(end)}
}

type fakeSource struct {
	occurrences []model.Occurrence
	gotStart    time.Time
	gotEnd      time.Time
	calls       int
	err         error
}

func (f *fakeSource) OccurrencesBetween(_ context.Context, _ string, start, end time.Time) ([]model.Occurrence, error) {
	f.calls++
	f.gotStart, f.gotEnd = start, end
	return f.occurrences, f.err
}

func TestCheckRejectsOverlap(t *testing.T) {
	src := &fakeSource{occurrences: []model.Occurrence{occ("b1", "2024-01-01T10:00:00Z", "2024-01-01T11:00:00Z")}}

	err := Check(context.Background(), src, "R", []recurrence.Interval{iv("2024-01-01T10:30:00Z", "2024-01-01T11:30:00Z")})

	var cerr *model.ConflictError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "R", cerr.ResourceID)
	assert.Equal(t, "b1", cerr.SeriesID)
	assert.Equal(t, at("2024-01-01T10:00:00Z"), cerr.Start)
	assert.Equal(t, at("2024-01-01T11:00:00Z"), cerr.End)
	assert.Contains(t, err.Error(), "2024-01-01T10:00Z")
	assert.Contains(t, err.Error(), "2024-01-01T11:00Z")
}

func TestCheckAcceptsTouchingIntervals(t *testing.T) {
	src := &fakeSource{occurrences: []model.Occurrence{occ("b1", "2024-01-01T10:00:00Z", "2024-01-01T11:00:00Z")}}

	err := Check(context.Background(), src, "R", []recurrence.Interval{
		iv("2024-01-01T11:00:00Z", "2024-01-01T12:00:00Z"),
		iv("2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"),
	})
	assert.NoError(t, err)
}

func TestCheckQueriesUnionSpan(t *testing.T) {
	src := &fakeSource{}
	candidates := []recurrence.Interval{
		iv("2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"),
		iv("2024-01-02T09:00:00Z", "2024-01-02T10:00:00Z"),
		iv("2024-01-03T09:00:00Z", "2024-01-03T10:00:00Z"),
	}
	require.NoError(t, Check(context.Background(), src, "R", candidates))
	assert.Equal(t, at("2024-01-01T09:00:00Z"), src.gotStart)
	assert.Equal(t, at("2024-01-03T10:00:00Z"), src.gotEnd)
}

func TestCheckWithoutCandidatesSkipsSource(t *testing.T) {
	src := &fakeSource{}
	assert.NoError(t, Check(context.Background(), src, "R", nil))
	assert.Zero(t, src.calls)
}

func TestCheckPropagatesSourceError(t *testing.T) {
	boom := errors.New("db down")
	src := &fakeSource{err: boom}
	err := Check(context.Background(), src, "R", []recurrence.Interval{iv("2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z")})
	assert.ErrorIs(t, err, boom)
}

func TestFirstConflictRecurringCandidateFailsOnFirstClash(t *testing.T) {
	candidates := []recurrence.Interval{
		iv("2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"),
		iv("2024-01-02T09:00:00Z", "2024-01-02T10:00:00Z"),
		iv("2024-01-03T09:00:00Z", "2024-01-03T10:00:00Z"),
		iv("2024-01-04T09:00:00Z", "2024-01-04T10:00:00Z"),
	}
	existing := []model.Occurrence{
		occ("late", "2024-01-04T09:30:00Z", "2024-01-04T09:45:00Z"),
		occ("early", "2024-01-02T08:00:00Z", "2024-01-02T09:01:00Z"),
	}

	err := FirstConflict("R", candidates, existing)

	var cerr *model.ConflictError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "early", cerr.SeriesID)
	assert.Equal(t, at("2024-01-02T09:00:00Z"), cerr.CandidateStart)
}

func TestFirstConflictLongExistingCoversLaterCandidate(t *testing.T) {
	existing := []model.Occurrence{
		occ("long", "2024-01-01T00:00:00Z", "2024-01-05T00:00:00Z"),
		occ("short", "2024-01-01T01:00:00Z", "2024-01-01T02:00:00Z"),
	}
	err := FirstConflict("R", []recurrence.Interval{iv("2024-01-03T09:00:00Z", "2024-01-03T10:00:00Z")}, existing)

	var cerr *model.ConflictError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "long", cerr.SeriesID)
}

func TestFirstConflictSameStart(t *testing.T) {
	existing := []model.Occurrence{occ("b1", "2024-01-01T10:00:00Z", "2024-01-01T10:05:00Z")}
	err := FirstConflict("R", []recurrence.Interval{iv("2024-01-01T10:00:00Z", "2024-01-01T12:00:00Z")}, existing)
	var cerr *model.ConflictError
	assert.True(t, errors.As(err, &cerr))
}

func TestFirstConflictSelfOverlappingCandidates(t *testing.T) {
	err := FirstConflict("R", []recurrence.Interval{
		iv("2024-01-01T09:00:00Z", "2024-01-02T10:00:00Z"),
		iv("2024-01-02T09:00:00Z", "2024-01-03T10:00:00Z"),
	}, nil)
	var verr *model.ValidationError
	assert.True(t, errors.As(err, &verr))
}
