// Package booking is the single writer for bookings. It validates requests,
// serializes creates per resource, runs the conflict check and answers
// calendar range queries by expanding stored series on demand.
package booking

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/conflict"
	"github.com/Nixie-Tech-LLC/fleet/internal/db"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
	"github.com/Nixie-Tech-LLC/fleet/internal/recurrence"
)

const DefaultHorizon = 365 * 24 * time.Hour

// Topics published after successful writes.
const (
	TopicBookingCreated = "fleet/bookings/created"
	TopicBookingDeleted = "fleet/bookings/deleted"
	TopicResourceChange = "fleet/resources/changed"
)

// Publisher receives change notifications. Delivery is best effort.
type Publisher interface {
	Publish(topic string, payload any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

type Store struct {
	db      db.Store
	locks   Locker
	pub     Publisher
	horizon time.Duration
	now     func() time.Time
}

type Option func(*Store)

func WithLocker(l Locker) Option { return func(s *Store) { s.locks = l } }

func WithPublisher(p Publisher) Option { return func(s *Store) { s.pub = p } }

// WithHorizon sets the default look-ahead used to check recurring requests.
func WithHorizon(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.horizon = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func New(st db.Store, opts ...Option) *Store {
	s := &Store{
		db:      st,
		locks:   NewLocalLocker(),
		pub:     nopPublisher{},
		horizon: DefaultHorizon,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBookingInput is a validated-at-the-edge booking request. RRule is
// optional RFC 5545 text; HorizonEnd overrides the default look-ahead.
type CreateBookingInput struct {
	ResourceID string
	Title      string
	Start      time.Time
	End        time.Time
	RRule      string
	HorizonEnd time.Time
}

// Create stores a single booking or a whole recurring series, or nothing.
func (s *Store) Create(ctx context.Context, scope model.Scope, in CreateBookingInput) (model.Booking, error) {
	start := in.Start.UTC().Truncate(time.Second)
	end := in.End.UTC().Truncate(time.Second)
	title := strings.TrimSpace(in.Title)

	if title == "" {
		return model.Booking{}, &model.ValidationError{Field: "title", Reason: "must not be empty", ResourceID: in.ResourceID}
	}
	if !start.Before(end) {
		return model.Booking{}, &model.ValidationError{Field: "end", Reason: "start must be before end", ResourceID: in.ResourceID, Start: start, End: end}
	}

	res, err := s.db.GetResource(ctx, in.ResourceID)
	if err != nil {
		return model.Booking{}, err
	}
	if err := s.authorizeHome(ctx, scope, res.HomeID, false); err != nil {
		return model.Booking{}, err
	}

	var rule *model.RecurrenceRule
	if strings.TrimSpace(in.RRule) != "" {
		if rule, err = recurrence.ParseRule(in.RRule, start); err != nil {
			return model.Booking{}, err
		}
		// longer than one period and the series overlaps itself whatever the horizon
		if end.Sub(start) > rule.Freq.Period() {
			return model.Booking{}, &model.ValidationError{
				Field:      "rrule",
				Reason:     fmt.Sprintf("a %s series cannot last longer than %s", rule.Freq, rule.Freq.Period()),
				ResourceID: res.ID,
				Start:      start,
				End:        end,
			}
		}
	}

	b := model.Booking{
		ID:         uuid.NewString(),
		ResourceID: res.ID,
		Title:      title,
		Start:      start,
		End:        end,
		Rule:       rule,
		CreatedBy:  scope.UserID,
		Source:     model.SourceLocal,
		CreatedAt:  s.now().UTC().Truncate(time.Second),
	}
	b.SeriesID = b.ID

	unlock, err := s.locks.Lock(ctx, res.ID)
	if err != nil {
		return model.Booking{}, err
	}
	defer unlock()

	candidates := s.candidates(b, in.HorizonEnd)
	if err := conflict.Check(ctx, s, res.ID, candidates); err != nil {
		log.Info().Err(err).Str("resource_id", res.ID).Msg("booking rejected")
		return model.Booking{}, err
	}
	if err := s.db.InsertSeries(ctx, b); err != nil {
		return model.Booking{}, err
	}

	log.Info().
		Str("series_id", b.ID).
		Str("resource_id", b.ResourceID).
		Bool("recurring", b.Recurring()).
		Int("checked_occurrences", len(candidates)).
		Msg("booking created")
	s.pub.Publish(TopicBookingCreated, b)
	return b, nil
}

// candidates materializes the occurrences of b that the conflict check
// covers. The anchor is always included.
func (s *Store) candidates(b model.Booking, horizonEnd time.Time) []recurrence.Interval {
	if b.Rule == nil {
		return []recurrence.Interval{{Start: b.Start, End: b.End}}
	}
	if horizonEnd.IsZero() {
		horizonEnd = s.now().Add(s.horizon)
	}
	if !horizonEnd.After(b.Start) {
		horizonEnd = b.End
	}
	out := slices.Collect(recurrence.Expand(b.Rule, b.Start, b.End, b.Start, horizonEnd))
	if len(out) == 0 {
		out = []recurrence.Interval{{Start: b.Start, End: b.End}}
	}
	return out
}

// OccurrencesBetween returns every occurrence on resourceID that intersects
// [start, end), ordered.
func (s *Store) OccurrencesBetween(ctx context.Context, resourceID string, start, end time.Time) ([]model.Occurrence, error) {
	bookings, err := s.db.LoadBookingsForResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	out := expandAll(bookings, start, end)
	SortOccurrences(out)
	return out, nil
}

func expandAll(bookings []model.Booking, start, end time.Time) []model.Occurrence {
	var out []model.Occurrence
	for _, b := range bookings {
		if !recurrence.MayIntersect(b.Rule, b.Start, b.End, start, end) {
			continue
		}
		for iv := range recurrence.Intersecting(b.Rule, b.Start, b.End, start, end) {
			out = append(out, model.Occurrence{
				OccurrenceID: model.OccurrenceID(b, iv.Start),
				SeriesID:     b.SeriesID,
				ResourceID:   b.ResourceID,
				Title:        b.Title,
				Start:        iv.Start,
				End:          iv.End,
			})
		}
	}
	return out
}

// SortOccurrences orders by start, then resource, then occurrence id.
func SortOccurrences(occs []model.Occurrence) {
	slices.SortFunc(occs, func(a, b model.Occurrence) int {
		return cmp.Or(
			a.Start.Compare(b.Start),
			cmp.Compare(a.ResourceID, b.ResourceID),
			cmp.Compare(a.OccurrenceID, b.OccurrenceID),
		)
	})
}

// RangeQuery selects a calendar window. ResourceID narrows to one resource;
// otherwise HomeID narrows to one home and an empty HomeID means all homes.
type RangeQuery struct {
	ResourceID string
	HomeID     string
	Start      time.Time
	End        time.Time
}

func (s *Store) QueryRange(ctx context.Context, q RangeQuery) ([]model.Occurrence, error) {
	if !q.Start.Before(q.End) {
		return nil, &model.ValidationError{Field: "end", Reason: "window start must be before end", Start: q.Start, End: q.End}
	}

	var resources []model.Resource
	switch {
	case q.ResourceID != "":
		r, err := s.db.GetResource(ctx, q.ResourceID)
		if err != nil {
			return nil, err
		}
		if q.HomeID != "" && r.HomeID != q.HomeID {
			return nil, model.ErrForbidden
		}
		resources = []model.Resource{r}
	case q.HomeID != "":
		rs, err := s.db.LoadResourcesForHome(ctx, q.HomeID)
		if err != nil {
			return nil, err
		}
		resources = rs
	default:
		rs, err := s.db.ListAllResources(ctx)
		if err != nil {
			return nil, err
		}
		resources = rs
	}

	out := []model.Occurrence{}
	for _, r := range resources {
		bookings, err := s.db.LoadBookingsForResource(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, expandAll(bookings, q.Start.UTC(), q.End.UTC())...)
	}
	SortOccurrences(out)
	return out, nil
}

// DeleteSeries removes the series named by id, which may be a series id or
// the id of any of its occurrences.
func (s *Store) DeleteSeries(ctx context.Context, scope model.Scope, id string) error {
	seriesID := model.SeriesIDFromOccurrence(id)
	b, err := s.db.GetBooking(ctx, seriesID)
	if err != nil {
		return err
	}
	res, err := s.db.GetResource(ctx, b.ResourceID)
	if err != nil {
		return err
	}
	if err := s.authorizeHome(ctx, scope, res.HomeID, false); err != nil {
		return err
	}
	if err := s.authorizeDelete(ctx, scope, b, res.HomeID); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, b.ResourceID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.db.DeleteSeries(ctx, seriesID); err != nil {
		return err
	}
	log.Info().Str("series_id", seriesID).Str("resource_id", b.ResourceID).Msg("series deleted")
	s.pub.Publish(TopicBookingDeleted, b)
	return nil
}

// authorizeDelete lets the creator or the home owner remove a series.
// Anonymous and imported bookings carry no creator and stay open to every
// member of the home.
func (s *Store) authorizeDelete(ctx context.Context, scope model.Scope, b model.Booking, homeID string) error {
	if b.CreatedBy == "" || b.CreatedBy == scope.UserID {
		return nil
	}
	if scope.Anonymous() {
		return model.ErrForbidden
	}
	h, err := s.db.GetHome(ctx, homeID)
	if err != nil {
		return err
	}
	if h.OwnerID != scope.UserID {
		return model.ErrForbidden
	}
	return nil
}

// Series returns the stored series of one resource, for feed export.
func (s *Store) Series(ctx context.Context, resourceID string) ([]model.Booking, error) {
	return s.db.LoadBookingsForResource(ctx, resourceID)
}

// Import writes a sync plan without conflict checks or resource locks.
func (s *Store) Import(ctx context.Context, plan db.ImportPlan) error {
	return s.db.ApplyImport(ctx, plan)
}

func (s *Store) BookingExists(ctx context.Context, id string) (bool, error) {
	return s.db.BookingExists(ctx, id)
}
