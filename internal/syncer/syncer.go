// Package syncer pulls resources and events from another fleet instance into
// the local Offline Home. The merge is one-way and create-only for events:
// nothing local is ever deleted, and a re-run against an unchanged remote
// writes nothing.
package syncer

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/db"
	"github.com/Nixie-Tech-LLC/fleet/internal/ics"
	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

const (
	DefaultTimeout = 15 * time.Second

	TopicSyncCompleted = "fleet/sync/completed"

	untitled = "Imported event"
)

// importNamespace seeds the deterministic ids of imported bookings.
var importNamespace = uuid.MustParse("5b0f4a3e-9d2c-4c7e-8a51-0f6d2b9e7c11")

// ImportKey is the local booking id of remote event uid on local resource
// resourceID.
func ImportKey(uid, resourceID string) string {
	return uuid.NewSHA1(importNamespace, []byte(uid+"\x00"+resourceID)).String()
}

// Target is the local side of a sync.
type Target interface {
	ListResources(ctx context.Context, homeID string) ([]model.Resource, error)
	BookingExists(ctx context.Context, id string) (bool, error)
	Import(ctx context.Context, plan db.ImportPlan) error
}

type Publisher interface {
	Publish(topic string, payload any)
}

type Reconciler struct {
	target  Target
	client  *http.Client
	timeout time.Duration
	pub     Publisher
	now     func() time.Time

	// one run at a time, so two runs cannot both plan the same new resource
	mu sync.Mutex
}

type Option func(*Reconciler)

func WithHTTPClient(c *http.Client) Option { return func(r *Reconciler) { r.client = c } }

func WithPublisher(p Publisher) Option { return func(r *Reconciler) { r.pub = p } }

func WithClock(now func() time.Time) Option { return func(r *Reconciler) { r.now = now } }

func New(target Target, timeout time.Duration, opts ...Option) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Reconciler{
		target:  target,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeBaseURL checks that raw is an absolute http(s) URL and drops any
// trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &model.ValidationError{Field: "base_url", Reason: "must be an absolute http or https URL"}
	}
	return strings.TrimRight(raw, "/"), nil
}

// Sync fetches the remote snapshot, plans the merge and applies it in one
// step. Any error leaves local state untouched.
func (r *Reconciler) Sync(ctx context.Context, remoteBaseURL string) (model.SyncImportResult, error) {
	base, err := NormalizeBaseURL(remoteBaseURL)
	if err != nil {
		return model.SyncImportResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// the timeout bounds the remote calls only; plan and apply run on ctx
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resourcesURL := base + "/api/resources"
	feedURL := base + "/ics/all.ics"

	body, err := r.get(fetchCtx, model.StepFetchResources, resourcesURL)
	if err != nil {
		return model.SyncImportResult{}, err
	}
	remote, err := parseResources(resourcesURL, body)
	if err != nil {
		return model.SyncImportResult{}, err
	}

	feed, err := r.get(fetchCtx, model.StepFetchFeed, feedURL)
	if err != nil {
		return model.SyncImportResult{}, err
	}
	cancel()

	events, skipped, err := ics.Parse(feed)
	if err != nil {
		return model.SyncImportResult{}, &model.SyncError{Step: model.StepParseFeed, URL: feedURL, Cause: err}
	}

	plan, res, err := r.plan(ctx, remote, events)
	if err != nil {
		return model.SyncImportResult{}, &model.SyncError{Step: model.StepApply, Cause: err}
	}
	res.EventsSkipped += skipped

	if len(plan.Resources) > 0 || len(plan.Bookings) > 0 {
		if err := r.target.Import(ctx, plan); err != nil {
			log.Error().Err(err).Str("base_url", base).Msg("sync apply failed")
			return model.SyncImportResult{}, &model.SyncError{Step: model.StepApply, Cause: err}
		}
	}

	log.Info().
		Str("base_url", base).
		Int("resources_created", res.ResourcesCreated).
		Int("resources_updated", res.ResourcesUpdated).
		Int("events_imported", res.EventsImported).
		Int("events_skipped", res.EventsSkipped).
		Msg("sync completed")
	if r.pub != nil {
		r.pub.Publish(TopicSyncCompleted, res)
	}
	return res, nil
}

// plan maps remote resources onto the Offline Home by exact name and turns
// every not yet imported event into a single booking.
func (r *Reconciler) plan(ctx context.Context, remote []RemoteResource, events []ics.Event) (db.ImportPlan, model.SyncImportResult, error) {
	var res model.SyncImportResult
	home := model.OfflineHome()
	home.CreatedAt = r.now().UTC()
	plan := db.ImportPlan{Home: home}

	local, err := r.target.ListResources(ctx, model.OfflineHomeID)
	if err != nil {
		return plan, res, err
	}
	byName := make(map[string]model.Resource, len(local))
	for _, l := range local {
		byName[l.Name] = l
	}

	byRemoteID := make(map[string]model.Resource, len(remote))
	seen := make(map[string]bool, len(remote))
	for _, rr := range remote {
		if strings.TrimSpace(rr.Name) == "" || seen[rr.Name] {
			continue
		}
		seen[rr.Name] = true

		l, ok := byName[rr.Name]
		switch {
		case !ok:
			color := rr.Color
			if color == "" {
				color = model.DefaultColor
			}
			l = model.Resource{ID: uuid.NewString(), HomeID: model.OfflineHomeID, Name: rr.Name, Color: color}
			plan.Resources = append(plan.Resources, l)
			res.ResourcesCreated++
		case rr.Color != "" && rr.Color != l.Color:
			l.Color = rr.Color
			plan.Resources = append(plan.Resources, l)
			res.ResourcesUpdated++
		}
		byName[l.Name] = l
		if rr.ID != "" {
			byRemoteID[rr.ID] = l
		}
	}

	// longest first so "Car 10: x" does not resolve to "Car 1"
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	planned := make(map[string]bool)
	for _, ev := range events {
		target, ok := resolve(ev, byRemoteID, byName, names)
		if !ok {
			log.Warn().Str("uid", ev.UID).Str("summary", ev.Summary).Msg("sync event has no known resource")
			res.EventsSkipped++
			continue
		}

		key := ImportKey(ev.UID, target.ID)
		if planned[key] {
			continue
		}
		exists, err := r.target.BookingExists(ctx, key)
		if err != nil {
			return plan, res, err
		}
		if exists {
			continue
		}
		planned[key] = true

		title := strings.TrimSpace(ics.StripResourcePrefix(ev.Summary, target.Name))
		if title == "" {
			title = untitled
		}
		plan.Bookings = append(plan.Bookings, model.Booking{
			ID:         key,
			SeriesID:   key,
			ResourceID: target.ID,
			Title:      title,
			Start:      ev.Start,
			End:        ev.End,
			Source:     model.SourceSync,
			CreatedAt:  r.now().UTC().Truncate(time.Second),
		})
		res.EventsImported++
	}
	return plan, res, nil
}

func resolve(ev ics.Event, byRemoteID, byName map[string]model.Resource, names []string) (model.Resource, bool) {
	if ev.ResourceID != "" {
		if r, ok := byRemoteID[ev.ResourceID]; ok {
			return r, true
		}
	}
	if ev.ResourceName != "" {
		if r, ok := byName[ev.ResourceName]; ok {
			return r, true
		}
	}
	for _, n := range names {
		if strings.HasPrefix(ev.Summary, ics.Summary(n, "")) {
			return byName[n], true
		}
	}
	return model.Resource{}, false
}
