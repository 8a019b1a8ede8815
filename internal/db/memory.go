package db

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// memoryStore keeps everything in maps. It backs DATABASE_DRIVER=memory and
// tests that do not need SQL.
type memoryStore struct {
	mu        sync.RWMutex
	homes     map[string]model.Home
	resources map[string]model.Resource
	bookings  map[string]model.Booking
}

var _ Store = (*memoryStore)(nil)

func NewMemoryStore() Store {
	return &memoryStore{
		homes:     make(map[string]model.Home),
		resources: make(map[string]model.Resource),
		bookings:  make(map[string]model.Booking),
	}
}

func sortResources(rs []model.Resource) {
	slices.SortFunc(rs, func(a, b model.Resource) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}

func (m *memoryStore) LoadResourcesForHome(_ context.Context, homeID string) ([]model.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Resource{}
	for _, r := range m.resources {
		if r.HomeID == homeID {
			out = append(out, r)
		}
	}
	sortResources(out)
	return out, nil
}

func (m *memoryStore) ListAllResources(_ context.Context) ([]model.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		out = append(out, r)
	}
	sortResources(out)
	return out, nil
}

func (m *memoryStore) GetResource(_ context.Context, id string) (model.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[id]
	if !ok {
		return model.Resource{}, &model.NotFoundError{Kind: "resource", ID: id}
	}
	return r, nil
}

// upsertLocked mirrors the SQL constraints: the home must exist and names are
// unique per home.
func (m *memoryStore) upsertLocked(r model.Resource) error {
	if _, ok := m.homes[r.HomeID]; !ok {
		return fmt.Errorf("upsert resource %s: home %s does not exist", r.ID, r.HomeID)
	}
	for _, other := range m.resources {
		if other.ID != r.ID && other.HomeID == r.HomeID && other.Name == r.Name {
			return fmt.Errorf("upsert resource %s: name %q already used in home %s", r.ID, r.Name, r.HomeID)
		}
	}
	if existing, ok := m.resources[r.ID]; ok {
		existing.Name, existing.Color = r.Name, r.Color
		m.resources[r.ID] = existing
		return nil
	}
	m.resources[r.ID] = r
	return nil
}

func (m *memoryStore) UpsertResource(_ context.Context, r model.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertLocked(r)
}

func (m *memoryStore) DeleteResource(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resources[id]; !ok {
		return &model.NotFoundError{Kind: "resource", ID: id}
	}
	for _, b := range m.bookings {
		if b.ResourceID == id {
			return fmt.Errorf("delete resource %s: bookings still reference it", id)
		}
	}
	delete(m.resources, id)
	return nil
}

func (m *memoryStore) CountBookingsForResource(_ context.Context, resourceID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, b := range m.bookings {
		if b.ResourceID == resourceID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) LoadBookingsForResource(_ context.Context, resourceID string) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Booking{}
	for _, b := range m.bookings {
		if b.ResourceID == resourceID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int {
		return cmp.Or(a.Start.Compare(b.Start), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) GetBooking(_ context.Context, id string) (model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return model.Booking{}, &model.NotFoundError{Kind: "booking", ID: id}
	}
	return b, nil
}

func (m *memoryStore) BookingExists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bookings[id]
	return ok, nil
}

func (m *memoryStore) insertLocked(b model.Booking) error {
	if _, ok := m.resources[b.ResourceID]; !ok {
		return fmt.Errorf("insert series %s: resource %s does not exist", b.ID, b.ResourceID)
	}
	if !b.Start.Before(b.End) {
		return fmt.Errorf("insert series %s: start must precede end", b.ID)
	}
	b.Start, b.End, b.CreatedAt = b.Start.Truncate(time.Second).UTC(), b.End.Truncate(time.Second).UTC(), b.CreatedAt.Truncate(time.Second).UTC()
	b.SeriesID = b.ID
	m.bookings[b.ID] = b
	return nil
}

func (m *memoryStore) InsertSeries(_ context.Context, b model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return fmt.Errorf("insert series %s: id already exists", b.ID)
	}
	return m.insertLocked(b)
}

func (m *memoryStore) DeleteSeries(_ context.Context, seriesID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[seriesID]; !ok {
		return &model.NotFoundError{Kind: "series", ID: seriesID}
	}
	delete(m.bookings, seriesID)
	return nil
}

func (m *memoryStore) GetHome(_ context.Context, id string) (model.Home, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.homes[id]
	if !ok {
		return model.Home{}, &model.NotFoundError{Kind: "home", ID: id}
	}
	h.Members = slices.Clone(h.Members)
	return h, nil
}

func (m *memoryStore) CreateHome(_ context.Context, h model.Home) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.homes[h.ID]; ok {
		return fmt.Errorf("create home %s: id already exists", h.ID)
	}
	h.Members = slices.Clone(h.Members)
	slices.Sort(h.Members)
	h.Members = slices.Compact(h.Members)
	m.homes[h.ID] = h
	return nil
}

func (m *memoryStore) EnsureHome(_ context.Context, h model.Home) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.homes[h.ID]; !ok {
		h.Members = slices.Clone(h.Members)
		m.homes[h.ID] = h
	}
	return nil
}

func (m *memoryStore) ListHomesForUser(_ context.Context, userID string) ([]model.Home, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.Home{}
	for _, h := range m.homes {
		if h.OwnerID == userID || h.HasMember(userID) {
			h.Members = slices.Clone(h.Members)
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b model.Home) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (m *memoryStore) AddMember(_ context.Context, homeID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.homes[homeID]
	if !ok {
		return &model.NotFoundError{Kind: "home", ID: homeID}
	}
	if !slices.Contains(h.Members, userID) {
		h.Members = append(slices.Clone(h.Members), userID)
		slices.Sort(h.Members)
		m.homes[homeID] = h
	}
	return nil
}

// ApplyImport validates the whole plan against a scratch copy before touching
// the live maps, so a failing plan leaves nothing behind.
func (m *memoryStore) ApplyImport(_ context.Context, plan ImportPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	scratch := &memoryStore{
		homes:     maps.Clone(m.homes),
		resources: maps.Clone(m.resources),
		bookings:  maps.Clone(m.bookings),
	}
	if _, ok := scratch.homes[plan.Home.ID]; !ok {
		scratch.homes[plan.Home.ID] = plan.Home
	}
	for _, r := range plan.Resources {
		if err := scratch.upsertLocked(r); err != nil {
			return err
		}
	}
	for _, b := range plan.Bookings {
		if _, ok := scratch.bookings[b.ID]; ok {
			continue
		}
		if err := scratch.insertLocked(b); err != nil {
			return err
		}
	}

	m.homes, m.resources, m.bookings = scratch.homes, scratch.resources, scratch.bookings
	return nil
}

func (m *memoryStore) Close() error { return nil }
