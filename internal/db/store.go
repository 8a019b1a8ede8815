// exposes a Store interface that the booking engine and sync reconciler use
// for all persistence
package db

import (
	"context"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// ImportPlan is everything one sync run writes. ApplyImport commits it as a
// whole or not at all.
type ImportPlan struct {
	Home      model.Home
	Resources []model.Resource // created or recolored
	Bookings  []model.Booking  // ids already present are left untouched
}

type Store interface {
	// resource functions
	LoadResourcesForHome(ctx context.Context, homeID string) ([]model.Resource, error)
	ListAllResources(ctx context.Context) ([]model.Resource, error)
	GetResource(ctx context.Context, id string) (model.Resource, error)
	UpsertResource(ctx context.Context, r model.Resource) error
	DeleteResource(ctx context.Context, id string) error
	CountBookingsForResource(ctx context.Context, resourceID string) (int, error)

	// booking functions
	LoadBookingsForResource(ctx context.Context, resourceID string) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	BookingExists(ctx context.Context, id string) (bool, error)
	InsertSeries(ctx context.Context, b model.Booking) error
	DeleteSeries(ctx context.Context, seriesID string) error

	// home functions
	GetHome(ctx context.Context, id string) (model.Home, error)
	CreateHome(ctx context.Context, h model.Home) error
	EnsureHome(ctx context.Context, h model.Home) error
	ListHomesForUser(ctx context.Context, userID string) ([]model.Home, error)
	AddMember(ctx context.Context, homeID, userID string) error

	ApplyImport(ctx context.Context, plan ImportPlan) error
	Close() error
}
