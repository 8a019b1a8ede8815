package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// authorizeHome checks that scope may act on homeID. The offline home is open
// to everyone; other homes need membership, or ownership when ownerOnly.
func (s *Store) authorizeHome(ctx context.Context, scope model.Scope, homeID string, ownerOnly bool) error {
	if homeID == model.OfflineHomeID {
		return nil
	}
	if scope.Anonymous() {
		return model.ErrForbidden
	}
	h, err := s.db.GetHome(ctx, homeID)
	if err != nil {
		return err
	}
	if ownerOnly && h.OwnerID != scope.UserID {
		return model.ErrForbidden
	}
	if !h.HasMember(scope.UserID) {
		return model.ErrForbidden
	}
	return nil
}

// EnsureOfflineHome creates the synthetic home that anonymous users and sync
// imports write to.
func (s *Store) EnsureOfflineHome(ctx context.Context) error {
	h := model.OfflineHome()
	h.CreatedAt = s.now().UTC()
	return s.db.EnsureHome(ctx, h)
}

func (s *Store) CreateHome(ctx context.Context, scope model.Scope, name string) (model.Home, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Home{}, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if scope.Anonymous() {
		return model.Home{}, model.ErrForbidden
	}
	h := model.Home{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   scope.UserID,
		Members:   []string{scope.UserID},
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.CreateHome(ctx, h); err != nil {
		return model.Home{}, err
	}
	return h, nil
}

// GetHome returns homeID if scope may see it.
func (s *Store) GetHome(ctx context.Context, scope model.Scope, homeID string) (model.Home, error) {
	if err := s.authorizeHome(ctx, scope, homeID, false); err != nil {
		return model.Home{}, err
	}
	return s.db.GetHome(ctx, homeID)
}

// ListHomes returns the homes the user belongs to. Anonymous callers only see
// the offline home.
func (s *Store) ListHomes(ctx context.Context, scope model.Scope) ([]model.Home, error) {
	if scope.Anonymous() {
		h, err := s.db.GetHome(ctx, model.OfflineHomeID)
		var nf *model.NotFoundError
		if errors.As(err, &nf) {
			return []model.Home{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []model.Home{h}, nil
	}
	return s.db.ListHomesForUser(ctx, scope.UserID)
}

func (s *Store) AddMember(ctx context.Context, scope model.Scope, homeID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &model.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if homeID == model.OfflineHomeID {
		return &model.ValidationError{Field: "home_id", Reason: "the offline home has no members"}
	}
	if err := s.authorizeHome(ctx, scope, homeID, true); err != nil {
		return err
	}
	return s.db.AddMember(ctx, homeID, userID)
}
