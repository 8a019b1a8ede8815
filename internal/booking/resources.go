package booking

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validColor(c string) error {
	if !colorPattern.MatchString(c) {
		return &model.ValidationError{Field: "color", Reason: "must look like #rrggbb"}
	}
	return nil
}

// homeFor picks the home a scope writes resources to.
func homeFor(scope model.Scope) string {
	if scope.HomeID == "" {
		return model.OfflineHomeID
	}
	return scope.HomeID
}

func (s *Store) nameTaken(ctx context.Context, homeID, name, exceptID string) error {
	existing, err := s.db.LoadResourcesForHome(ctx, homeID)
	if err != nil {
		return err
	}
	for _, r := range existing {
		if r.Name == name && r.ID != exceptID {
			return &model.ValidationError{Field: "name", Reason: "a resource named " + name + " already exists"}
		}
	}
	return nil
}

// ListResources lists one home's resources, or every resource when homeID is
// empty.
func (s *Store) ListResources(ctx context.Context, homeID string) ([]model.Resource, error) {
	if homeID == "" {
		return s.db.ListAllResources(ctx)
	}
	return s.db.LoadResourcesForHome(ctx, homeID)
}

func (s *Store) GetResource(ctx context.Context, id string) (model.Resource, error) {
	return s.db.GetResource(ctx, id)
}

func (s *Store) CreateResource(ctx context.Context, scope model.Scope, name, color string) (model.Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Resource{}, &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if color == "" {
		color = model.DefaultColor
	}
	if err := validColor(color); err != nil {
		return model.Resource{}, err
	}

	homeID := homeFor(scope)
	if homeID == model.OfflineHomeID {
		if err := s.EnsureOfflineHome(ctx); err != nil {
			return model.Resource{}, err
		}
	}
	if err := s.authorizeHome(ctx, scope, homeID, true); err != nil {
		return model.Resource{}, err
	}
	if err := s.nameTaken(ctx, homeID, name, ""); err != nil {
		return model.Resource{}, err
	}

	r := model.Resource{ID: uuid.NewString(), HomeID: homeID, Name: name, Color: color}
	if err := s.db.UpsertResource(ctx, r); err != nil {
		return model.Resource{}, err
	}
	log.Info().Str("resource_id", r.ID).Str("home_id", homeID).Msg("resource created")
	s.pub.Publish(TopicResourceChange, r)
	return r, nil
}

// UpdateResource renames or recolors a resource. Nil fields are unchanged.
func (s *Store) UpdateResource(ctx context.Context, scope model.Scope, id string, name, color *string) (model.Resource, error) {
	r, err := s.db.GetResource(ctx, id)
	if err != nil {
		return model.Resource{}, err
	}
	if err := s.authorizeHome(ctx, scope, r.HomeID, true); err != nil {
		return model.Resource{}, err
	}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" {
			return model.Resource{}, &model.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		if err := s.nameTaken(ctx, r.HomeID, n, r.ID); err != nil {
			return model.Resource{}, err
		}
		r.Name = n
	}
	if color != nil {
		if err := validColor(*color); err != nil {
			return model.Resource{}, err
		}
		r.Color = *color
	}
	if err := s.db.UpsertResource(ctx, r); err != nil {
		return model.Resource{}, err
	}
	s.pub.Publish(TopicResourceChange, r)
	return r, nil
}

// DeleteResource refuses with model.ErrInUse while bookings reference the
// resource.
func (s *Store) DeleteResource(ctx context.Context, scope model.Scope, id string) error {
	r, err := s.db.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeHome(ctx, scope, r.HomeID, true); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	n, err := s.db.CountBookingsForResource(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return model.ErrInUse
	}
	if err := s.db.DeleteResource(ctx, id); err != nil {
		return err
	}
	log.Info().Str("resource_id", id).Msg("resource deleted")
	s.pub.Publish(TopicResourceChange, r)
	return nil
}
