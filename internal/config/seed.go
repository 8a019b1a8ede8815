package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Nixie-Tech-LLC/fleet/internal/model"
)

// Seed is the YAML document named by SEED_FILE:
//
//	resources:
//	  - name: Car 1
//	    color: "#3788d8"
//	homes:
//	  - name: Lake House
//	    owner: alice
//	    members: [bob]
//	    resources:
//	      - name: Kayak
//
// Top-level resources go to the offline home.
type Seed struct {
	Resources []SeedResource `yaml:"resources"`
	Homes     []SeedHome     `yaml:"homes"`
}

type SeedResource struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

type SeedHome struct {
	Name      string         `yaml:"name"`
	Owner     string         `yaml:"owner"`
	Members   []string       `yaml:"members"`
	Resources []SeedResource `yaml:"resources"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, h := range seed.Homes {
		if h.Name == "" || h.Owner == "" {
			return nil, fmt.Errorf("seed home %d: name and owner are required", i)
		}
	}
	return &seed, nil
}

// SeedTarget is the part of the booking engine a seed writes through.
type SeedTarget interface {
	ListHomes(ctx context.Context, scope model.Scope) ([]model.Home, error)
	CreateHome(ctx context.Context, scope model.Scope, name string) (model.Home, error)
	AddMember(ctx context.Context, scope model.Scope, homeID, userID string) error
	ListResources(ctx context.Context, homeID string) ([]model.Resource, error)
	CreateResource(ctx context.Context, scope model.Scope, name, color string) (model.Resource, error)
}

// Apply creates whatever the seed names that does not exist yet. Homes are
// matched by owner and name, resources by name within their home, so running
// it on every start is safe.
func (s *Seed) Apply(ctx context.Context, t SeedTarget) error {
	if err := seedResources(ctx, t, model.Scope{}, model.OfflineHomeID, s.Resources); err != nil {
		return err
	}

	for _, sh := range s.Homes {
		owner := model.Scope{UserID: sh.Owner}
		homes, err := t.ListHomes(ctx, owner)
		if err != nil {
			return err
		}
		var home *model.Home
		for i := range homes {
			if homes[i].Name == sh.Name && homes[i].OwnerID == sh.Owner {
				home = &homes[i]
				break
			}
		}
		if home == nil {
			h, err := t.CreateHome(ctx, owner, sh.Name)
			if err != nil {
				return fmt.Errorf("seed home %q: %w", sh.Name, err)
			}
			home = &h
		}
		for _, m := range sh.Members {
			if home.HasMember(m) {
				continue
			}
			if err := t.AddMember(ctx, owner, home.ID, m); err != nil {
				return fmt.Errorf("seed member %q of %q: %w", m, sh.Name, err)
			}
		}
		owner.HomeID = home.ID
		if err := seedResources(ctx, t, owner, home.ID, sh.Resources); err != nil {
			return err
		}
	}
	return nil
}

func seedResources(ctx context.Context, t SeedTarget, scope model.Scope, homeID string, want []SeedResource) error {
	if len(want) == 0 {
		return nil
	}
	existing, err := t.ListResources(ctx, homeID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, r := range existing {
		have[r.Name] = true
	}
	for _, r := range want {
		name := strings.TrimSpace(r.Name)
		if have[name] {
			continue
		}
		created, err := t.CreateResource(ctx, scope, name, r.Color)
		if err != nil {
			return fmt.Errorf("seed resource %q: %w", name, err)
		}
		have[created.Name] = true
		log.Info().Str("resource", created.Name).Str("home_id", homeID).Msg("seeded resource")
	}
	return nil
}
