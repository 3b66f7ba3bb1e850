// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/servicoja/auth"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

//go:embed data.yaml
var fixtureYAML []byte

const (
	DefaultPassword = "123456"
	DefaultRandSeed = 2024
)

// Fixture is the demo data set loaded from data.yaml.
type Fixture struct {
	Categories []struct {
		Name        string `yaml:"name"`
		Icon        string `yaml:"icon"`
		Description string `yaml:"description"`
	} `yaml:"categories"`
	Cities    []string `yaml:"cities"`
	Providers []struct {
		Name string `yaml:"name"`
		City string `yaml:"city"`
	} `yaml:"providers"`
	Clients []struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"clients"`
	Descriptions   []string `yaml:"descriptions"`
	ReviewComments []string `yaml:"reviewComments"`
}

// LoadFixture parses the embedded data set.
func LoadFixture() (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(fixtureYAML, &f); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse seed fixture: %w", err)
	}
	if len(f.Categories) == 0 || len(f.Cities) == 0 || len(f.Clients) == 0 ||
		len(f.Descriptions) == 0 || len(f.ReviewComments) == 0 {
		return Fixture{}, errors.New("seed fixture is incomplete")
	}
	return f, nil
}

type Options struct {
	// RandSeed makes a run reproducible. Zero uses DefaultRandSeed.
	RandSeed uint64
	// Password for every seeded account. Empty uses DefaultPassword.
	Password   string
	BcryptCost int
}

// Summary counts what a run created.
type Summary struct {
	Skipped    bool
	Categories int
	Clients    int
	Providers  int
	Services   int
	Reviews    int
}

// Run fills an empty store with demo data. A store that already has
// categories is left untouched.
func Run(ctx context.Context, s store.Storage, opts Options) (Summary, error) {
	existing, err := s.ListCategories(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to check existing data: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("database already seeded, skipping")
		return Summary{Skipped: true}, nil
	}

	fixture, err := LoadFixture()
	if err != nil {
		return Summary{}, err
	}

	if opts.RandSeed == 0 {
		opts.RandSeed = DefaultRandSeed
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	hash, err := auth.HashPassword(opts.Password, opts.BcryptCost)
	if err != nil {
		return Summary{}, err
	}

	sd := &seeder{
		store:   s,
		fixture: fixture,
		rng:     rand.New(rand.NewPCG(opts.RandSeed, opts.RandSeed)),
		hash:    hash,
	}
	if err := sd.run(ctx); err != nil {
		return sd.summary, err
	}

	slog.Info("seed completed",
		"categories", sd.summary.Categories,
		"clients", sd.summary.Clients,
		"providers", sd.summary.Providers,
		"services", sd.summary.Services,
		"reviews", sd.summary.Reviews,
	)
	return sd.summary, nil
}

type seeder struct {
	store   store.Storage
	fixture Fixture
	rng     *rand.Rand
	hash    string
	summary Summary

	categories []models.Category
	clients    []models.User
	providers  []models.Provider
}

func (sd *seeder) run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"categories", sd.seedCategories},
		{"clients", sd.seedClients},
		{"providers", sd.seedProviders},
		{"reviews", sd.seedReviews},
	}
	for _, step := range steps {
		slog.Debug("seeding", "step", step.name)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

func (sd *seeder) seedCategories(ctx context.Context) error {
	for _, c := range sd.fixture.Categories {
		created, err := sd.store.CreateCategory(ctx, models.Category{
			Name:        c.Name,
			Icon:        c.Icon,
			Description: optional(c.Description),
		})
		if err != nil {
			return err
		}
		sd.categories = append(sd.categories, created)
		sd.summary.Categories++
	}
	return nil
}

func (sd *seeder) seedClients(ctx context.Context) error {
	for _, c := range sd.fixture.Clients {
		city := sd.pick(sd.fixture.Cities)
		created, err := sd.store.CreateUser(ctx, models.User{
			Email:        c.Email,
			PasswordHash: sd.hash,
			Name:         c.Name,
			City:         &city,
			Role:         models.RoleClient,
		})
		if err != nil {
			return err
		}
		sd.clients = append(sd.clients, created)
		sd.summary.Clients++
	}
	return nil
}

func (sd *seeder) seedProviders(ctx context.Context) error {
	for i, p := range sd.fixture.Providers {
		city := p.City
		user, err := sd.store.CreateUser(ctx, models.User{
			Email:        fmt.Sprintf("provider%d@servicoja.ao", i+1),
			PasswordHash: sd.hash,
			Name:         p.Name,
			City:         &city,
			Role:         models.RoleProvider,
		})
		if err != nil {
			return err
		}

		rate := float64((sd.rng.IntN(40) + 10) * 100)
		description := sd.pick(sd.fixture.Descriptions)

		// One or two distinct categories
		perm := sd.rng.Perm(len(sd.categories))
		chosen := []models.Category{sd.categories[perm[0]]}
		if sd.rng.IntN(2) == 1 && len(perm) > 1 {
			chosen = append(chosen, sd.categories[perm[1]])
		}
		categoryIDs := make([]string, len(chosen))
		for j, c := range chosen {
			categoryIDs[j] = c.ID
		}

		provider, err := sd.store.CreateProvider(ctx, models.Provider{
			UserID:      user.ID,
			Description: &description,
			HourlyRate:  &rate,
			City:        city,
		}, categoryIDs)
		if err != nil {
			return err
		}

		if sd.rng.Float64() > 0.4 {
			if provider, err = sd.store.SetProviderVerified(ctx, provider.ID, true); err != nil {
				return err
			}
		}
		sd.providers = append(sd.providers, provider)
		sd.summary.Providers++

		if err := sd.seedServices(ctx, provider, chosen[0], rate); err != nil {
			return err
		}
	}
	return nil
}

func (sd *seeder) seedServices(ctx context.Context, p models.Provider, c models.Category, rate float64) error {
	lower := strings.ToLower(c.Name)
	services := []models.Service{{
		Name:        "Serviço de " + c.Name,
		Description: optional(fmt.Sprintf("Oferecemos serviços completos de %s com qualidade garantida.", lower)),
		Price:       &rate,
	}}
	if sd.rng.Float64() > 0.3 {
		half := rate * 0.5
		services = append(services, models.Service{
			Name:        "Consultoria " + c.Name,
			Description: optional(fmt.Sprintf("Avaliação e consultoria especializada em %s.", lower)),
			Price:       &half,
		})
	}

	for _, svc := range services {
		svc.ProviderID = p.ID
		svc.CategoryID = &c.ID
		svc.IsActive = true
		if _, err := sd.store.CreateService(ctx, svc); err != nil {
			return err
		}
		sd.summary.Services++
	}
	return nil
}

func (sd *seeder) seedReviews(ctx context.Context) error {
	for _, p := range sd.providers {
		n := sd.rng.IntN(8) + 2
		for range n {
			var comment *string
			if sd.rng.Float64() > 0.3 {
				comment = optional(sd.pick(sd.fixture.ReviewComments))
			}
			_, err := sd.store.CreateReview(ctx, models.Review{
				ProviderID: p.ID,
				ClientID:   sd.clients[sd.rng.IntN(len(sd.clients))].ID,
				Rating:     sd.rng.IntN(2) + 4,
				Comment:    comment,
			})
			if err != nil {
				return err
			}
			sd.summary.Reviews++
		}
	}
	return nil
}

func (sd *seeder) pick(list []string) string {
	return list[sd.rng.IntN(len(list))]
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
