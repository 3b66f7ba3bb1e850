// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/servicoja/auth"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

func testOptions() Options {
	return Options{RandSeed: 7, BcryptCost: bcrypt.MinCost}
}

func TestLoadFixture(t *testing.T) {
	f, err := LoadFixture()
	require.NoError(t, err)

	assert.Len(t, f.Categories, 8)
	assert.Len(t, f.Cities, 10)
	assert.Len(t, f.Providers, 20)
	assert.Len(t, f.Clients, 5)
	assert.Len(t, f.Descriptions, 10)
	assert.Len(t, f.ReviewComments, 10)

	for _, p := range f.Providers {
		assert.Contains(t, f.Cities, p.City, "provider %s", p.Name)
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	sum, err := Run(ctx, s, testOptions())
	require.NoError(t, err)

	assert.False(t, sum.Skipped)
	assert.Equal(t, 8, sum.Categories)
	assert.Equal(t, 5, sum.Clients)
	assert.Equal(t, 20, sum.Providers)
	assert.GreaterOrEqual(t, sum.Services, 20)
	assert.LessOrEqual(t, sum.Services, 40)
	assert.GreaterOrEqual(t, sum.Reviews, 40)
	assert.LessOrEqual(t, sum.Reviews, 180)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 8)

	providers, total, err := s.ListProviders(ctx, models.ProviderFilter{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 20, total)

	reviews := 0
	for _, p := range providers {
		require.NotNil(t, p.HourlyRate)
		assert.GreaterOrEqual(t, *p.HourlyRate, 1000.0)
		assert.LessOrEqual(t, *p.HourlyRate, 4900.0)
		assert.NotEmpty(t, p.Categories)
		assert.LessOrEqual(t, len(p.Categories), 2)
		assert.Equal(t, models.RoleProvider, p.User.Role)

		// Ratings are 4 or 5 and the aggregate follows the reviews
		assert.GreaterOrEqual(t, p.TotalRatings, 2)
		assert.GreaterOrEqual(t, p.AverageRating, 4.0)
		assert.LessOrEqual(t, p.AverageRating, 5.0)
		reviews += p.TotalRatings
	}
	assert.Equal(t, sum.Reviews, reviews)
}

func TestRunAccountsCanLogIn(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := Run(ctx, s, testOptions())
	require.NoError(t, err)

	for _, email := range []string{"cliente1@teste.com", "provider1@servicoja.ao"} {
		u, err := s.GetUserByEmail(ctx, email)
		require.NoError(t, err, email)
		assert.NoError(t, auth.CheckPassword(u.PasswordHash, DefaultPassword), email)
	}
}

func TestRunSkipsSeededStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.CreateCategory(ctx, models.Category{Name: "Existing", Icon: "star"})
	require.NoError(t, err)

	sum, err := Run(ctx, s, testOptions())
	require.NoError(t, err)
	assert.True(t, sum.Skipped)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	// A second run on a freshly seeded store is a no-op too
	s2 := store.NewMemoryStore()
	_, err = Run(ctx, s2, testOptions())
	require.NoError(t, err)
	sum, err = Run(ctx, s2, testOptions())
	require.NoError(t, err)
	assert.True(t, sum.Skipped)
}

func TestRunIsReproducible(t *testing.T) {
	ctx := context.Background()

	first, err := Run(ctx, store.NewMemoryStore(), testOptions())
	require.NoError(t, err)
	second, err := Run(ctx, store.NewMemoryStore(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
