// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/testutil"
)

// TestConcurrentReviewsForOneOrder verifies that when several requests try to
// review the same completed order, exactly one succeeds.
func TestConcurrentReviewsForOneOrder(t *testing.T) {
	s := testutil.NewStore(t)
	handler := NewReviewHandler(s)

	provider := testutil.CreateTestProvider(t, s, testutil.CreateTestUser(t, s, "Pedro", models.RoleClient), "Benguela")
	client := testutil.CreateTestUser(t, s, "Rosa", models.RoleClient)
	order := testutil.CreateTestOrder(t, s, client.ID, provider.ID, models.OrderCompleted)

	const attempts = 8
	var created, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()

			body := models.CreateReviewRequest{ProviderID: provider.ID, OrderID: &order.ID, Rating: rating}
			req := testutil.AsUser(testutil.MakeRequest(http.MethodPost, "/api/reviews", body, nil), client)
			w := serve(handler.CreateReview, req)

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			}
		}(i%5 + 1)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "exactly one review wins")
	assert.Equal(t, int32(attempts-1), conflicts.Load())

	reviews, err := s.ListReviews(context.Background(), provider.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)

	p, err := s.GetProvider(context.Background(), provider.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalRatings)
}

// TestConcurrentConversationStarts verifies that racing requests for the same
// client and provider all land in one conversation.
func TestConcurrentConversationStarts(t *testing.T) {
	s := testutil.NewStore(t)
	handler := NewConversationHandler(s)

	provider := testutil.CreateTestProvider(t, s, testutil.CreateTestUser(t, s, "Helena", models.RoleClient), "Luanda")
	client := testutil.CreateTestUser(t, s, "Joaquim", models.RoleClient)

	const attempts = 10
	ids := make([]string, attempts)
	var createdCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			body := models.CreateConversationRequest{ProviderID: provider.ID}
			req := testutil.AsUser(testutil.MakeRequest(http.MethodPost, "/api/conversations", body, nil), client)
			w := serve(handler.CreateConversation, req)
			if w.Code == http.StatusCreated {
				createdCount.Add(1)
			}

			// require must not be called off the test goroutine
			var conv models.Conversation
			if err := json.Unmarshal(w.Body.Bytes(), &conv); err == nil {
				ids[idx] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

// TestConcurrentFavorites verifies that favoriting is idempotent under load
// and that different users do not interfere.
func TestConcurrentFavorites(t *testing.T) {
	s := testutil.NewStore(t)
	handler := NewFavoriteHandler(s)

	provider := testutil.CreateTestProvider(t, s, testutil.CreateTestUser(t, s, "Luis", models.RoleClient), "Huambo")
	users := []models.User{
		testutil.CreateTestUser(t, s, "Ana", models.RoleClient),
		testutil.CreateTestUser(t, s, "Beatriz", models.RoleClient),
		testutil.CreateTestUser(t, s, "Carlos", models.RoleClient),
	}

	var wg sync.WaitGroup
	var created atomic.Int32
	for _, u := range users {
		for j := 0; j < 5; j++ {
			wg.Add(1)
			go func(u models.User) {
				defer wg.Done()
				body := models.FavoriteRequest{ProviderID: provider.ID}
				req := testutil.AsUser(testutil.MakeRequest(http.MethodPost, "/api/favorites", body, nil), u)
				if serve(handler.AddFavorite, req).Code == http.StatusCreated {
					created.Add(1)
				}
			}(u)
		}
	}
	wg.Wait()

	assert.Equal(t, int32(len(users)), created.Load())
	for _, u := range users {
		favs, err := s.ListFavorites(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Len(t, favs, 1, u.Name)
	}
}
