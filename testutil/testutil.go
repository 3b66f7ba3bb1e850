// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/servicoja/auth"
	"github.com/danielhkuo/servicoja/cliparse"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

const (
	// TestJWTSecret signs tokens in tests
	TestJWTSecret = "test-jwt-secret-0123456789abcdefghijkl"
	// TestAdminKey guards admin routes in tests
	TestAdminKey = "test-admin-key"
	// TestPassword is the password of every user made by CreateTestUser
	TestPassword = "password123"
)

// GetTestConfig returns a standard test configuration backed by the memory store
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: cliparse.DatabaseMemory,
		JWTSecret:    TestJWTSecret,
		TokenTTL:     time.Hour,
		AdminKey:     TestAdminKey,
		BcryptCost:   bcrypt.MinCost,
		ResetTTL:     time.Hour,
		LogLevel:     slog.LevelError,
	}
}

// NewStore returns an empty in-memory store
func NewStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

// NewTokenIssuer returns an issuer using the test secret and config TTL
func NewTokenIssuer(t *testing.T, cfg cliparse.Config) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		t.Fatalf("Failed to create token issuer: %v", err)
	}
	return issuer
}

// CreateTestUser creates a user whose email is derived from name and whose
// password is TestPassword
func CreateTestUser(t *testing.T, s store.Storage, name, role string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
	user, err := s.CreateUser(context.Background(), models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category with a placeholder icon
func CreateTestCategory(t *testing.T, s store.Storage, name string) models.Category {
	t.Helper()

	c, err := s.CreateCategory(context.Background(), models.Category{Name: name, Icon: "build"})
	if err != nil {
		t.Fatalf("Failed to create test category: %v", err)
	}
	return c
}

// CreateTestProvider creates a provider profile for user
func CreateTestProvider(t *testing.T, s store.Storage, user models.User, city string, categoryIDs ...string) models.Provider {
	t.Helper()

	rate := 1500.0
	p, err := s.CreateProvider(context.Background(), models.Provider{
		UserID:     user.ID,
		City:       city,
		HourlyRate: &rate,
	}, categoryIDs)
	if err != nil {
		t.Fatalf("Failed to create test provider: %v", err)
	}
	return p
}

// CreateTestService creates an active service for a provider
func CreateTestService(t *testing.T, s store.Storage, providerID, name string, price float64) models.Service {
	t.Helper()

	duration := 60
	svc, err := s.CreateService(context.Background(), models.Service{
		ProviderID: providerID,
		Name:       name,
		Price:      &price,
		Duration:   &duration,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("Failed to create test service: %v", err)
	}
	return svc
}

// CreateTestOrder creates a pending order and, when status is not pending,
// walks it through the legal transitions to reach status
func CreateTestOrder(t *testing.T, s store.Storage, clientID, providerID, status string) models.ServiceOrder {
	t.Helper()
	ctx := context.Background()

	o, err := s.CreateOrder(ctx, models.ServiceOrder{
		ClientID:   clientID,
		ProviderID: providerID,
		Status:     models.OrderPending,
	})
	if err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	path := map[string][]string{
		models.OrderAccepted:   {models.OrderAccepted},
		models.OrderInProgress: {models.OrderAccepted, models.OrderInProgress},
		models.OrderCompleted:  {models.OrderAccepted, models.OrderInProgress, models.OrderCompleted},
		models.OrderRejected:   {models.OrderRejected},
		models.OrderCancelled:  {models.OrderCancelled},
	}
	for _, next := range path[status] {
		o, err = s.UpdateOrderStatus(ctx, o.ID, o.Status, next, nil, time.Now())
		if err != nil {
			t.Fatalf("Failed to move test order to %s: %v", next, err)
		}
	}
	return o
}

// AsUser returns a copy of req authenticated as user, as if it had passed
// through Authenticator.Require
func AsUser(req *http.Request, user models.User) *http.Request {
	claims := &auth.Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
		},
	}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}

// BearerHeader issues a token for user and returns it as request headers
func BearerHeader(t *testing.T, issuer *auth.TokenIssuer, user models.User) map[string]string {
	t.Helper()
	token, _, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
