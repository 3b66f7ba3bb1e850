// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/servicoja/models"
)

type passwordReset struct {
	userID    string
	expiresAt time.Time
	used      bool
}

// MemoryStore implements Storage in process memory. Data is lost on exit;
// it backs DATABASE_TYPE=memory and the handler tests.
type MemoryStore struct {
	mu   sync.RWMutex
	now  func() time.Time
	last time.Time

	users              map[string]models.User
	userByEmail        map[string]string
	resets             map[string]passwordReset
	providers          map[string]models.Provider
	providerByUser     map[string]string
	categories         map[string]models.Category
	providerCategories map[string]map[string]struct{}
	services           map[string]models.Service
	reviews            map[string]models.Review
	conversations      map[string]models.Conversation
	messages           map[string]models.Message
	favorites          map[string]models.Favorite
	orders             map[string]models.ServiceOrder
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:                time.Now,
		users:              make(map[string]models.User),
		userByEmail:        make(map[string]string),
		resets:             make(map[string]passwordReset),
		providers:          make(map[string]models.Provider),
		providerByUser:     make(map[string]string),
		categories:         make(map[string]models.Category),
		providerCategories: make(map[string]map[string]struct{}),
		services:           make(map[string]models.Service),
		reviews:            make(map[string]models.Review),
		conversations:      make(map[string]models.Conversation),
		messages:           make(map[string]models.Message),
		favorites:          make(map[string]models.Favorite),
		orders:             make(map[string]models.ServiceOrder),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

// stamp returns a creation time strictly after the previous one so rows
// created in the same microsecond still have a stable order. Callers hold mu.
func (s *MemoryStore) stamp() time.Time {
	t := timestamp(s.now())
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("get user: %w", ErrNotFound)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userByEmail[models.NormalizeEmail(email)]
	if !ok {
		return models.User{}, fmt.Errorf("get user by email: %w", ErrNotFound)
	}
	return s.users[id], nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = models.NormalizeEmail(u.Email)
	if _, taken := s.userByEmail[u.Email]; taken {
		return models.User{}, fmt.Errorf("create user: %w: email", ErrConflict)
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.stamp()
	if u.Role == "" {
		u.Role = models.RoleClient
	}
	s.users[u.ID] = u
	s.userByEmail[u.Email] = u.ID
	return u, nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("update user: %w", ErrNotFound)
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.City != nil {
		u.City = upd.City
	}
	if upd.PhotoURL != nil {
		u.PhotoURL = upd.PhotoURL
	}
	s.users[id] = u
	return u, nil
}

func (s *MemoryStore) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("set password: %w", ErrNotFound)
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *MemoryStore) CreatePasswordReset(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("create password reset: %w: user", ErrInvalidReference)
	}
	if _, ok := s.resets[tokenHash]; ok {
		return fmt.Errorf("create password reset: %w: token", ErrConflict)
	}
	s.resets[tokenHash] = passwordReset{userID: userID, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resets[tokenHash]
	if !ok || r.used || !r.expiresAt.After(now) {
		return "", fmt.Errorf("consume password reset: %w", ErrNotFound)
	}
	r.used = true
	s.resets[tokenHash] = r
	return r.userID, nil
}
