// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/danielhkuo/servicoja/models"
)

func (s *MemoryStore) GetProvider(ctx context.Context, id string) (models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return models.Provider{}, fmt.Errorf("get provider: %w", ErrNotFound)
	}
	return p, nil
}

func (s *MemoryStore) GetProviderByUserID(ctx context.Context, userID string) (models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.providerByUser[userID]
	if !ok {
		return models.Provider{}, fmt.Errorf("get provider by user: %w", ErrNotFound)
	}
	return s.providers[id], nil
}

func (s *MemoryStore) CreateProvider(ctx context.Context, p models.Provider, categoryIDs []string) (models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[p.UserID]
	if !ok {
		return models.Provider{}, fmt.Errorf("create provider: %w: user", ErrInvalidReference)
	}
	if _, exists := s.providerByUser[p.UserID]; exists {
		return models.Provider{}, fmt.Errorf("create provider: %w: user already has a provider profile", ErrConflict)
	}
	for _, id := range categoryIDs {
		if _, ok := s.categories[id]; !ok {
			return models.Provider{}, fmt.Errorf("create provider: %w: category %s", ErrInvalidReference, id)
		}
	}

	p.ID = uuid.NewString()
	p.CreatedAt = s.stamp()
	p.TotalRatings = 0
	p.AverageRating = 0
	s.providers[p.ID] = p
	s.providerByUser[p.UserID] = p.ID

	links := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		links[id] = struct{}{}
	}
	s.providerCategories[p.ID] = links

	u.Role = models.RoleProvider
	s.users[u.ID] = u
	return p, nil
}

func (s *MemoryStore) UpdateProvider(ctx context.Context, id string, upd models.ProviderUpdate) (models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[id]
	if !ok {
		return models.Provider{}, fmt.Errorf("update provider: %w", ErrNotFound)
	}
	if upd.Description != nil {
		p.Description = upd.Description
	}
	if upd.HourlyRate != nil {
		p.HourlyRate = upd.HourlyRate
	}
	if upd.City != nil {
		p.City = *upd.City
	}
	if upd.WhatsApp != nil {
		p.WhatsApp = upd.WhatsApp
	}
	if upd.Facebook != nil {
		p.Facebook = upd.Facebook
	}
	if upd.IsOnline != nil {
		p.IsOnline = *upd.IsOnline
	}
	s.providers[id] = p
	return p, nil
}

func (s *MemoryStore) SetProviderVerified(ctx context.Context, id string, verified bool) (models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[id]
	if !ok {
		return models.Provider{}, fmt.Errorf("verify provider: %w", ErrNotFound)
	}
	p.IsVerified = verified
	s.providers[id] = p
	return p, nil
}

// categoriesOf returns a provider's categories sorted by name. Callers hold mu.
func (s *MemoryStore) categoriesOf(providerID string) []models.Category {
	out := []models.Category{}
	for id := range s.providerCategories[providerID] {
		if c, ok := s.categories[id]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemoryStore) ListProviders(ctx context.Context, f models.ProviderFilter) ([]models.ProviderSummary, int, error) {
	f = f.Normalize()

	s.mu.RLock()
	matched := make([]models.ProviderSummary, 0, len(s.providers))
	for _, p := range s.providers {
		summary := models.ProviderSummary{
			Provider:   p,
			User:       s.users[p.UserID],
			Categories: s.categoriesOf(p.ID),
		}
		if matchProvider(summary, f) {
			matched = append(matched, summary)
		}
	}
	s.mu.RUnlock()

	sortProviders(matched, f.Sort)
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (s *MemoryStore) GetProviderDetails(ctx context.Context, id string) (models.ProviderDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.providers[id]
	if !ok {
		return models.ProviderDetails{}, fmt.Errorf("get provider details: %w", ErrNotFound)
	}
	return models.ProviderDetails{
		Provider:   p,
		User:       s.users[p.UserID],
		Categories: s.categoriesOf(id),
		Services:   s.servicesOf(id),
		Reviews:    s.reviewsOf(id),
	}, nil
}

func (s *MemoryStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return models.Category{}, fmt.Errorf("create category: %w: name", ErrConflict)
		}
	}
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return c, nil
}

func (s *MemoryStore) AddProviderCategory(ctx context.Context, providerID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[providerID]; !ok {
		return fmt.Errorf("add provider category: %w: provider", ErrInvalidReference)
	}
	if _, ok := s.categories[categoryID]; !ok {
		return fmt.Errorf("add provider category: %w: category", ErrInvalidReference)
	}
	links, ok := s.providerCategories[providerID]
	if !ok {
		links = make(map[string]struct{})
		s.providerCategories[providerID] = links
	}
	links[categoryID] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveProviderCategory(ctx context.Context, providerID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := s.providerCategories[providerID]
	if _, ok := links[categoryID]; !ok {
		return fmt.Errorf("remove provider category: %w", ErrNotFound)
	}
	delete(links, categoryID)
	return nil
}

// servicesOf returns a provider's services oldest first. Callers hold mu.
func (s *MemoryStore) servicesOf(providerID string) []models.Service {
	out := []models.Service{}
	for _, svc := range s.services {
		if svc.ProviderID == providerID {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) ListServices(ctx context.Context, providerID string) ([]models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.servicesOf(providerID), nil
}

func (s *MemoryStore) GetService(ctx context.Context, id string) (models.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return models.Service{}, fmt.Errorf("get service: %w", ErrNotFound)
	}
	return svc, nil
}

func (s *MemoryStore) CreateService(ctx context.Context, svc models.Service) (models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[svc.ProviderID]; !ok {
		return models.Service{}, fmt.Errorf("create service: %w: provider", ErrInvalidReference)
	}
	if svc.CategoryID != nil {
		if _, ok := s.categories[*svc.CategoryID]; !ok {
			return models.Service{}, fmt.Errorf("create service: %w: category", ErrInvalidReference)
		}
	}
	svc.ID = uuid.NewString()
	svc.CreatedAt = s.stamp()
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *MemoryStore) UpdateService(ctx context.Context, id string, upd models.ServiceUpdate) (models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return models.Service{}, fmt.Errorf("update service: %w", ErrNotFound)
	}
	if upd.CategoryID != nil {
		if _, ok := s.categories[*upd.CategoryID]; !ok {
			return models.Service{}, fmt.Errorf("update service: %w: category", ErrInvalidReference)
		}
		svc.CategoryID = upd.CategoryID
	}
	if upd.Name != nil {
		svc.Name = *upd.Name
	}
	if upd.Description != nil {
		svc.Description = upd.Description
	}
	if upd.Price != nil {
		svc.Price = upd.Price
	}
	if upd.Duration != nil {
		svc.Duration = upd.Duration
	}
	if upd.PhotoURL != nil {
		svc.PhotoURL = upd.PhotoURL
	}
	if upd.IsActive != nil {
		svc.IsActive = *upd.IsActive
	}
	s.services[id] = svc
	return svc, nil
}

func (s *MemoryStore) DeleteService(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[id]; !ok {
		return fmt.Errorf("delete service: %w", ErrNotFound)
	}
	delete(s.services, id)
	for oid, o := range s.orders {
		if o.ServiceID != nil && *o.ServiceID == id {
			o.ServiceID = nil
			s.orders[oid] = o
		}
	}
	return nil
}

// reviewsOf returns a provider's reviews newest first. Callers hold mu.
func (s *MemoryStore) reviewsOf(providerID string) []models.ReviewWithClient {
	out := []models.ReviewWithClient{}
	for _, r := range s.reviews {
		if r.ProviderID == providerID {
			out = append(out, models.ReviewWithClient{Review: r, Client: s.users[r.ClientID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) ListReviews(ctx context.Context, providerID string) ([]models.ReviewWithClient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviewsOf(providerID), nil
}

func (s *MemoryStore) CreateReview(ctx context.Context, r models.Review) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.providers[r.ProviderID]
	if !ok {
		return models.Review{}, fmt.Errorf("create review: %w: provider", ErrInvalidReference)
	}
	if _, ok := s.users[r.ClientID]; !ok {
		return models.Review{}, fmt.Errorf("create review: %w: client", ErrInvalidReference)
	}
	if r.OrderID != nil {
		if _, ok := s.orders[*r.OrderID]; !ok {
			return models.Review{}, fmt.Errorf("create review: %w: order", ErrInvalidReference)
		}
		for _, existing := range s.reviews {
			if existing.OrderID != nil && *existing.OrderID == *r.OrderID {
				return models.Review{}, fmt.Errorf("create review: %w: order already reviewed", ErrConflict)
			}
		}
	}

	r.ID = uuid.NewString()
	r.CreatedAt = s.stamp()
	s.reviews[r.ID] = r

	var ratings []int
	for _, existing := range s.reviews {
		if existing.ProviderID == r.ProviderID {
			ratings = append(ratings, existing.Rating)
		}
	}
	p.TotalRatings = len(ratings)
	p.AverageRating = averageRating(ratings)
	s.providers[p.ID] = p
	return r, nil
}
