// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/servicoja/models"
)

// providerWithUser assembles the provider view. Callers hold mu.
func (s *MemoryStore) providerWithUser(providerID string) models.ProviderWithUser {
	p := s.providers[providerID]
	return models.ProviderWithUser{Provider: p, User: s.users[p.UserID]}
}

func (s *MemoryStore) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ConversationSummary{}
	for _, c := range s.conversations {
		provider := s.providerWithUser(c.ProviderID)
		if c.ClientID != userID && provider.UserID != userID {
			continue
		}
		summary := models.ConversationSummary{
			Conversation: c,
			Client:       s.users[c.ClientID],
			Provider:     provider,
		}
		for _, m := range s.messages {
			if m.ConversationID != c.ID {
				continue
			}
			if m.SenderID != userID && !m.IsRead {
				summary.UnreadCount++
			}
			if summary.LastMessage == nil || m.CreatedAt.After(summary.LastMessage.CreatedAt) {
				last := m
				summary.LastMessage = &last
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, fmt.Errorf("get conversation: %w", ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) GetOrCreateConversation(ctx context.Context, clientID, providerID string) (models.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.conversations {
		if c.ClientID == clientID && c.ProviderID == providerID {
			return c, false, nil
		}
	}
	if _, ok := s.users[clientID]; !ok {
		return models.Conversation{}, false, fmt.Errorf("create conversation: %w: client", ErrInvalidReference)
	}
	if _, ok := s.providers[providerID]; !ok {
		return models.Conversation{}, false, fmt.Errorf("create conversation: %w: provider", ErrInvalidReference)
	}

	now := s.stamp()
	c := models.Conversation{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		ProviderID:    providerID,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	s.conversations[c.ID] = c
	return c, true, nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string, after *time.Time) ([]models.MessageWithSender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.MessageWithSender{}
	for _, m := range s.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if after != nil && !m.CreatedAt.After(*after) {
			continue
		}
		out = append(out, models.MessageWithSender{Message: m, Sender: s.users[m.SenderID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[m.ConversationID]
	if !ok {
		return models.Message{}, fmt.Errorf("create message: %w: conversation", ErrInvalidReference)
	}
	if _, ok := s.users[m.SenderID]; !ok {
		return models.Message{}, fmt.Errorf("create message: %w: sender", ErrInvalidReference)
	}

	m.ID = uuid.NewString()
	m.CreatedAt = s.stamp()
	m.IsRead = false
	s.messages[m.ID] = m

	c.LastMessageAt = m.CreatedAt
	s.conversations[c.ID] = c
	return m, nil
}

func (s *MemoryStore) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, m := range s.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			s.messages[id] = m
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListFavorites(ctx context.Context, userID string) ([]models.FavoriteWithProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.FavoriteWithProvider{}
	for _, f := range s.favorites {
		if f.UserID == userID {
			out = append(out, models.FavoriteWithProvider{Favorite: f, Provider: s.providerWithUser(f.ProviderID)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) findFavorite(userID, providerID string) (models.Favorite, bool) {
	for _, f := range s.favorites {
		if f.UserID == userID && f.ProviderID == providerID {
			return f, true
		}
	}
	return models.Favorite{}, false
}

func (s *MemoryStore) AddFavorite(ctx context.Context, userID, providerID string) (models.Favorite, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.findFavorite(userID, providerID); ok {
		return f, false, nil
	}
	if _, ok := s.users[userID]; !ok {
		return models.Favorite{}, false, fmt.Errorf("add favorite: %w: user", ErrInvalidReference)
	}
	if _, ok := s.providers[providerID]; !ok {
		return models.Favorite{}, false, fmt.Errorf("add favorite: %w: provider", ErrInvalidReference)
	}

	f := models.Favorite{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProviderID: providerID,
		CreatedAt:  s.stamp(),
	}
	s.favorites[f.ID] = f
	return f, true, nil
}

func (s *MemoryStore) RemoveFavorite(ctx context.Context, userID, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.findFavorite(userID, providerID); ok {
		delete(s.favorites, f.ID)
	}
	return nil
}

func (s *MemoryStore) IsFavorite(ctx context.Context, userID, providerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.findFavorite(userID, providerID)
	return ok, nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[o.ClientID]; !ok {
		return models.ServiceOrder{}, fmt.Errorf("create order: %w: client", ErrInvalidReference)
	}
	if _, ok := s.providers[o.ProviderID]; !ok {
		return models.ServiceOrder{}, fmt.Errorf("create order: %w: provider", ErrInvalidReference)
	}
	if o.ServiceID != nil {
		if _, ok := s.services[*o.ServiceID]; !ok {
			return models.ServiceOrder{}, fmt.Errorf("create order: %w: service", ErrInvalidReference)
		}
	}

	o.ID = uuid.NewString()
	o.CreatedAt = s.stamp()
	o.CompletedDate = nil
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (models.ServiceOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return models.ServiceOrder{}, fmt.Errorf("get order: %w", ErrNotFound)
	}
	return o, nil
}

// orderDetails assembles the order view. Callers hold mu.
func (s *MemoryStore) orderDetails(o models.ServiceOrder) models.OrderDetails {
	d := models.OrderDetails{
		ServiceOrder: o,
		Provider:     s.providerWithUser(o.ProviderID),
		Client:       s.users[o.ClientID],
	}
	if o.ServiceID != nil {
		if svc, ok := s.services[*o.ServiceID]; ok {
			d.Service = &svc
		}
	}
	return d
}

func (s *MemoryStore) GetOrderDetails(ctx context.Context, id string) (models.OrderDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return models.OrderDetails{}, fmt.Errorf("get order details: %w", ErrNotFound)
	}
	return s.orderDetails(o), nil
}

func (s *MemoryStore) listOrders(match func(models.ServiceOrder) bool) []models.OrderDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.OrderDetails{}
	for _, o := range s.orders {
		if match(o) {
			out = append(out, s.orderDetails(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) ListOrdersByClient(ctx context.Context, clientID string) ([]models.OrderDetails, error) {
	return s.listOrders(func(o models.ServiceOrder) bool { return o.ClientID == clientID }), nil
}

func (s *MemoryStore) ListOrdersByProvider(ctx context.Context, providerID string) ([]models.OrderDetails, error) {
	return s.listOrders(func(o models.ServiceOrder) bool { return o.ProviderID == providerID }), nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id, from, to string, providerNotes *string, at time.Time) (models.ServiceOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.ServiceOrder{}, fmt.Errorf("update order status: %w", ErrNotFound)
	}
	if o.Status != from {
		return models.ServiceOrder{}, fmt.Errorf("update order status: %w: status is no longer %s", ErrConflict, from)
	}
	o.Status = to
	if providerNotes != nil {
		o.ProviderNotes = providerNotes
	}
	if to == models.OrderCompleted {
		t := timestamp(at)
		o.CompletedDate = &t
	}
	s.orders[id] = o
	return o, nil
}
