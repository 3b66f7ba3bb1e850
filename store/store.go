// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/servicoja/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique violations and stale status updates.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference is returned when a referenced row does not exist.
	ErrInvalidReference = errors.New("invalid reference")
)

// Storage is the data access layer used by the HTTP handlers.
type Storage interface {
	// Users
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (models.User, error)
	SetUserPassword(ctx context.Context, id, passwordHash string) error

	// Password resets
	CreatePasswordReset(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (string, error)

	// Providers
	GetProvider(ctx context.Context, id string) (models.Provider, error)
	GetProviderByUserID(ctx context.Context, userID string) (models.Provider, error)
	CreateProvider(ctx context.Context, p models.Provider, categoryIDs []string) (models.Provider, error)
	UpdateProvider(ctx context.Context, id string, upd models.ProviderUpdate) (models.Provider, error)
	SetProviderVerified(ctx context.Context, id string, verified bool) (models.Provider, error)
	ListProviders(ctx context.Context, f models.ProviderFilter) ([]models.ProviderSummary, int, error)
	GetProviderDetails(ctx context.Context, id string) (models.ProviderDetails, error)

	// Categories
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	AddProviderCategory(ctx context.Context, providerID, categoryID string) error
	RemoveProviderCategory(ctx context.Context, providerID, categoryID string) error

	// Services
	ListServices(ctx context.Context, providerID string) ([]models.Service, error)
	GetService(ctx context.Context, id string) (models.Service, error)
	CreateService(ctx context.Context, svc models.Service) (models.Service, error)
	UpdateService(ctx context.Context, id string, upd models.ServiceUpdate) (models.Service, error)
	DeleteService(ctx context.Context, id string) error

	// Reviews
	ListReviews(ctx context.Context, providerID string) ([]models.ReviewWithClient, error)
	CreateReview(ctx context.Context, r models.Review) (models.Review, error)

	// Conversations and messages
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	GetOrCreateConversation(ctx context.Context, clientID, providerID string) (models.Conversation, bool, error)
	ListMessages(ctx context.Context, conversationID string, after *time.Time) ([]models.MessageWithSender, error)
	CreateMessage(ctx context.Context, m models.Message) (models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error)

	// Favorites
	ListFavorites(ctx context.Context, userID string) ([]models.FavoriteWithProvider, error)
	AddFavorite(ctx context.Context, userID, providerID string) (models.Favorite, bool, error)
	RemoveFavorite(ctx context.Context, userID, providerID string) error
	IsFavorite(ctx context.Context, userID, providerID string) (bool, error)

	// Orders
	CreateOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error)
	GetOrder(ctx context.Context, id string) (models.ServiceOrder, error)
	GetOrderDetails(ctx context.Context, id string) (models.OrderDetails, error)
	ListOrdersByClient(ctx context.Context, clientID string) ([]models.OrderDetails, error)
	ListOrdersByProvider(ctx context.Context, providerID string) ([]models.OrderDetails, error)
	UpdateOrderStatus(ctx context.Context, id, from, to string, providerNotes *string, at time.Time) (models.ServiceOrder, error)

	Ping(ctx context.Context) error
	Close() error
}

// timestamp returns t in UTC truncated to the precision Postgres keeps.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

var (
	_ Storage = (*PostgresStore)(nil)
	_ Storage = (*MemoryStore)(nil)
)
