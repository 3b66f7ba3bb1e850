package models

import "time"

// User roles
const (
	RoleClient   = "client"
	RoleProvider = "provider"
)

// Domain types

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	Name         string    `json:"name" db:"name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	City         *string   `json:"city,omitempty" db:"city"`
	PhotoURL     *string   `json:"photoUrl,omitempty" db:"photo_url"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

type Provider struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"userId" db:"user_id"`
	Description   *string   `json:"description,omitempty" db:"description"`
	HourlyRate    *float64  `json:"hourlyRate,omitempty" db:"hourly_rate"`
	City          string    `json:"city" db:"city"`
	WhatsApp      *string   `json:"whatsapp,omitempty" db:"whatsapp"`
	Facebook      *string   `json:"facebook,omitempty" db:"facebook"`
	IsVerified    bool      `json:"isVerified" db:"is_verified"`
	IsOnline      bool      `json:"isOnline" db:"is_online"`
	TotalRatings  int       `json:"totalRatings" db:"total_ratings"`
	AverageRating float64   `json:"averageRating" db:"average_rating"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type Category struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Icon        string  `json:"icon" db:"icon"`
	Description *string `json:"description,omitempty" db:"description"`
}

type Service struct {
	ID          string    `json:"id" db:"id"`
	ProviderID  string    `json:"providerId" db:"provider_id"`
	CategoryID  *string   `json:"categoryId,omitempty" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Price       *float64  `json:"price,omitempty" db:"price"`
	Duration    *int      `json:"duration,omitempty" db:"duration"` // minutes
	PhotoURL    *string   `json:"photoUrl,omitempty" db:"photo_url"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type Review struct {
	ID         string    `json:"id" db:"id"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	ClientID   string    `json:"clientId" db:"client_id"`
	OrderID    *string   `json:"orderId,omitempty" db:"order_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type Conversation struct {
	ID            string    `json:"id" db:"id"`
	ClientID      string    `json:"clientId" db:"client_id"`
	ProviderID    string    `json:"providerId" db:"provider_id"`
	LastMessageAt time.Time `json:"lastMessageAt" db:"last_message_at"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	SenderID       string    `json:"senderId" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	IsRead         bool      `json:"isRead" db:"is_read"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

type Favorite struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type ServiceOrder struct {
	ID            string     `json:"id" db:"id"`
	ClientID      string     `json:"clientId" db:"client_id"`
	ProviderID    string     `json:"providerId" db:"provider_id"`
	ServiceID     *string    `json:"serviceId,omitempty" db:"service_id"`
	Status        string     `json:"status" db:"status"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty" db:"scheduled_date"`
	CompletedDate *time.Time `json:"completedDate,omitempty" db:"completed_date"`
	Price         *float64   `json:"price,omitempty" db:"price"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	ClientNotes   *string    `json:"clientNotes,omitempty" db:"client_notes"`
	ProviderNotes *string    `json:"providerNotes,omitempty" db:"provider_notes"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
}

// Composite views

type ProviderWithUser struct {
	Provider
	User User `json:"user"`
}

type ProviderSummary struct {
	Provider
	User       User       `json:"user"`
	Categories []Category `json:"categories" db:"-"`
}

type ProviderDetails struct {
	Provider
	User       User               `json:"user"`
	Categories []Category         `json:"categories" db:"-"`
	Services   []Service          `json:"services" db:"-"`
	Reviews    []ReviewWithClient `json:"reviews" db:"-"`
}

type ReviewWithClient struct {
	Review
	Client User `json:"client"`
}

type MessageWithSender struct {
	Message
	Sender User `json:"sender"`
}

type ConversationSummary struct {
	Conversation
	Client      User             `json:"client"`
	Provider    ProviderWithUser `json:"provider"`
	LastMessage *Message         `json:"lastMessage,omitempty" db:"-"`
	UnreadCount int              `json:"unreadCount" db:"unread_count"`
}

type FavoriteWithProvider struct {
	Favorite
	Provider ProviderWithUser `json:"provider"`
}

type OrderDetails struct {
	ServiceOrder
	Service  *Service         `json:"service,omitempty" db:"-"`
	Provider ProviderWithUser `json:"provider"`
	Client   User             `json:"client"`
}

// Provider listing

// Provider sort keys
const (
	SortByRating = "rating"
	SortByPrice  = "price"
	SortByName   = "name"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ProviderFilter struct {
	CategoryID string
	City       string
	MinRating  *float64
	MaxPrice   *float64
	Search     string
	Sort       string
	Limit      int
	Offset     int
}

// Normalize fills in defaults and clamps paging values.
func (f ProviderFilter) Normalize() ProviderFilter {
	switch f.Sort {
	case SortByRating, SortByPrice, SortByName:
	default:
		f.Sort = SortByRating
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Partial updates. Nil fields are left untouched.

type UserUpdate struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
	PhotoURL *string `json:"photoUrl"`
}

type ProviderUpdate struct {
	Description *string  `json:"description"`
	HourlyRate  *float64 `json:"hourlyRate"`
	City        *string  `json:"city"`
	WhatsApp    *string  `json:"whatsapp"`
	Facebook    *string  `json:"facebook"`
	IsOnline    *bool    `json:"isOnline"`
}

type ServiceUpdate struct {
	CategoryID  *string  `json:"categoryId"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Duration    *int     `json:"duration"`
	PhotoURL    *string  `json:"photoUrl"`
	IsActive    *bool    `json:"isActive"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
