package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinPasswordLen    = 6
	MaxPasswordLen    = 72 // bcrypt input limit
	MaxMessageLen     = 4000
	MaxNameLen        = 120
	MaxDescriptionLen = 2000
)

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Request types

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
	Role     string  `json:"role"`
}

// Validate normalizes the request in place and checks required fields.
func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Email == "" || r.Password == "" || r.Name == "" {
		return invalid("", "email, password and name are required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return invalid("email", "is not a valid address")
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLen {
		return invalid("name", "must be at most %d characters", MaxNameLen)
	}
	if r.Role == "" {
		r.Role = RoleClient
	}
	if r.Role != RoleClient && r.Role != RoleProvider {
		return invalid("role", "must be one of: client, provider")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Description *string `json:"description"`
}

func (r *CreateCategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Icon = strings.TrimSpace(r.Icon)
	if r.Name == "" {
		return invalid("name", "is required")
	}
	if r.Icon == "" {
		return invalid("icon", "is required")
	}
	return nil
}

type CreateProviderRequest struct {
	UserID      string   `json:"userId"` // optional, must match the caller
	Description *string  `json:"description"`
	HourlyRate  *float64 `json:"hourlyRate"`
	City        string   `json:"city"`
	WhatsApp    *string  `json:"whatsapp"`
	Facebook    *string  `json:"facebook"`
	CategoryIDs []string `json:"categoryIds"`
}

func (r *CreateProviderRequest) Validate() error {
	r.City = strings.TrimSpace(r.City)
	if r.City == "" {
		return invalid("city", "is required")
	}
	if r.HourlyRate != nil && *r.HourlyRate < 0 {
		return invalid("hourlyRate", "must not be negative")
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > MaxDescriptionLen {
		return invalid("description", "must be at most %d characters", MaxDescriptionLen)
	}
	return nil
}

// Validate trims text fields in place and checks the values being changed.
func (u *ProviderUpdate) Validate() error {
	trimField(u.City)
	if u.City != nil && *u.City == "" {
		return invalid("city", "must not be empty")
	}
	if u.HourlyRate != nil && *u.HourlyRate < 0 {
		return invalid("hourlyRate", "must not be negative")
	}
	if u.Description != nil && utf8.RuneCountInString(*u.Description) > MaxDescriptionLen {
		return invalid("description", "must be at most %d characters", MaxDescriptionLen)
	}
	return nil
}

// Validate trims text fields in place and checks the values being changed.
func (u *UserUpdate) Validate() error {
	trimField(u.Name)
	trimField(u.City)
	trimField(u.Phone)
	if u.Name != nil {
		if *u.Name == "" {
			return invalid("name", "must not be empty")
		}
		if utf8.RuneCountInString(*u.Name) > MaxNameLen {
			return invalid("name", "must be at most %d characters", MaxNameLen)
		}
	}
	return nil
}

type VerifyProviderRequest struct {
	IsVerified bool `json:"isVerified"`
}

type ProviderCategoryRequest struct {
	CategoryID string `json:"categoryId"`
}

type CreateServiceRequest struct {
	ProviderID  string   `json:"providerId"`
	CategoryID  *string  `json:"categoryId"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Duration    *int     `json:"duration"`
	PhotoURL    *string  `json:"photoUrl"`
	IsActive    *bool    `json:"isActive"`
}

func (r *CreateServiceRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.ProviderID == "" {
		return invalid("providerId", "is required")
	}
	if r.Name == "" {
		return invalid("name", "is required")
	}
	return validateServiceNumbers(r.Price, r.Duration)
}

func (u *ServiceUpdate) Validate() error {
	trimField(u.Name)
	if u.Name != nil && *u.Name == "" {
		return invalid("name", "must not be empty")
	}
	return validateServiceNumbers(u.Price, u.Duration)
}

func trimField(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func validateServiceNumbers(price *float64, duration *int) error {
	if price != nil && *price < 0 {
		return invalid("price", "must not be negative")
	}
	if duration != nil && *duration <= 0 {
		return invalid("duration", "must be positive")
	}
	return nil
}

type CreateReviewRequest struct {
	ProviderID string  `json:"providerId"`
	ClientID   string  `json:"clientId"` // optional, must match the caller
	OrderID    *string `json:"orderId"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment"`
}

func (r *CreateReviewRequest) Validate() error {
	if r.ProviderID == "" {
		return invalid("providerId", "is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return invalid("rating", "must be between 1 and 5")
	}
	if r.Comment != nil {
		c := strings.TrimSpace(*r.Comment)
		if c == "" {
			r.Comment = nil
		} else {
			r.Comment = &c
		}
	}
	return nil
}

type CreateConversationRequest struct {
	ClientID   string `json:"clientId"` // optional, must match the caller
	ProviderID string `json:"providerId"`
}

type CreateMessageRequest struct {
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"` // optional, must match the caller
	Content        string `json:"content"`
}

func (r *CreateMessageRequest) Validate() error {
	if r.ConversationID == "" {
		return invalid("conversationId", "is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return invalid("content", "is required")
	}
	if utf8.RuneCountInString(r.Content) > MaxMessageLen {
		return invalid("content", "must be at most %d characters", MaxMessageLen)
	}
	return nil
}

type MarkReadRequest struct {
	UserID string `json:"userId"` // optional, must match the caller
}

type FavoriteRequest struct {
	UserID     string `json:"userId"` // optional, must match the caller
	ProviderID string `json:"providerId"`
}

type CreateOrderRequest struct {
	ProviderID    string     `json:"providerId"`
	ServiceID     *string    `json:"serviceId"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	Price         *float64   `json:"price"`
	Notes         *string    `json:"notes"`
	ClientNotes   *string    `json:"clientNotes"`
}

func (r *CreateOrderRequest) Validate() error {
	if r.ProviderID == "" {
		return invalid("providerId", "is required")
	}
	if r.Price != nil && *r.Price < 0 {
		return invalid("price", "must not be negative")
	}
	return nil
}

type UpdateOrderStatusRequest struct {
	Status        string  `json:"status"`
	ProviderNotes *string `json:"providerNotes"`
}

func (r *UpdateOrderStatusRequest) Validate() error {
	if !IsOrderStatus(r.Status) {
		return invalid("status", "is not a valid order status")
	}
	return nil
}

// Response types

type AuthResponse struct {
	User      User      `json:"user"`
	Provider  *Provider `json:"provider,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MeResponse struct {
	User     User      `json:"user"`
	Provider *Provider `json:"provider,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type MarkReadResponse struct {
	Success bool  `json:"success"`
	Updated int64 `json:"updated"`
}

type FavoriteCheckResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

// Helpers

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return invalid("password", "must be at least %d characters", MinPasswordLen)
	}
	if len(pw) > MaxPasswordLen {
		return invalid("password", "must be at most %d bytes", MaxPasswordLen)
	}
	return nil
}
