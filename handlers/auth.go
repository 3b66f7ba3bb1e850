// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/servicoja/auth"
	"github.com/danielhkuo/servicoja/cliparse"
	"github.com/danielhkuo/servicoja/metrics"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

const forgotPasswordMessage = "If the email is registered, password reset instructions have been sent"

// ResetSender delivers password reset tokens to users.
type ResetSender interface {
	SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) error
}

// LogResetSender writes reset tokens to the debug log. It stands in for a
// mail or SMS gateway in development.
type LogResetSender struct{}

func (LogResetSender) SendPasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) error {
	slog.DebugContext(ctx, "password reset issued",
		"user_id", user.ID,
		"token", token,
		"expires_at", expiresAt,
	)
	return nil
}

type AuthHandler struct {
	store  store.Storage
	cfg    cliparse.Config
	tokens *auth.TokenIssuer
	resets ResetSender
}

func NewAuthHandler(s store.Storage, cfg cliparse.Config, tokens *auth.TokenIssuer, resets ResetSender) *AuthHandler {
	if resets == nil {
		resets = LogResetSender{}
	}
	return &AuthHandler{store: s, cfg: cfg, tokens: tokens, resets: resets}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		serverError(w, "failed to hash password", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		City:         req.City,
		Role:         req.Role,
	})
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		storeError(w, err, "User", "failed to create user")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		serverError(w, "failed to issue token", err, "user_id", user.ID)
		return
	}

	metrics.RecordRegistration(user.Role)
	slog.Info("user registered", "user_id", user.ID, "role", user.Role)

	middleware.JSONResponse(w, http.StatusCreated, models.AuthResponse{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		metrics.RecordLogin(false)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		storeError(w, err, "User", "failed to load user")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		metrics.RecordLogin(false)
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			slog.Warn("password check failed", "user_id", user.ID, "error", err)
		}
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	provider, ok := h.providerFor(w, r, user)
	if !ok {
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		serverError(w, "failed to issue token", err, "user_id", user.ID)
		return
	}

	metrics.RecordLogin(true)
	slog.Info("user logged in", "user_id", user.ID)

	middleware.JSONResponse(w, http.StatusOK, models.AuthResponse{
		User:      user,
		Provider:  provider,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), caller(r))
	if err != nil {
		storeError(w, err, "User", "failed to load user")
		return
	}

	provider, ok := h.providerFor(w, r, user)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MeResponse{User: user, Provider: provider})
}

// providerFor returns the user's provider profile, or nil when they have none.
func (h *AuthHandler) providerFor(w http.ResponseWriter, r *http.Request, user models.User) (*models.Provider, bool) {
	p, err := h.store.GetProviderByUserID(r.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, true
	}
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "user_id", user.ID)
		return nil, false
	}
	return &p, true
}

// ForgotPassword handles POST /api/auth/forgot-password
// The response never reveals whether the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.issueReset(r.Context(), req.Email); err != nil {
		slog.Error("failed to issue password reset", "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: forgotPasswordMessage})
}

func (h *AuthHandler) issueReset(ctx context.Context, email string) error {
	user, err := h.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		slog.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(h.cfg.ResetTTL)
	if err := h.store.CreatePasswordReset(ctx, user.ID, auth.HashResetToken(token), expiresAt); err != nil {
		return err
	}

	slog.Info("password reset issued", "user_id", user.ID)
	return h.resets.SendPasswordReset(ctx, user, token, expiresAt)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// Hash before consuming so a hashing failure does not burn the token.
	hash, err := auth.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		serverError(w, "failed to hash password", err)
		return
	}

	userID, err := h.store.ConsumePasswordReset(r.Context(), auth.HashResetToken(req.Token), time.Now())
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}
	if err != nil {
		storeError(w, err, "Reset token", "failed to consume reset token")
		return
	}

	if err := h.store.SetUserPassword(r.Context(), userID, hash); err != nil {
		storeError(w, err, "User", "failed to set password", "user_id", userID)
		return
	}

	slog.Info("password reset completed", "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Password updated"})
}
