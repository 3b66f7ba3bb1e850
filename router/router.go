// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/servicoja/auth"
	"github.com/danielhkuo/servicoja/cliparse"
	"github.com/danielhkuo/servicoja/handlers"
	"github.com/danielhkuo/servicoja/metrics"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/store"
)

const readyTimeout = 2 * time.Second

// Deps carries collaborators that are built outside the router.
type Deps struct {
	Tokens *auth.TokenIssuer
	// Resets delivers password reset tokens. Nil logs them instead.
	Resets handlers.ResetSender
}

func NewRouter(storage store.Storage, cfg cliparse.Config, deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(storage, cfg, deps.Tokens, deps.Resets)
	userHandler := handlers.NewUserHandler(storage)
	categoryHandler := handlers.NewCategoryHandler(storage)
	providerHandler := handlers.NewProviderHandler(storage)
	serviceHandler := handlers.NewServiceHandler(storage)
	reviewHandler := handlers.NewReviewHandler(storage)
	conversationHandler := handlers.NewConversationHandler(storage)
	favoriteHandler := handlers.NewFavoriteHandler(storage)
	orderHandler := handlers.NewOrderHandler(storage)

	authn := middleware.NewAuthenticator(deps.Tokens)
	public := middleware.WithLogging
	private := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(authn.Require(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Operational endpoints
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := storage.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Authentication
	mux.HandleFunc("POST /api/auth/register", public(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", public(authHandler.Login))
	mux.HandleFunc("GET /api/auth/me", private(authHandler.Me))
	mux.HandleFunc("POST /api/auth/forgot-password", public(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", public(authHandler.ResetPassword))

	// Users
	mux.HandleFunc("GET /api/users/{id}", private(userHandler.GetUser))
	mux.HandleFunc("PUT /api/users/{id}", private(userHandler.UpdateUser))

	// Categories
	mux.HandleFunc("GET /api/categories", public(categoryHandler.ListCategories))
	mux.HandleFunc("POST /api/categories", admin(categoryHandler.CreateCategory))

	// Providers (search and profiles are public)
	mux.HandleFunc("GET /api/providers", public(providerHandler.ListProviders))
	mux.HandleFunc("POST /api/providers", private(providerHandler.CreateProvider))
	mux.HandleFunc("GET /api/providers/{id}", public(providerHandler.GetProvider))
	mux.HandleFunc("PUT /api/providers/{id}", private(providerHandler.UpdateProvider))
	mux.HandleFunc("PUT /api/providers/{id}/verify", admin(providerHandler.VerifyProvider))
	mux.HandleFunc("POST /api/providers/{id}/categories", private(providerHandler.AddCategory))
	mux.HandleFunc("DELETE /api/providers/{id}/categories/{categoryId}", private(providerHandler.RemoveCategory))
	mux.HandleFunc("GET /api/providers/{id}/services", public(providerHandler.ListServices))
	mux.HandleFunc("GET /api/providers/{id}/reviews", public(providerHandler.ListReviews))

	// Services
	mux.HandleFunc("POST /api/services", private(serviceHandler.CreateService))
	mux.HandleFunc("PUT /api/services/{id}", private(serviceHandler.UpdateService))
	mux.HandleFunc("DELETE /api/services/{id}", private(serviceHandler.DeleteService))

	// Reviews
	mux.HandleFunc("POST /api/reviews", private(reviewHandler.CreateReview))

	// Conversations and messages
	mux.HandleFunc("GET /api/conversations", private(conversationHandler.ListConversations))
	mux.HandleFunc("POST /api/conversations", private(conversationHandler.CreateConversation))
	mux.HandleFunc("GET /api/conversations/{id}/messages", private(conversationHandler.ListMessages))
	mux.HandleFunc("POST /api/conversations/{id}/read", private(conversationHandler.MarkRead))
	mux.HandleFunc("POST /api/messages", private(conversationHandler.CreateMessage))

	// Favorites
	mux.HandleFunc("GET /api/favorites", private(favoriteHandler.ListFavorites))
	mux.HandleFunc("POST /api/favorites", private(favoriteHandler.AddFavorite))
	mux.HandleFunc("DELETE /api/favorites", private(favoriteHandler.RemoveFavorite))
	mux.HandleFunc("GET /api/favorites/check", private(favoriteHandler.CheckFavorite))

	// Orders
	mux.HandleFunc("GET /api/orders", private(orderHandler.ListOrders))
	mux.HandleFunc("POST /api/orders", private(orderHandler.CreateOrder))
	mux.HandleFunc("GET /api/orders/{id}", private(orderHandler.GetOrder))
	mux.HandleFunc("PATCH /api/orders/{id}/status", private(orderHandler.UpdateStatus))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ServiçoJá API v1"))
	})

	return mux
}
