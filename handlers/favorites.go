// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

type FavoriteHandler struct {
	store store.Storage
}

func NewFavoriteHandler(s store.Storage) *FavoriteHandler {
	return &FavoriteHandler{store: s}
}

// ListFavorites handles GET /api/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)
	if !sameCaller(w, r.URL.Query().Get("userId"), userID, "userId") {
		return
	}

	favorites, err := h.store.ListFavorites(r.Context(), userID)
	if err != nil {
		storeError(w, err, "Favorite", "failed to list favorites", "user_id", userID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(favorites))
}

// AddFavorite handles POST /api/favorites
// Adding an existing favorite returns it with 200 instead of 201.
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.FavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProviderID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "providerId is required")
		return
	}
	if !sameCaller(w, req.UserID, userID, "userId") {
		return
	}

	fav, created, err := h.store.AddFavorite(r.Context(), userID, req.ProviderID)
	if err != nil {
		storeError(w, err, "Favorite", "failed to add favorite", "provider_id", req.ProviderID)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		slog.Info("favorite added", "user_id", userID, "provider_id", req.ProviderID)
	}
	middleware.JSONResponse(w, status, fav)
}

// RemoveFavorite handles DELETE /api/favorites
// providerId may be sent in the body or the query string.
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.FavoriteRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	q := r.URL.Query()
	if req.ProviderID == "" {
		req.ProviderID = q.Get("providerId")
	}
	if req.UserID == "" {
		req.UserID = q.Get("userId")
	}
	if req.ProviderID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "providerId is required")
		return
	}
	if !sameCaller(w, req.UserID, userID, "userId") {
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), userID, req.ProviderID); err != nil {
		storeError(w, err, "Favorite", "failed to remove favorite", "provider_id", req.ProviderID)
		return
	}

	slog.Info("favorite removed", "user_id", userID, "provider_id", req.ProviderID)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// CheckFavorite handles GET /api/favorites/check?providerId=
func (h *FavoriteHandler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)
	q := r.URL.Query()

	providerID := q.Get("providerId")
	if providerID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "providerId is required")
		return
	}
	if !sameCaller(w, q.Get("userId"), userID, "userId") {
		return
	}

	ok, err := h.store.IsFavorite(r.Context(), userID, providerID)
	if err != nil {
		storeError(w, err, "Favorite", "failed to check favorite", "provider_id", providerID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.FavoriteCheckResponse{IsFavorite: ok})
}
