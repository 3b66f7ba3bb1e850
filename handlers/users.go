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

type UserHandler struct {
	store store.Storage
}

func NewUserHandler(s store.Storage) *UserHandler {
	return &UserHandler{store: s}
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, err, "User", "failed to load user", "user_id", id)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}
// Users may only edit their own account.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id != caller(r) {
		middleware.ErrorResponse(w, http.StatusForbidden, "You can only update your own account")
		return
	}

	var upd models.UserUpdate
	if !decodeJSON(w, r, &upd) || !validate(w, &upd) {
		return
	}

	user, err := h.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		storeError(w, err, "User", "failed to update user", "user_id", id)
		return
	}

	slog.Info("user updated", "user_id", id)
	middleware.JSONResponse(w, http.StatusOK, user)
}
