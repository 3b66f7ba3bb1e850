// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

type CategoryHandler struct {
	store store.Storage
}

func NewCategoryHandler(s store.Storage) *CategoryHandler {
	return &CategoryHandler{store: s}
}

// ListCategories handles GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		storeError(w, err, "Category", "failed to list categories")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(categories))
}

// CreateCategory handles POST /api/categories (admin)
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCategoryRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}

	category, err := h.store.CreateCategory(r.Context(), models.Category{
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
	})
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Category name already exists")
		return
	}
	if err != nil {
		storeError(w, err, "Category", "failed to create category")
		return
	}

	slog.Info("category created", "category_id", category.ID, "name", category.Name)
	middleware.JSONResponse(w, http.StatusCreated, category)
}
