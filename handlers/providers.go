// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

type ProviderHandler struct {
	store store.Storage
}

func NewProviderHandler(s store.Storage) *ProviderHandler {
	return &ProviderHandler{store: s}
}

// ListProviders handles GET /api/providers
// The total number of matches before paging is sent in X-Total-Count.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProviderFilter(r.URL.Query())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	providers, total, err := h.store.ListProviders(r.Context(), filter)
	if err != nil {
		storeError(w, err, "Provider", "failed to list providers")
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	middleware.JSONResponse(w, http.StatusOK, nonNil(providers))
}

func parseProviderFilter(q url.Values) (models.ProviderFilter, error) {
	f := models.ProviderFilter{
		CategoryID: strings.TrimSpace(q.Get("categoryId")),
		City:       strings.TrimSpace(q.Get("city")),
		Search:     strings.TrimSpace(q.Get("search")),
		Sort:       q.Get("sort"),
	}

	var err error
	if f.MinRating, err = optionalFloat(q, "minRating"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = optionalFloat(q, "maxPrice"); err != nil {
		return f, err
	}
	if f.Limit, err = optionalInt(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = optionalInt(q, "offset"); err != nil {
		return f, err
	}
	if f.Offset < 0 {
		return f, errors.New("offset must not be negative")
	}
	return f.Normalize(), nil
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

// GetProvider handles GET /api/providers/{id}
func (h *ProviderHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	details, err := h.store.GetProviderDetails(r.Context(), id)
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", id)
		return
	}

	details.Categories = nonNil(details.Categories)
	details.Services = nonNil(details.Services)
	details.Reviews = nonNil(details.Reviews)
	middleware.JSONResponse(w, http.StatusOK, details)
}

// CreateProvider handles POST /api/providers
// Creates the caller's provider profile and switches their role to provider.
func (h *ProviderHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.CreateProviderRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}
	if !sameCaller(w, req.UserID, userID, "userId") {
		return
	}

	provider, err := h.store.CreateProvider(r.Context(), models.Provider{
		UserID:      userID,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		City:        req.City,
		WhatsApp:    req.WhatsApp,
		Facebook:    req.Facebook,
	}, req.CategoryIDs)
	switch {
	case errors.Is(err, store.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, "Provider profile already exists")
		return
	case errors.Is(err, store.ErrInvalidReference):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown user or category")
		return
	case err != nil:
		storeError(w, err, "Provider", "failed to create provider", "user_id", userID)
		return
	}

	slog.Info("provider created", "provider_id", provider.ID, "user_id", userID)
	middleware.JSONResponse(w, http.StatusCreated, provider)
}

// UpdateProvider handles PUT /api/providers/{id}
func (h *ProviderHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := ownedProvider(w, r, h.store, id); !ok {
		return
	}

	var upd models.ProviderUpdate
	if !decodeJSON(w, r, &upd) || !validate(w, &upd) {
		return
	}

	provider, err := h.store.UpdateProvider(r.Context(), id, upd)
	if err != nil {
		storeError(w, err, "Provider", "failed to update provider", "provider_id", id)
		return
	}

	slog.Info("provider updated", "provider_id", id)
	middleware.JSONResponse(w, http.StatusOK, provider)
}

// VerifyProvider handles PUT /api/providers/{id}/verify (admin)
func (h *ProviderHandler) VerifyProvider(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.VerifyProviderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	provider, err := h.store.SetProviderVerified(r.Context(), id, req.IsVerified)
	if err != nil {
		storeError(w, err, "Provider", "failed to verify provider", "provider_id", id)
		return
	}

	slog.Info("provider verification changed", "provider_id", id, "verified", req.IsVerified)
	middleware.JSONResponse(w, http.StatusOK, provider)
}

// AddCategory handles POST /api/providers/{id}/categories
func (h *ProviderHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := ownedProvider(w, r, h.store, id); !ok {
		return
	}

	var req models.ProviderCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CategoryID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "categoryId is required")
		return
	}

	err := h.store.AddProviderCategory(r.Context(), id, req.CategoryID)
	if errors.Is(err, store.ErrInvalidReference) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown category")
		return
	}
	if err != nil {
		storeError(w, err, "Provider", "failed to link category", "provider_id", id)
		return
	}

	slog.Info("provider category linked", "provider_id", id, "category_id", req.CategoryID)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// RemoveCategory handles DELETE /api/providers/{id}/categories/{categoryId}
func (h *ProviderHandler) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	categoryID := r.PathValue("categoryId")
	if _, ok := ownedProvider(w, r, h.store, id); !ok {
		return
	}

	if err := h.store.RemoveProviderCategory(r.Context(), id, categoryID); err != nil {
		storeError(w, err, "Provider category", "failed to unlink category", "provider_id", id)
		return
	}

	slog.Info("provider category unlinked", "provider_id", id, "category_id", categoryID)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// ListServices handles GET /api/providers/{id}/services
func (h *ProviderHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.exists(w, r, id) {
		return
	}

	services, err := h.store.ListServices(r.Context(), id)
	if err != nil {
		storeError(w, err, "Service", "failed to list services", "provider_id", id)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(services))
}

// ListReviews handles GET /api/providers/{id}/reviews
func (h *ProviderHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.exists(w, r, id) {
		return
	}

	reviews, err := h.store.ListReviews(r.Context(), id)
	if err != nil {
		storeError(w, err, "Review", "failed to list reviews", "provider_id", id)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(reviews))
}

func (h *ProviderHandler) exists(w http.ResponseWriter, r *http.Request, id string) bool {
	if _, err := h.store.GetProvider(r.Context(), id); err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", id)
		return false
	}
	return true
}
