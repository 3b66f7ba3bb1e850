// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/servicoja/metrics"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

type ReviewHandler struct {
	store store.Storage
}

func NewReviewHandler(s store.Storage) *ReviewHandler {
	return &ReviewHandler{store: s}
}

// CreateReview handles POST /api/reviews
// A review tied to an order must come from that order's client, for that
// order's provider, after the order is completed.
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.CreateReviewRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}
	if !sameCaller(w, req.ClientID, userID, "clientId") {
		return
	}

	provider, err := h.store.GetProvider(r.Context(), req.ProviderID)
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", req.ProviderID)
		return
	}
	if provider.UserID == userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You cannot review your own profile")
		return
	}

	if req.OrderID != nil {
		order, err := h.store.GetOrder(r.Context(), *req.OrderID)
		if errors.Is(err, store.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Order not found")
			return
		}
		if err != nil {
			storeError(w, err, "Order", "failed to load order", "order_id", *req.OrderID)
			return
		}
		if order.ClientID != userID {
			middleware.ErrorResponse(w, http.StatusForbidden, "You can only review your own orders")
			return
		}
		if order.ProviderID != req.ProviderID {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Order belongs to a different provider")
			return
		}
		if order.Status != models.OrderCompleted {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Only completed orders can be reviewed")
			return
		}
	}

	review, err := h.store.CreateReview(r.Context(), models.Review{
		ProviderID: req.ProviderID,
		ClientID:   userID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Order already reviewed")
		return
	}
	if err != nil {
		storeError(w, err, "Review", "failed to create review", "provider_id", req.ProviderID)
		return
	}

	metrics.RecordReview(review.Rating)
	slog.Info("review created", "review_id", review.ID, "provider_id", review.ProviderID, "rating", review.Rating)
	middleware.JSONResponse(w, http.StatusCreated, review)
}
