// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/servicoja/metrics"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

type OrderHandler struct {
	store store.Storage
}

func NewOrderHandler(s store.Storage) *OrderHandler {
	return &OrderHandler{store: s}
}

// ListOrders handles GET /api/orders?as=client|provider
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var (
		orders []models.OrderDetails
		err    error
	)
	switch as := r.URL.Query().Get("as"); as {
	case "", models.RoleClient:
		orders, err = h.store.ListOrdersByClient(r.Context(), userID)
	case models.RoleProvider:
		var provider models.Provider
		provider, err = h.store.GetProviderByUserID(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			middleware.JSONResponse(w, http.StatusOK, []models.OrderDetails{})
			return
		}
		if err == nil {
			orders, err = h.store.ListOrdersByProvider(r.Context(), provider.ID)
		}
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "as must be client or provider")
		return
	}
	if err != nil {
		storeError(w, err, "Order", "failed to list orders", "user_id", userID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(orders))
}

// CreateOrder handles POST /api/orders
// When a service is given its price is used unless the request sets one.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.CreateOrderRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}

	provider, err := h.store.GetProvider(r.Context(), req.ProviderID)
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", req.ProviderID)
		return
	}
	if provider.UserID == userID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot order from your own profile")
		return
	}

	price := req.Price
	if req.ServiceID != nil {
		svc, err := h.store.GetService(r.Context(), *req.ServiceID)
		if errors.Is(err, store.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Service not found")
			return
		}
		if err != nil {
			storeError(w, err, "Service", "failed to load service", "service_id", *req.ServiceID)
			return
		}
		if svc.ProviderID != provider.ID {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Service belongs to a different provider")
			return
		}
		if !svc.IsActive {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Service is not available")
			return
		}
		if price == nil {
			price = svc.Price
		}
	}

	order, err := h.store.CreateOrder(r.Context(), models.ServiceOrder{
		ClientID:      userID,
		ProviderID:    provider.ID,
		ServiceID:     req.ServiceID,
		Status:        models.OrderPending,
		ScheduledDate: req.ScheduledDate,
		Price:         price,
		Notes:         req.Notes,
		ClientNotes:   req.ClientNotes,
	})
	if err != nil {
		storeError(w, err, "Order", "failed to create order", "provider_id", provider.ID)
		return
	}

	metrics.RecordOrderStatus(order.Status)
	slog.Info("order created", "order_id", order.ID, "client_id", userID, "provider_id", provider.ID)
	middleware.JSONResponse(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	details, err := h.store.GetOrderDetails(r.Context(), id)
	if err != nil {
		storeError(w, err, "Order", "failed to load order", "order_id", id)
		return
	}

	userID := caller(r)
	if details.ClientID != userID && details.Provider.UserID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not part of this order")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, details)
}

// UpdateStatus handles PATCH /api/orders/{id}/status
// The provider drives the order forward; the client may only cancel.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := caller(r)

	var req models.UpdateOrderStatusRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		storeError(w, err, "Order", "failed to load order", "order_id", id)
		return
	}
	provider, err := h.store.GetProvider(r.Context(), order.ProviderID)
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", order.ProviderID)
		return
	}

	isProvider := provider.UserID == userID
	switch {
	case isProvider:
	case order.ClientID == userID:
		if !models.ClientMayTransition(req.Status) {
			middleware.ErrorResponse(w, http.StatusForbidden, "Clients can only cancel orders")
			return
		}
		req.ProviderNotes = nil
	default:
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not part of this order")
		return
	}

	if !models.CanTransition(order.Status, req.Status) {
		middleware.ErrorResponse(w, http.StatusConflict,
			fmt.Sprintf("Cannot change order from %s to %s", order.Status, req.Status))
		return
	}

	updated, err := h.store.UpdateOrderStatus(r.Context(), id, order.Status, req.Status, req.ProviderNotes, time.Now())
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Order status changed, reload and try again")
		return
	}
	if err != nil {
		storeError(w, err, "Order", "failed to update order status", "order_id", id)
		return
	}

	metrics.RecordOrderStatus(updated.Status)
	slog.Info("order status changed", "order_id", id, "from", order.Status, "to", updated.Status, "by", userID)
	middleware.JSONResponse(w, http.StatusOK, updated)
}
