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

type ServiceHandler struct {
	store store.Storage
}

func NewServiceHandler(s store.Storage) *ServiceHandler {
	return &ServiceHandler{store: s}
}

// CreateService handles POST /api/services
func (h *ServiceHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req models.CreateServiceRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}
	if _, ok := ownedProvider(w, r, h.store, req.ProviderID); !ok {
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	svc, err := h.store.CreateService(r.Context(), models.Service{
		ProviderID:  req.ProviderID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		PhotoURL:    req.PhotoURL,
		IsActive:    active,
	})
	if errors.Is(err, store.ErrInvalidReference) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown category")
		return
	}
	if err != nil {
		storeError(w, err, "Service", "failed to create service", "provider_id", req.ProviderID)
		return
	}

	slog.Info("service created", "service_id", svc.ID, "provider_id", svc.ProviderID)
	middleware.JSONResponse(w, http.StatusCreated, svc)
}

// UpdateService handles PUT /api/services/{id}
func (h *ServiceHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.ownedService(w, r, id); !ok {
		return
	}

	var upd models.ServiceUpdate
	if !decodeJSON(w, r, &upd) || !validate(w, &upd) {
		return
	}

	svc, err := h.store.UpdateService(r.Context(), id, upd)
	if errors.Is(err, store.ErrInvalidReference) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown category")
		return
	}
	if err != nil {
		storeError(w, err, "Service", "failed to update service", "service_id", id)
		return
	}

	slog.Info("service updated", "service_id", id)
	middleware.JSONResponse(w, http.StatusOK, svc)
}

// DeleteService handles DELETE /api/services/{id}
func (h *ServiceHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.ownedService(w, r, id); !ok {
		return
	}

	if err := h.store.DeleteService(r.Context(), id); err != nil {
		storeError(w, err, "Service", "failed to delete service", "service_id", id)
		return
	}

	slog.Info("service deleted", "service_id", id)
	middleware.JSONResponse(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *ServiceHandler) ownedService(w http.ResponseWriter, r *http.Request, id string) (models.Service, bool) {
	svc, err := h.store.GetService(r.Context(), id)
	if err != nil {
		storeError(w, err, "Service", "failed to load service", "service_id", id)
		return models.Service{}, false
	}
	if _, ok := ownedProvider(w, r, h.store, svc.ProviderID); !ok {
		return models.Service{}, false
	}
	return svc, true
}
