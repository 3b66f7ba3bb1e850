// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

type validator interface {
	Validate() error
}

// decodeJSON parses the request body and writes a 400 or 413 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := middleware.ParseJSONBody(r, v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, middleware.ErrEmptyBody):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Request body is required")
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
	}
	return false
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return true
	}
	err := middleware.ParseJSONBody(r, v)
	if err == nil || errors.Is(err, middleware.ErrEmptyBody) {
		return true
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
	return false
}

func validate(w http.ResponseWriter, v validator) bool {
	if err := v.Validate(); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// storeError maps a storage error to a response. resource names the entity
// in 404 and 409 messages; anything unexpected is logged and reported as a
// bare 500.
func storeError(w http.ResponseWriter, err error, resource, logMsg string, args ...any) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, resource+" not found")
	case errors.Is(err, store.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, resource+" already exists")
	case errors.Is(err, store.ErrInvalidReference):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Referenced record does not exist")
	case errors.Is(err, context.Canceled):
		slog.Debug("request cancelled", append(args, "error", err)...)
	default:
		serverError(w, logMsg, err, args...)
	}
}

func serverError(w http.ResponseWriter, logMsg string, err error, args ...any) {
	slog.Error(logMsg, append(args, "error", err)...)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
}

// caller returns the authenticated user's ID.
func caller(r *http.Request) string {
	return middleware.UserID(r.Context())
}

// sameCaller rejects legacy body or query identity fields that name someone
// other than the authenticated user. An empty value is accepted.
func sameCaller(w http.ResponseWriter, given, userID, field string) bool {
	if given != "" && given != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, field+" does not match the authenticated user")
		return false
	}
	return true
}

// ownedProvider loads a provider and checks that the caller owns it.
func ownedProvider(w http.ResponseWriter, r *http.Request, s store.Storage, providerID string) (models.Provider, bool) {
	p, err := s.GetProvider(r.Context(), providerID)
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", providerID)
		return models.Provider{}, false
	}
	if p.UserID != caller(r) {
		middleware.ErrorResponse(w, http.StatusForbidden, "You do not own this provider profile")
		return models.Provider{}, false
	}
	return p, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
