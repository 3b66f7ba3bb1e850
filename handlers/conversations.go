// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/servicoja/metrics"
	"github.com/danielhkuo/servicoja/middleware"
	"github.com/danielhkuo/servicoja/models"
	"github.com/danielhkuo/servicoja/store"
)

// ConversationHandler serves client and provider chat. Clients poll
// ListMessages with ?after= to fetch only what is new.
type ConversationHandler struct {
	store store.Storage
}

func NewConversationHandler(s store.Storage) *ConversationHandler {
	return &ConversationHandler{store: s}
}

// ListConversations handles GET /api/conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)
	if !sameCaller(w, r.URL.Query().Get("userId"), userID, "userId") {
		return
	}

	conversations, err := h.store.ListConversations(r.Context(), userID)
	if err != nil {
		storeError(w, err, "Conversation", "failed to list conversations", "user_id", userID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(conversations))
}

// CreateConversation handles POST /api/conversations
// Returns 201 for a new conversation and 200 when the pair already has one.
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.CreateConversationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProviderID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "providerId is required")
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
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot start a conversation with yourself")
		return
	}

	conv, created, err := h.store.GetOrCreateConversation(r.Context(), userID, req.ProviderID)
	if err != nil {
		storeError(w, err, "Conversation", "failed to open conversation", "provider_id", req.ProviderID)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		slog.Info("conversation started", "conversation_id", conv.ID, "client_id", userID, "provider_id", req.ProviderID)
	}
	middleware.JSONResponse(w, status, conv)
}

// ListMessages handles GET /api/conversations/{id}/messages
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var after *time.Time
	if raw := r.URL.Query().Get("after"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "after must be an RFC 3339 timestamp")
			return
		}
		after = &t
	}

	if _, ok := h.participant(w, r, id); !ok {
		return
	}

	messages, err := h.store.ListMessages(r.Context(), id, after)
	if err != nil {
		storeError(w, err, "Conversation", "failed to list messages", "conversation_id", id)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, nonNil(messages))
}

// CreateMessage handles POST /api/messages
func (h *ConversationHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID := caller(r)

	var req models.CreateMessageRequest
	if !decodeJSON(w, r, &req) || !validate(w, &req) {
		return
	}
	if !sameCaller(w, req.SenderID, userID, "senderId") {
		return
	}
	if _, ok := h.participant(w, r, req.ConversationID); !ok {
		return
	}

	msg, err := h.store.CreateMessage(r.Context(), models.Message{
		ConversationID: req.ConversationID,
		SenderID:       userID,
		Content:        req.Content,
	})
	if err != nil {
		storeError(w, err, "Conversation", "failed to create message", "conversation_id", req.ConversationID)
		return
	}

	metrics.RecordMessage()
	slog.Debug("message sent", "message_id", msg.ID, "conversation_id", msg.ConversationID)
	middleware.JSONResponse(w, http.StatusCreated, msg)
}

// MarkRead handles POST /api/conversations/{id}/read
// Marks every message the caller received in the conversation as read.
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := caller(r)

	var req models.MarkReadRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	if !sameCaller(w, req.UserID, userID, "userId") {
		return
	}
	if _, ok := h.participant(w, r, id); !ok {
		return
	}

	updated, err := h.store.MarkMessagesRead(r.Context(), id, userID)
	if err != nil {
		storeError(w, err, "Conversation", "failed to mark messages read", "conversation_id", id)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MarkReadResponse{Success: true, Updated: updated})
}

// participant loads a conversation and checks that the caller is its client
// or owns its provider profile.
func (h *ConversationHandler) participant(w http.ResponseWriter, r *http.Request, id string) (models.Conversation, bool) {
	conv, err := h.store.GetConversation(r.Context(), id)
	if err != nil {
		storeError(w, err, "Conversation", "failed to load conversation", "conversation_id", id)
		return models.Conversation{}, false
	}

	userID := caller(r)
	if conv.ClientID == userID {
		return conv, true
	}
	provider, err := h.store.GetProvider(r.Context(), conv.ProviderID)
	if err != nil {
		storeError(w, err, "Provider", "failed to load provider", "provider_id", conv.ProviderID)
		return models.Conversation{}, false
	}
	if provider.UserID != userID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You are not part of this conversation")
		return models.Conversation{}, false
	}
	return conv, true
}
