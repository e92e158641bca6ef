package admin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/store"
)

// MessageHandler exposes community wall moderation to the back office.
type MessageHandler struct {
	messages *store.Messages
	logger   *slog.Logger
}

// NewMessageHandler creates a new admin message handler.
func NewMessageHandler(messages *store.Messages, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{
		messages: messages,
		logger:   logger,
	}
}

// RegisterRoutes registers the admin moderation routes on the given mux.
func (h *MessageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/api/messages", h.ListMessages)
	mux.HandleFunc("POST /admin/api/messages/{id}/approve", h.ApproveMessage)
	mux.HandleFunc("DELETE /admin/api/messages/{id}", h.DeleteMessage)
}

// ListMessages handles GET /admin/api/messages, held messages included.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.List(r.Context(), true)
	if err != nil {
		h.logger.Error("failed to list messages", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": messages})
}

// ApproveMessage handles POST /admin/api/messages/{id}/approve
func (h *MessageHandler) ApproveMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid message ID"})
		return
	}

	if err := h.messages.Approve(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "message not found"})
			return
		}
		h.logger.Error("failed to approve message", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteMessage handles DELETE /admin/api/messages/{id}
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid message ID"})
		return
	}

	if err := h.messages.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrMessageNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "message not found"})
			return
		}
		h.logger.Error("failed to delete message", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
