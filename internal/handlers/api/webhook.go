package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/casafunko/api/internal/mercadopago"
	"github.com/casafunko/api/internal/services/order"
)

// WebhookHandler handles incoming MercadoPago payment notifications.
type WebhookHandler struct {
	orderSvc *order.Service
	logger   *slog.Logger
	secret   string // webhook signing secret, empty disables verification
	// requireSignature rejects unsigned deliveries. Off by default since
	// the provider's test notifications arrive unsigned.
	requireSignature bool
}

// NewWebhookHandler creates a new MercadoPago webhook handler.
func NewWebhookHandler(orderSvc *order.Service, webhookSecret string, requireSignature bool, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		orderSvc:         orderSvc,
		logger:           logger,
		secret:           webhookSecret,
		requireSignature: requireSignature,
	}
}

// RegisterRoutes registers the webhook endpoint.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/webhooks/mercadopago", h.HandleNotification)
}

// webhookEvent is the notification envelope. MercadoPago sends data.id as a
// string on some event kinds and a number on others.
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID     json.Number `json:"id"`
		Status string      `json:"status"`
	} `json:"data"`
}

// HandleNotification handles POST /api/v1/webhooks/mercadopago.
//
// Signature verification is tolerant: deliveries without a signature header
// are processed when no strict mode is configured, and a present signature
// must always verify. Every acknowledged outcome returns 200 so the provider
// stops retrying; only a processing fault returns 500.
func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "unreadable request body"})
		return
	}

	sigHeader := r.Header.Get("X-Signature")
	switch {
	case h.secret == "":
		h.logger.Warn("webhook signature verification skipped: no secret configured")
	case sigHeader == "":
		if h.requireSignature {
			h.logger.Warn("unsigned webhook delivery rejected")
			writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "missing signature"})
			return
		}
		h.logger.Warn("webhook delivery has no signature header")
	default:
		if err := mercadopago.VerifySignature(body, sigHeader, h.secret); err != nil {
			h.logger.Warn("webhook signature verification failed", "error", err)
			writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "invalid signature"})
			return
		}
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("failed to parse webhook body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid payload"})
		return
	}

	// Only payment events carry state this system reconciles. Everything
	// else is acknowledged and dropped.
	if event.Type != "payment" {
		h.logger.Info("ignoring webhook event", "type", event.Type)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	paymentID := event.Data.ID.String()
	if paymentID == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "missing payment id"})
		return
	}

	if _, err := h.orderSvc.ApplyPaymentNotification(r.Context(), paymentID, event.Data.Status); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// A payment this system never issued. Acknowledge so the
			// provider stops redelivering.
			h.logger.Warn("webhook for unknown payment", "payment_id", paymentID)
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
		h.logger.Error("failed to apply payment notification",
			"error", err, "payment_id", paymentID)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
