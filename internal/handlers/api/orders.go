package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/casafunko/api/internal/services/order"
)

// OrderHandler exposes the public order endpoints used by the payment
// redirect pages: order read-back, preference retry, and payment id
// attachment.
type OrderHandler struct {
	orderSvc *order.Service
	payments PreferenceCreator
	appURL   string
	apiURL   string
	logger   *slog.Logger
}

// NewOrderHandler creates a new public order handler.
func NewOrderHandler(orderSvc *order.Service, payments PreferenceCreator, appURL, apiURL string, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		orderSvc: orderSvc,
		payments: payments,
		appURL:   appURL,
		apiURL:   apiURL,
		logger:   logger,
	}
}

// RegisterRoutes registers the public order routes on the given mux.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/preference", h.RetryPreference)
	mux.HandleFunc("GET /api/v1/orders/{reference}", h.GetOrder)
	mux.HandleFunc("POST /api/v1/orders/{reference}/payment", h.AttachPayment)
}

type retryPreferenceRequest struct {
	Reference string `json:"reference"`
}

type preferenceResponse struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}

type attachPaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

// RetryPreference handles POST /api/v1/payments/preference. It rebuilds a
// checkout preference from the persisted order so an abandoned or failed
// hosted-checkout redirect can be retried without rebuilding the cart.
func (h *OrderHandler) RetryPreference(w http.ResponseWriter, r *http.Request) {
	var req retryPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if req.Reference == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "reference is required"})
		return
	}

	o, err := h.orderSvc.GetByReference(r.Context(), req.Reference)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "order not found"})
			return
		}
		h.logger.Error("failed to load order", "error", err, "reference", req.Reference)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	pref, err := h.payments.CreatePreference(r.Context(), PreferenceFromOrder(o, h.appURL, h.apiURL))
	if err != nil {
		h.logger.Error("failed to create payment preference",
			"error", err, "reference", o.Reference)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "payment provider error"})
		return
	}

	if err := h.orderSvc.AttachPreference(r.Context(), o.Reference, pref.ID); err != nil {
		h.logger.Error("failed to attach preference",
			"error", err, "reference", o.Reference, "preference_id", pref.ID)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, preferenceResponse{
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
	})
}

// GetOrder handles GET /api/v1/orders/{reference}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderSvc.GetByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "order not found"})
			return
		}
		h.logger.Error("failed to load order", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// AttachPayment handles POST /api/v1/orders/{reference}/payment. The
// redirect back from hosted checkout carries the payment id; attaching it
// here lets later webhook deliveries find the order. Attachment is set-once:
// repeating the same id succeeds, a different id is a conflict.
func (h *OrderHandler) AttachPayment(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	var req attachPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if req.PaymentID == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "payment_id is required"})
		return
	}

	if err := h.orderSvc.AttachPayment(r.Context(), reference, req.PaymentID); err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "order not found"})
		case errors.Is(err, order.ErrPaymentConflict):
			writeJSON(w, http.StatusConflict, errorJSON{Error: "order already has a different payment id"})
		default:
			h.logger.Error("failed to attach payment",
				"error", err, "reference", reference, "payment_id", req.PaymentID)
			writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
