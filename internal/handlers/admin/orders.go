package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/casafunko/api/internal/services/order"
)

// OrderHandler exposes order management to the back office.
type OrderHandler struct {
	orderSvc *order.Service
	logger   *slog.Logger
}

// NewOrderHandler creates a new admin order handler.
func NewOrderHandler(orderSvc *order.Service, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		orderSvc: orderSvc,
		logger:   logger,
	}
}

// RegisterRoutes registers the admin order routes on the given mux.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/api/orders", h.ListOrders)
	mux.HandleFunc("GET /admin/api/orders/{reference}", h.GetOrder)
	mux.HandleFunc("PATCH /admin/api/orders/{reference}/status", h.UpdateStatus)
	mux.HandleFunc("PATCH /admin/api/orders/{reference}/tracking", h.UpdateTracking)
}

type listOrdersResponse struct {
	Data       []order.Order `json:"data"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int64         `json:"total"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateTrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Courier        string `json:"courier"`
}

// ListOrders handles GET /admin/api/orders?status=&page=&limit=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), 20)

	orders, total, err := h.orderSvc.List(r.Context(), q.Get("status"), page, limit)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	writeJSON(w, http.StatusOK, listOrdersResponse{
		Data:       orders,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}

// GetOrder handles GET /admin/api/orders/{reference}
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

// UpdateStatus handles PATCH /admin/api/orders/{reference}/status. Manual
// changes share the status field with webhook reconciliation; the last
// writer wins.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}

	o, err := h.orderSvc.UpdateStatus(r.Context(), reference, order.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid order status"})
		case errors.Is(err, order.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "order not found"})
		default:
			h.logger.Error("failed to update order status", "error", err, "reference", reference)
			writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// UpdateTracking handles PATCH /admin/api/orders/{reference}/tracking
func (h *OrderHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	var req updateTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if req.TrackingNumber == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "tracking_number is required"})
		return
	}

	if err := h.orderSvc.UpdateTracking(r.Context(), reference, req.TrackingNumber, req.Courier); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "order not found"})
			return
		}
		h.logger.Error("failed to update tracking", "error", err, "reference", reference)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseIntParam parses a positive integer query parameter with a fallback.
func parseIntParam(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
