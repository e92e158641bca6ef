package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/services/cart"
)

// CartHandler holds dependencies for cart API endpoints.
type CartHandler struct {
	cartSvc *cart.Service
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cartSvc *cart.Service, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{
		cartSvc: cartSvc,
		logger:  logger,
	}
}

// RegisterRoutes registers all cart API routes on the given mux.
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/cart", h.CreateCart)
	mux.HandleFunc("GET /api/v1/cart/{id}", h.GetCart)
	mux.HandleFunc("POST /api/v1/cart/{id}/items", h.AddItem)
	mux.HandleFunc("DELETE /api/v1/cart/{id}/items/{entryId}", h.RemoveItem)
	mux.HandleFunc("DELETE /api/v1/cart/{id}/items", h.ClearCart)
}

type createCartResponse struct {
	ID uuid.UUID `json:"id"`
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
}

// CreateCart handles POST /api/v1/cart
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	id := h.cartSvc.Create()
	writeJSON(w, http.StatusCreated, createCartResponse{ID: id})
}

// GetCart handles GET /api/v1/cart/{id} and returns the aggregated summary.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid cart ID"})
		return
	}

	summary, err := h.cartSvc.Summarize(cartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "cart not found"})
			return
		}
		h.logger.Error("failed to summarize cart", "error", err, "cart_id", cartID)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// AddItem handles POST /api/v1/cart/{id}/items. Each call adds one unit of
// the product as a fresh entry.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid cart ID"})
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if req.ProductID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "product_id is required"})
		return
	}

	entry, err := h.cartSvc.AddItem(r.Context(), cartID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "cart not found"})
		case errors.Is(err, cart.ErrProductNotFound):
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "product not found"})
		default:
			h.logger.Error("failed to add cart item", "error", err, "cart_id", cartID)
			writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// RemoveItem handles DELETE /api/v1/cart/{id}/items/{entryId}. Removing an
// entry that is already gone still returns 204.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid cart ID"})
		return
	}
	entryID, err := uuid.Parse(r.PathValue("entryId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid entry ID"})
		return
	}

	if err := h.cartSvc.RemoveItem(cartID, entryID); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "cart not found"})
			return
		}
		h.logger.Error("failed to remove cart item", "error", err, "cart_id", cartID)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCart handles DELETE /api/v1/cart/{id}/items
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid cart ID"})
		return
	}

	if err := h.cartSvc.Clear(cartID); err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "cart not found"})
			return
		}
		h.logger.Error("failed to clear cart", "error", err, "cart_id", cartID)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
