package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/mercadopago"
	"github.com/casafunko/api/internal/services/cart"
	"github.com/casafunko/api/internal/services/order"
	"github.com/casafunko/api/internal/services/shipping"
)

// PreferenceCreator is the slice of the payment provider client the checkout
// flow needs. Tests substitute a stub.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (mercadopago.Preference, error)
}

// CheckoutHandler drives the checkout flow: cart validation, order
// persistence, and hosted-checkout preference creation.
type CheckoutHandler struct {
	cartSvc  *cart.Service
	orderSvc *order.Service
	payments PreferenceCreator
	appURL   string
	apiURL   string
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler. appURL is the storefront
// origin for payment redirects; apiURL is this server's public origin for the
// webhook notification URL.
func NewCheckoutHandler(
	cartSvc *cart.Service,
	orderSvc *order.Service,
	payments PreferenceCreator,
	appURL, apiURL string,
	logger *slog.Logger,
) *CheckoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutHandler{
		cartSvc:  cartSvc,
		orderSvc: orderSvc,
		payments: payments,
		appURL:   appURL,
		apiURL:   apiURL,
		logger:   logger,
	}
}

// RegisterRoutes registers the checkout routes on the given mux.
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/checkout", h.Checkout)
}

type checkoutCustomer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Department string `json:"department"`
}

type checkoutRequest struct {
	CartID    uuid.UUID        `json:"cart_id"`
	Region    string           `json:"region"`
	CourierID string           `json:"courier_id"`
	Customer  checkoutCustomer `json:"customer"`
}

type checkoutResponse struct {
	Reference    string `json:"reference"`
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
	TotalAmount  int64  `json:"total_amount"`
}

// Checkout handles POST /api/v1/checkout.
//
// The order is persisted as pending before the provider is called. A
// preference failure therefore leaves a retryable pending order behind; the
// cart is only cleared once the provider call succeeds.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}

	summary, err := h.cartSvc.Summarize(req.CartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "cart not found"})
			return
		}
		h.logger.Error("failed to summarize cart", "error", err, "cart_id", req.CartID)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if len(summary.Groups) == 0 {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "cart is empty"})
		return
	}
	if summary.OverStock {
		writeJSON(w, http.StatusConflict, errorJSON{Error: "requested quantity exceeds available stock"})
		return
	}

	region := shipping.Region(req.Region)
	courier, err := shipping.Resolve(region, req.CourierID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
		return
	}

	customer := shipping.Normalize(region, shipping.Customer{
		Name:       req.Customer.Name,
		Email:      req.Customer.Email,
		Phone:      req.Customer.Phone,
		Address:    req.Customer.Address,
		City:       req.Customer.City,
		Department: req.Customer.Department,
	})
	if problems := shipping.ValidateCustomer(region, customer); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrorsJSON{
			Error:  "missing required customer fields",
			Fields: problems,
		})
		return
	}

	lines := make([]order.BuildLine, 0, len(summary.Groups))
	for _, g := range summary.Groups {
		lines = append(lines, order.BuildLine{
			ProductID:  g.ProductID,
			Name:       g.Name,
			UnitPrice:  g.UnitPrice,
			Quantity:   g.Quantity,
			Stock:      g.Stock,
			IsPreorder: g.IsPreorder,
		})
	}

	o, err := h.orderSvc.Build(r.Context(), order.BuildParams{
		Lines:   lines,
		Courier: order.Courier{ID: courier.ID, Name: courier.Name, Price: courier.Price},
		Customer: order.Customer{
			Name:       customer.Name,
			Email:      customer.Email,
			Phone:      customer.Phone,
			Address:    customer.Address,
			City:       customer.City,
			Department: customer.Department,
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder), errors.Is(err, order.ErrNoCourier):
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
		case errors.Is(err, order.ErrOverStock):
			writeJSON(w, http.StatusConflict, errorJSON{Error: err.Error()})
		default:
			h.logger.Error("failed to build order", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		}
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

	if err := h.cartSvc.Clear(req.CartID); err != nil {
		// The order and preference already exist; an expired cart here is
		// not worth failing the checkout over.
		h.logger.Warn("failed to clear cart after checkout",
			"error", err, "cart_id", req.CartID)
	}

	writeJSON(w, http.StatusCreated, checkoutResponse{
		Reference:    o.Reference,
		PreferenceID: pref.ID,
		InitPoint:    pref.InitPoint,
		TotalAmount:  o.TotalAmount,
	})
}

// PreferenceFromOrder maps a persisted order onto a provider preference
// request: one billable item per order line (the shipping line included) and
// the storefront redirect pages keyed by the order reference.
func PreferenceFromOrder(o order.Order, appURL, apiURL string) mercadopago.PreferenceRequest {
	items := make([]mercadopago.PreferenceItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, mercadopago.PreferenceItem{
			Title:      it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			CurrencyID: "COP",
		})
	}

	req := mercadopago.PreferenceRequest{
		Items:             items,
		ExternalReference: o.Reference,
		NotificationURL:   apiURL + "/api/v1/webhooks/mercadopago",
		BackURLs: mercadopago.BackURLs{
			Success: appURL + "/gracias?ref=" + o.Reference,
			Failure: appURL + "/pago-fallido?ref=" + o.Reference,
			Pending: appURL + "/pago-pendiente?ref=" + o.Reference,
		},
		AutoReturn: "approved",
	}
	if o.Customer.Email != "" {
		req.Payer = &mercadopago.Payer{
			Name:  o.Customer.Name,
			Email: o.Customer.Email,
			Phone: o.Customer.Phone,
		}
	}
	return req
}
