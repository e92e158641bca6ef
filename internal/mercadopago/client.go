// Package mercadopago wraps the Mercado Pago REST API: checkout preference
// creation and webhook signature verification. It is the primary integration
// point with the payment provider.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrEmptyItems is returned when a preference is created with no items.
	ErrEmptyItems = errors.New("preference items must not be empty")
	// ErrMissingReference is returned when no external reference is provided.
	ErrMissingReference = errors.New("external reference is required")
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s", e.StatusCode, e.Message)
}

// Client calls the Mercado Pago API with bearer-token authentication.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a Mercado Pago client. baseURL may be overridden for
// tests; empty means the production API.
func NewClient(accessToken, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// PreferenceItem is one billable line on a checkout preference.
type PreferenceItem struct {
	Title      string `json:"title"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int32  `json:"quantity"`
	CurrencyID string `json:"currency_id"`
}

// BackURLs are the redirect targets after hosted checkout.
type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// Payer is the optional buyer contact pre-filled on the checkout page.
type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// PreferenceRequest contains everything needed to create a checkout
// preference. ExternalReference is the order reference; the provider echoes
// it back on redirects and notifications.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	Payer             *Payer           `json:"payer,omitempty"`
}

// Preference is the created provider-side checkout object.
type Preference struct {
	ID string `json:"id"`
	// InitPoint is the hosted checkout URL the browser is redirected to.
	InitPoint string `json:"init_point"`
}

// CreatePreference creates a checkout preference and returns its id and the
// hosted checkout URL.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	if len(req.Items) == 0 {
		return Preference{}, ErrEmptyItems
	}
	if req.ExternalReference == "" {
		return Preference{}, ErrMissingReference
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Preference{}, fmt.Errorf("encoding preference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return Preference{}, fmt.Errorf("building preference request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("creating checkout preference",
		slog.String("external_reference", req.ExternalReference),
		slog.Int("items", len(req.Items)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Preference{}, fmt.Errorf("calling preference endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Preference{}, fmt.Errorf("reading preference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(respBody))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return Preference{}, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var pref Preference
	if err := json.Unmarshal(respBody, &pref); err != nil {
		return Preference{}, fmt.Errorf("decoding preference response: %w", err)
	}
	if pref.ID == "" {
		return Preference{}, fmt.Errorf("preference response missing id")
	}

	c.logger.Info("checkout preference created",
		slog.String("external_reference", req.ExternalReference),
		slog.String("preference_id", pref.ID),
	)

	return pref, nil
}
