package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/services/shipping"
	"github.com/casafunko/api/internal/store"
)

// PublicHandler holds dependencies for public catalog and shipping endpoints.
type PublicHandler struct {
	products *store.Products
	posts    *store.Posts
	logger   *slog.Logger
}

// NewPublicHandler creates a new public API handler.
func NewPublicHandler(products *store.Products, posts *store.Posts, logger *slog.Logger) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{
		products: products,
		posts:    posts,
		logger:   logger,
	}
}

// RegisterRoutes registers all public API routes on the given mux.
func (h *PublicHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/products", h.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/v1/categories", h.ListCategories)
	mux.HandleFunc("GET /api/v1/shipping/couriers", h.ListCouriers)
	mux.HandleFunc("GET /api/v1/posts", h.ListPosts)
	mux.HandleFunc("GET /api/v1/posts/{slug}", h.GetPost)
}

// --- JSON response types ---

type errorJSON struct {
	Error string `json:"error"`
}

type fieldErrorsJSON struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// ListProducts handles GET /api/v1/products with optional search, category
// and price-range filters.
func (h *PublicHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProductFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		MinPrice: parsePriceParam(q.Get("min_price")),
		MaxPrice: parsePriceParam(q.Get("max_price")),
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if products == nil {
		products = []store.Product{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": products})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *PublicHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid product ID"})
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "product not found"})
			return
		}
		h.logger.Error("failed to get product", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// ListCategories handles GET /api/v1/categories
func (h *PublicHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if categories == nil {
		categories = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": categories})
}

// ListCouriers handles GET /api/v1/shipping/couriers?region=local|national
func (h *PublicHandler) ListCouriers(w http.ResponseWriter, r *http.Request) {
	region := shipping.Region(r.URL.Query().Get("region"))

	couriers, err := shipping.CouriersFor(region)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "unknown shipping region"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"region": region,
		"data":   couriers,
	})
}

// ListPosts handles GET /api/v1/posts
func (h *PublicHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context(), false)
	if err != nil {
		h.logger.Error("failed to list posts", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if posts == nil {
		posts = []store.Post{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": posts})
}

// GetPost handles GET /api/v1/posts/{slug}
func (h *PublicHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.posts.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "post not found"})
			return
		}
		h.logger.Error("failed to get post", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// --- Helpers ---

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// At this point headers are already sent; just log the error.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// parsePriceParam parses a whole-peso price query parameter.
// Returns -1 when the parameter is missing or malformed.
func parsePriceParam(v string) int64 {
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
