package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/storage"
	"github.com/casafunko/api/internal/store"
)

// maxImageSize caps product image uploads at 5 MiB.
const maxImageSize = 5 << 20

// ProductHandler exposes catalog management to the back office.
type ProductHandler struct {
	products *store.Products
	media    storage.Storage
	logger   *slog.Logger
}

// NewProductHandler creates a new admin product handler.
func NewProductHandler(products *store.Products, media storage.Storage, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{
		products: products,
		media:    media,
		logger:   logger,
	}
}

// RegisterRoutes registers the admin product routes on the given mux.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/api/products", h.CreateProduct)
	mux.HandleFunc("PATCH /admin/api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /admin/api/products/{id}", h.DeleteProduct)
	mux.HandleFunc("POST /admin/api/products/{id}/image", h.UploadImage)
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Stock       int32  `json:"stock"`
	IsPreorder  bool   `json:"is_preorder"`
	ImageURL    string `json:"image_url"`
}

func (req productRequest) validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		problems["name"] = "required"
	}
	if req.Price < 0 {
		problems["price"] = "must not be negative"
	}
	if req.Stock < 0 {
		problems["stock"] = "must not be negative"
	}
	return problems
}

// CreateProduct handles POST /admin/api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid product",
			"fields": problems,
		})
		return
	}

	p, err := h.products.Create(r.Context(), store.CreateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		IsPreorder:  req.IsPreorder,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.logger.Error("failed to create product", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// UpdateProduct handles PATCH /admin/api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid product",
			"fields": problems,
		})
		return
	}

	p, err := h.products.Update(r.Context(), id, store.CreateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
		IsPreorder:  req.IsPreorder,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "product not found"})
			return
		}
		h.logger.Error("failed to update product", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /admin/api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid product ID"})
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "product not found"})
			return
		}
		h.logger.Error("failed to delete product", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles POST /admin/api/products/{id}/image as a multipart
// form with an "image" file field. The stored URL replaces any previous
// image on the product.
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid product ID"})
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "image file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "file must be an image"})
		return
	}

	key := fmt.Sprintf("products/%s/%s%s", id, uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.media.Put(r.Context(), key, file, contentType)
	if err != nil {
		h.logger.Error("failed to store product image", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	if err := h.products.SetImageURL(r.Context(), id, url); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "product not found"})
			return
		}
		h.logger.Error("failed to save product image URL", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image_url": url})
}
