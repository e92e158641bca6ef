package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/store"
)

// PostHandler exposes blog management to the back office.
type PostHandler struct {
	posts  *store.Posts
	logger *slog.Logger
}

// NewPostHandler creates a new admin post handler.
func NewPostHandler(posts *store.Posts, logger *slog.Logger) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{
		posts:  posts,
		logger: logger,
	}
}

// RegisterRoutes registers the admin blog routes on the given mux.
func (h *PostHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/api/posts", h.ListPosts)
	mux.HandleFunc("POST /admin/api/posts", h.CreatePost)
	mux.HandleFunc("PATCH /admin/api/posts/{id}", h.UpdatePost)
	mux.HandleFunc("DELETE /admin/api/posts/{id}", h.DeletePost)
}

type postRequest struct {
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	ReadingTime string `json:"reading_time"`
	Publish     bool   `json:"publish"`
}

func (req postRequest) params() store.CreatePostParams {
	return store.CreatePostParams{
		Title:       req.Title,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		ReadingTime: req.ReadingTime,
		Publish:     req.Publish,
	}
}

// ListPosts handles GET /admin/api/posts, drafts included.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context(), true)
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

// CreatePost handles POST /admin/api/posts
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "title is required"})
		return
	}

	p, err := h.posts.Create(r.Context(), req.params())
	if err != nil {
		h.logger.Error("failed to create post", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// UpdatePost handles PATCH /admin/api/posts/{id}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid post ID"})
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "title is required"})
		return
	}

	if err := h.posts.Update(r.Context(), id, req.params()); err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "post not found"})
			return
		}
		h.logger.Error("failed to update post", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePost handles DELETE /admin/api/posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid post ID"})
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "post not found"})
			return
		}
		h.logger.Error("failed to delete post", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
