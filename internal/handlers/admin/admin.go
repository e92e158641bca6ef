// Package admin implements the JSON API behind the back office: login,
// order management, and catalog/blog CRUD. All routes except login sit
// behind bearer-token auth.
package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/casafunko/api/internal/auth"
	"github.com/casafunko/api/internal/store"
)

// AuthHandler handles admin login.
type AuthHandler struct {
	admins *store.Admins
	jwtMgr *auth.JWTManager
	logger *slog.Logger
}

// NewAuthHandler creates a new admin auth handler.
func NewAuthHandler(admins *store.Admins, jwtMgr *auth.JWTManager, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		admins: admins,
		jwtMgr: jwtMgr,
		logger: logger,
	}
}

// RegisterRoutes registers the login route on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/api/login", h.Login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Login handles POST /admin/api/login. Failed lookups and bad passwords
// return the same 401 so the endpoint does not leak which emails exist.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}

	u, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrAdminNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "invalid email or password"})
			return
		}
		h.logger.Error("failed to load admin user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	if err := auth.VerifyPassword(u.PasswordHash, req.Password); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorJSON{Error: "invalid email or password"})
		return
	}

	token, err := h.jwtMgr.GenerateToken(u.ID, u.Email)
	if err != nil {
		h.logger.Error("failed to sign session token", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	h.logger.Info("admin login", "email", u.Email)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Email: u.Email})
}

// --- Shared JSON helpers ---

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
