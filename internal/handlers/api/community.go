package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/casafunko/api/internal/store"
)

// MessageStore is the subset of the community message repository the
// public API needs.
type MessageStore interface {
	List(ctx context.Context, includeUnapproved bool) ([]store.Message, error)
	Create(ctx context.Context, params store.CreateMessageParams) (store.Message, error)
}

// TrackLister lists radio tracks for the public player.
type TrackLister interface {
	List(ctx context.Context, playableOnly bool) ([]store.Track, error)
}

// CommunityHandler serves the community wall and the radio playlist.
type CommunityHandler struct {
	messages MessageStore
	tracks   TrackLister
	logger   *slog.Logger
}

// NewCommunityHandler creates a new community handler.
func NewCommunityHandler(messages MessageStore, tracks TrackLister, logger *slog.Logger) *CommunityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommunityHandler{
		messages: messages,
		tracks:   tracks,
		logger:   logger,
	}
}

// RegisterRoutes registers the community routes on the given mux.
func (h *CommunityHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/community/messages", h.ListMessages)
	mux.HandleFunc("POST /api/v1/community/messages", h.PostMessage)
	mux.HandleFunc("GET /api/v1/radio/tracks", h.ListTracks)
}

// ListMessages handles GET /api/v1/community/messages. Only approved
// messages are visible here.
func (h *CommunityHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.List(r.Context(), false)
	if err != nil {
		h.logger.Error("failed to list messages", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": messages})
}

type messageRequest struct {
	Nickname         string `json:"nickname"`
	Email            string `json:"email"`
	Message          string `json:"message"`
	MarketingConsent bool   `json:"marketing_consent"`
}

func (req messageRequest) validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(req.Nickname) == "" {
		problems["nickname"] = "required"
	}
	if strings.TrimSpace(req.Email) == "" {
		problems["email"] = "required"
	}
	if strings.TrimSpace(req.Message) == "" {
		problems["message"] = "required"
	}
	return problems
}

type messageResponse struct {
	store.Message
	HeldForReview bool `json:"held_for_review"`
}

// PostMessage handles POST /api/v1/community/messages. Messages that trip
// the screening filter are stored unapproved and held for moderation.
func (h *CommunityHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if problems := req.validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrorsJSON{
			Error:  "all fields are required",
			Fields: problems,
		})
		return
	}

	suspicious := containsProfanity(req.Message) || containsProfanity(req.Nickname)
	m, err := h.messages.Create(r.Context(), store.CreateMessageParams{
		Nickname:         req.Nickname,
		Email:            req.Email,
		Message:          req.Message,
		MarketingConsent: req.MarketingConsent,
		Approved:         !suspicious,
	})
	if err != nil {
		h.logger.Error("failed to create message", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Message:       m,
		HeldForReview: suspicious,
	})
}

// ListTracks handles GET /api/v1/radio/tracks. Only active tracks with
// audio attached show up on the player.
func (h *CommunityHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.tracks.List(r.Context(), true)
	if err != nil {
		h.logger.Error("failed to list tracks", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}
	if tracks == nil {
		tracks = []store.Track{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": tracks})
}

// profanityTerms are screened as lowercase substrings of the nickname and
// message body.
var profanityTerms = []string{
	"badword", "spam", "viagra", "casino", "xxx", "porn", "sex",
	"idiot", "stupid", "hate",
}

func containsProfanity(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range profanityTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
