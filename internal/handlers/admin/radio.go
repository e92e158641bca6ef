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

// maxAudioSize caps radio track uploads at 30 MiB.
const maxAudioSize = 30 << 20

// RadioHandler exposes radio playlist management to the back office.
type RadioHandler struct {
	tracks *store.Tracks
	media  storage.Storage
	logger *slog.Logger
}

// NewRadioHandler creates a new admin radio handler.
func NewRadioHandler(tracks *store.Tracks, media storage.Storage, logger *slog.Logger) *RadioHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RadioHandler{
		tracks: tracks,
		media:  media,
		logger: logger,
	}
}

// RegisterRoutes registers the admin radio routes on the given mux.
func (h *RadioHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/api/radio/tracks", h.ListTracks)
	mux.HandleFunc("POST /admin/api/radio/tracks", h.CreateTrack)
	mux.HandleFunc("POST /admin/api/radio/tracks/{id}/audio", h.UploadAudio)
	mux.HandleFunc("DELETE /admin/api/radio/tracks/{id}", h.DeleteTrack)
}

type trackRequest struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ImageURL string `json:"image_url"`
}

// ListTracks handles GET /admin/api/radio/tracks, tracks without audio
// included.
func (h *RadioHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.tracks.List(r.Context(), false)
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

// CreateTrack handles POST /admin/api/radio/tracks
func (h *RadioHandler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "title is required"})
		return
	}

	t, err := h.tracks.Create(r.Context(), store.CreateTrackParams{
		Title:    req.Title,
		Artist:   req.Artist,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		h.logger.Error("failed to create track", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// UploadAudio handles POST /admin/api/radio/tracks/{id}/audio as a
// multipart form with an "audio" file field. The track stays off the
// public playlist until its audio is attached.
func (h *RadioHandler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid track ID"})
		return
	}

	if err := r.ParseMultipartForm(maxAudioSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "audio file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "file must be audio"})
		return
	}

	key := fmt.Sprintf("radio/%s/%s%s", id, uuid.NewString(), filepath.Ext(header.Filename))
	url, err := h.media.Put(r.Context(), key, file, contentType)
	if err != nil {
		h.logger.Error("failed to store track audio", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	if err := h.tracks.SetAudio(r.Context(), id, key, url); err != nil {
		if errors.Is(err, store.ErrTrackNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "track not found"})
			return
		}
		h.logger.Error("failed to save track audio URL", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file_url": url})
}

// DeleteTrack handles DELETE /admin/api/radio/tracks/{id}. The database
// row is authoritative; a failed storage cleanup is logged but does not
// fail the request.
func (h *RadioHandler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid track ID"})
		return
	}

	t, err := h.tracks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTrackNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "track not found"})
			return
		}
		h.logger.Error("failed to get track", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	if err := h.tracks.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrTrackNotFound) {
			writeJSON(w, http.StatusNotFound, errorJSON{Error: "track not found"})
			return
		}
		h.logger.Error("failed to delete track", "error", err, "id", id)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "internal server error"})
		return
	}

	if t.FileKey != "" {
		if err := h.media.Delete(r.Context(), t.FileKey); err != nil {
			h.logger.Error("failed to clean up track audio", "error", err, "id", id, "key", t.FileKey)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
