package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/joenivl/top2000/internal/models"
	"github.com/joenivl/top2000/internal/shared"
)

// maxUpcomingCount caps the upcoming window a client may request.
const maxUpcomingCount = 50

// NowPlaying is the query surface the API exposes. Implemented by the
// playback coordinator.
type NowPlaying interface {
	CurrentSong() (*models.ResolvedSong, error)
	UpcomingSongs(count int) ([]*models.ResolvedSong, error)
}

// songPayload is the JSON shape for one resolved song.
type songPayload struct {
	Position    int                   `json:"position"`
	Artist      string                `json:"artist"`
	Title       string                `json:"title"`
	Year        int                   `json:"year,omitempty"`
	CoverArtURL string                `json:"cover_art_url,omitempty"`
	FunFacts    []string              `json:"fun_facts,omitempty"`
	History     []models.HistoryEntry `json:"position_history,omitempty"`
}

func toPayload(song *models.ResolvedSong) songPayload {
	return songPayload{
		Position:    song.Position(),
		Artist:      song.Artist(),
		Title:       song.Title(),
		Year:        song.Year(),
		CoverArtURL: song.CoverArtURL(),
		FunFacts:    song.FunFacts,
		History:     song.History,
	}
}

// APIHandler serves the read-only tracker endpoints. Implements the
// [Handler] interface for registration with a [Router].
type APIHandler struct {
	playback     NowPlaying
	defaultCount int
	logger       *log.Logger
}

// NewAPIHandler creates an API handler. defaultCount is the upcoming window
// size used when the client passes no count parameter.
func NewAPIHandler(playback NowPlaying, defaultCount int, logger *log.Logger) *APIHandler {
	if defaultCount <= 0 {
		defaultCount = 10
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &APIHandler{playback: playback, defaultCount: defaultCount, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"/api/current", "/api/upcoming", "/health"}
}

// ServeHTTP dispatches by path. Only GET is supported.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/current":
		h.current(w, r)
	case "/api/upcoming":
		h.upcoming(w, r)
	case "/health":
		h.health(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *APIHandler) current(w http.ResponseWriter, r *http.Request) {
	song, err := h.playback.CurrentSong()
	if err != nil {
		if errors.Is(err, shared.ErrStateNotFound) {
			h.writeError(w, http.StatusNotFound, "no song detected yet")
			return
		}
		h.logger.Error("current song query failed", "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusOK, toPayload(song))
}

func (h *APIHandler) upcoming(w http.ResponseWriter, r *http.Request) {
	count := h.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = parsed
	}
	if count > maxUpcomingCount {
		count = maxUpcomingCount
	}

	songs, err := h.playback.UpcomingSongs(count)
	if err != nil {
		h.logger.Error("upcoming query failed", "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload := make([]songPayload, 0, len(songs))
	for _, song := range songs {
		payload = append(payload, toPayload(song))
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"upcoming": payload})
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "err", err)
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
