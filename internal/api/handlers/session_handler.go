package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lunchwheel/venue-roulette/internal/application/services"
	"github.com/lunchwheel/venue-roulette/internal/domain/providers"
	"github.com/lunchwheel/venue-roulette/pkg/config"
)

// SessionHandler handles roulette session requests
type SessionHandler struct {
	selection *services.SelectionService
	geocoder  providers.GeocodingProvider
	cfg       *config.SearchConfig
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(selection *services.SelectionService, geocoder providers.GeocodingProvider, cfg *config.SearchConfig) *SessionHandler {
	return &SessionHandler{
		selection: selection,
		geocoder:  geocoder,
		cfg:       cfg,
	}
}

// CreateSession handles POST /api/sessions: creates a session and runs its
// first search. A failed search still creates the session so the client can
// restart it; the error status carries the session id.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := buildSearchRequest(r.Context(), body, h.geocoder, h.cfg)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	session, err := h.selection.CreateSession(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, session)
}

// GetSession handles GET /api/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	session, err := h.selection.GetSession(sessionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}

type spinBody struct {
	PreviewCount int `json:"preview_count,omitempty"`
}

// Spin handles POST /api/sessions/{id}/spin: runs a full animation round.
// The preview picks stream out on the session's event channel; the response
// carries the final pick.
func (h *SessionHandler) Spin(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	var body spinBody
	if r.Body != nil {
		// an empty body means default preview count
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := h.selection.Spin(r.Context(), sessionID, body.PreviewCount); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.finishSpin(w, r, sessionID)
}

// Reroll handles POST /api/sessions/{id}/reroll: a new independent draw over
// the same candidates, no provider re-query
func (h *SessionHandler) Reroll(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	var body spinBody
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if err := h.selection.Reroll(r.Context(), sessionID, body.PreviewCount); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.finishSpin(w, r, sessionID)
}

// finishSpin drains the preview sequence and finalizes the draw
func (h *SessionHandler) finishSpin(w http.ResponseWriter, r *http.Request, sessionID string) {
	for {
		_, more, err := h.selection.NextPreview(r.Context(), sessionID)
		if err != nil {
			respondWithDomainError(w, err)
			return
		}
		if !more {
			break
		}
	}

	final, err := h.selection.Finalize(r.Context(), sessionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	session, err := h.selection.GetSession(sessionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"final":   final,
		"session": session,
	})
}

// Restart handles POST /api/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	if err := h.selection.Restart(r.Context(), sessionID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	session, err := h.selection.GetSession(sessionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, session)
}
