package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisk95/Thalionyx/internal/api/respond"
	"github.com/rotisk95/Thalionyx/internal/model"
	"github.com/rotisk95/Thalionyx/internal/services"
)

// SessionHandler exposes reflection-session records.
type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SaveSession handles POST /v1/sessions
func (h *SessionHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var req model.ReflectionSession
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	sess, err := h.sessions.SaveSession(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, sess)
}

// ListSessions handles GET /v1/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*model.ReflectionSession{}
	}
	respond.WriteJSON(w, http.StatusOK, sessions)
}
