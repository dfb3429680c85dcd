package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/reedfamily/reedbot/internal/restart"
)

// Votes opens and cancels restart votes outside Discord.
type Votes interface {
	StartVote(ctx context.Context, origin string) (string, error)
	CancelVote(ctx context.Context, origin string) (string, error)
}

// Sessions reports the current restart session.
type Sessions interface {
	Info() restart.Info
}

type RestartHandler struct {
	votes    Votes
	sessions Sessions
}

func NewRestartHandler(votes Votes, sessions Sessions) *RestartHandler {
	return &RestartHandler{votes: votes, sessions: sessions}
}

func (h *RestartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Info())
}

func (h *RestartHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := h.votes.StartVote(r.Context(), origin(r))
	switch {
	case errors.Is(err, restart.ErrInProgress):
		writeError(w, http.StatusConflict, "a restart is already in progress")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to start restart vote")
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
	}
}

func (h *RestartHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := h.votes.CancelVote(r.Context(), origin(r))
	switch {
	case errors.Is(err, restart.ErrNoSession):
		writeError(w, http.StatusNotFound, "there is no restart in progress to cancel")
	case errors.Is(err, restart.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "the restart is already underway and can no longer be canceled")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to cancel restart")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
	}
}

func origin(r *http.Request) string {
	return "api " + r.RemoteAddr
}
