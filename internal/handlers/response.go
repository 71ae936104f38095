package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/identity-crisis/internal/game"
	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/state"
)

type ErrorResponse struct {
	Error  string       `json:"error"`
	Notice *game.Notice `json:"notice,omitempty"`
}

// SessionView is the JSON form of one session.
type SessionView struct {
	ID                  uuid.UUID    `json:"id"`
	State               string       `json:"state"`
	Phase               int          `json:"phase"`
	PhaseLabel          string       `json:"phase_label"`
	Finished            bool         `json:"finished"`
	CooldownRemainingMS int64        `json:"cooldown_remaining_ms"`
	ChatHistory         []chat.Turn  `json:"chat_history"`
	Notice              *game.Notice `json:"notice,omitempty"`
}

func newSessionView(id uuid.UUID, shell *game.Shell) SessionView {
	view := SessionView{
		ID:                  id,
		State:               shell.State().String(),
		CooldownRemainingMS: shell.CooldownRemaining().Milliseconds(),
	}
	snap := shell.Snapshot()
	if snap == nil {
		snap = &state.Snapshot{}
	}
	view.Phase = int(snap.Phase)
	view.PhaseLabel = snap.Phase.Label()
	view.Finished = snap.Finished()
	view.ChatHistory = snap.Turns
	return view
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// pathID extracts the uuid following prefix in path. ok is false when the
// path has no id segment; err is set when the segment is not a uuid.
func pathID(path, prefix string) (id uuid.UUID, ok bool, err error) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(rest)
	return id, true, err
}
