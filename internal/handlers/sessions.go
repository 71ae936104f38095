package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/identity-crisis/internal/game"
)

const sessionsPath = "/v1/sessions"

type CreateSessionRequest struct {
	APIKey string `json:"api_key"`
}

type SessionHandler struct {
	registry *game.Registry
	logger   *slog.Logger
}

func NewSessionHandler(registry *game.Registry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for sessions
// Routes:
// POST /v1/sessions        - Start a new game
// GET /v1/sessions/{id}    - Read a game
// DELETE /v1/sessions/{id} - Reset and forget a game
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, hasID, err := pathID(r.URL.Path, sessionsPath)
	if err != nil {
		h.logger.Warn("Invalid session ID", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch r.Method {
	case http.MethodPost:
		if hasID {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "POST is only supported on /v1/sessions")
			return
		}
		h.handleCreate(w, r)

	case http.MethodGet:
		if !hasID {
			writeError(w, h.logger, http.StatusBadRequest, "Session ID is required for GET requests")
			return
		}
		h.handleRead(w, r, id)

	case http.MethodDelete:
		if !hasID {
			writeError(w, h.logger, http.StatusBadRequest, "Session ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, id)

	default:
		h.logger.Warn("Method not allowed for sessions endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'api_key' field.")
		return
	}

	id, shell, notice, err := h.registry.Create(r.Context(), req.APIKey)
	if errors.Is(err, game.ErrCredentialMissing) {
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Notice: &notice})
		return
	}
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	view := newSessionView(id, shell)
	view.Notice = &notice
	writeJSON(w, h.logger, http.StatusCreated, view)
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	shell, err := h.registry.Get(r.Context(), id)
	if errors.Is(err, game.ErrSessionNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newSessionView(id, shell))
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	err := h.registry.Delete(r.Context(), id)
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, game.ErrBusy):
		writeError(w, h.logger, http.StatusConflict, err.Error())
	case err != nil:
		h.logger.Error("Failed to delete session", "session_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
