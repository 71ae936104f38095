package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jwebster45206/identity-crisis/internal/game"
	"github.com/jwebster45206/identity-crisis/internal/middleware"
	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
)

// EventPublisher receives exchange outcomes. Failures are logged only.
type EventPublisher interface {
	PublishExchangeCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, p phase.Phase, reply string) error
	PublishExchangeFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error
	PublishPhaseChanged(ctx context.Context, sessionID uuid.UUID, requestID string, from, to phase.Phase) error
}

type ChatResponse struct {
	Message       string       `json:"message"`
	Phase         int          `json:"phase"`
	PhaseLabel    string       `json:"phase_label"`
	PreviousPhase int          `json:"previous_phase"`
	Notice        *game.Notice `json:"notice,omitempty"`
	ChatHistory   []chat.Turn  `json:"chat_history"`
}

// ChatHandler handles chat requests
type ChatHandler struct {
	registry  *game.Registry
	publisher EventPublisher // nil when events are disabled
	logger    *slog.Logger
}

// NewChatHandler creates a new chat handler. publisher may be nil.
func NewChatHandler(registry *game.Registry, publisher EventPublisher, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		registry:  registry,
		publisher: publisher,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for chat
// POST /v1/chat
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for chat endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'session_id' and 'message' fields.")
		return
	}
	if err := request.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	requestID := middleware.RequestID(r.Context())
	log := h.logger.With("session_id", request.SessionID.String(), "request_id", requestID)

	shell, err := h.registry.Get(r.Context(), request.SessionID)
	if errors.Is(err, game.ErrSessionNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Error("Failed to load session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}

	result, err := shell.Submit(r.Context(), request.Message)
	if err != nil {
		h.writeSubmitError(r.Context(), w, log, request.SessionID, requestID, err)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishExchangeCompleted(r.Context(), request.SessionID, requestID, result.Phase, result.Reply.Content); err != nil {
			log.Warn("Failed to publish exchange event", "error", err)
		}
		if result.PhaseChanged() {
			if err := h.publisher.PublishPhaseChanged(r.Context(), request.SessionID, requestID, result.Previous, result.Phase); err != nil {
				log.Warn("Failed to publish phase event", "error", err)
			}
		}
	}

	response := ChatResponse{
		Message:       result.Reply.Content,
		Phase:         int(result.Phase),
		PhaseLabel:    result.Phase.Label(),
		PreviousPhase: int(result.Previous),
		Notice:        result.Notice,
	}
	if snap := shell.Snapshot(); snap != nil {
		response.ChatHistory = snap.Turns
	}
	writeJSON(w, h.logger, http.StatusOK, response)
}

func (h *ChatHandler) writeSubmitError(ctx context.Context, w http.ResponseWriter, log *slog.Logger, sessionID uuid.UUID, requestID string, err error) {
	var cooldown *game.CooldownError
	switch {
	case errors.Is(err, game.ErrEmptyMessage), errors.Is(err, game.ErrCredentialMissing):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())

	case errors.Is(err, game.ErrBusy), errors.Is(err, game.ErrGameOver):
		writeError(w, h.logger, http.StatusConflict, err.Error())

	case errors.As(err, &cooldown):
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cooldown.Remaining.Seconds()))))
		writeError(w, h.logger, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, game.ErrExchangeFailed):
		log.Error("Error generating chat response", "error", err)
		if h.publisher != nil {
			if perr := h.publisher.PublishExchangeFailed(ctx, sessionID, requestID, err.Error()); perr != nil {
				log.Warn("Failed to publish exchange event", "error", perr)
			}
		}
		notice := game.NoticeExchangeFailed
		writeJSON(w, h.logger, http.StatusBadGateway, ErrorResponse{Error: notice.Text, Notice: &notice})

	default:
		log.Error("Chat request failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process chat request")
	}
}
