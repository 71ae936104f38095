package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeExchangeCompleted EventType = "exchange.completed"
	EventTypeExchangeFailed    EventType = "exchange.failed"
	EventTypePhaseChanged      EventType = "phase.changed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the pub/sub channel for one session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Subscribe opens a subscription to one session's channel. Callers close it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(sessionID))
}

// PublishExchangeCompleted publishes an exchange.completed event
func (b *Broadcaster) PublishExchangeCompleted(ctx context.Context, sessionID uuid.UUID, requestID string, p phase.Phase, reply string) error {
	event := Event{
		Type:      EventTypeExchangeCompleted,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"status":      "completed",
			"phase":       int(p),
			"phase_label": p.Label(),
			"message":     reply,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishExchangeFailed publishes an exchange.failed event
func (b *Broadcaster) PublishExchangeFailed(ctx context.Context, sessionID uuid.UUID, requestID string, errorMsg string) error {
	event := Event{
		Type:      EventTypeExchangeFailed,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// PublishPhaseChanged publishes a phase.changed event
func (b *Broadcaster) PublishPhaseChanged(ctx context.Context, sessionID uuid.UUID, requestID string, from, to phase.Phase) error {
	event := Event{
		Type:      EventTypePhaseChanged,
		RequestID: requestID,
		SessionID: sessionID.String(),
		Data: map[string]any{
			"previous_phase": int(from),
			"phase":          int(to),
			"phase_label":    to.Label(),
			"victory":        to.Terminal(),
		},
	}
	return b.publishToSession(ctx, sessionID, event)
}

// publishToSession publishes an event to the session-specific channel
func (b *Broadcaster) publishToSession(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
