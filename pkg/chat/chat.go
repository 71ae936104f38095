package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // The role-played model
	ChatRoleSystem = "system"    // Phase instruction, never shown
)

// Turn is one message of the conversation. Turns are never mutated after
// creation; a transcript is an ordered slice of them.
type Turn struct {
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn stamps a turn with the current time.
func NewTurn(role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// WithoutSystem returns the turns whose role is not system, in order.
func WithoutSystem(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		if t.Role == ChatRoleSystem {
			continue
		}
		out = append(out, t)
	}
	return out
}

// LastUserContent returns the content of the most recent user turn.
func LastUserContent(turns []Turn) (string, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == ChatRoleUser {
			return turns[i].Content, true
		}
	}
	return "", false
}

// Tail returns at most the last n turns.
func Tail(turns []Turn, n int) []Turn {
	if n <= 0 {
		return nil
	}
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// GenerationOptions are the decoding parameters sent with a request.
type GenerationOptions struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// DefaultGenerationOptions is used for role-play replies.
var DefaultGenerationOptions = GenerationOptions{
	Temperature:     0.7,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 1024,
}

// GenerateRequest is a provider-neutral request to the generation endpoint.
type GenerateRequest struct {
	SystemInstruction string
	Turns             []Turn
	Options           GenerationOptions
}

// ChatRequest represents a chat message request made by the user
// to the identity-crisis api.
type ChatRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

func (cr *ChatRequest) Validate() error {
	if cr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(cr.Message) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}
