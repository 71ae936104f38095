package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/identity-crisis/internal/services"
	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
)

// Responder runs one exchange against the model: resolve the phase, pick its
// instruction, and ask for the next assistant turn.
type Responder struct {
	engine  phase.Engine
	prompts *phase.PromptSet
	llm     services.LLMService
	options chat.GenerationOptions
	logger  *slog.Logger
	now     func() time.Time
}

// Reply is a generated assistant turn and the phase it was generated under.
type Reply struct {
	Turn  chat.Turn
	Phase phase.Phase
}

// NewResponder creates a responder. A nil prompt set uses phase.DefaultPrompts.
func NewResponder(engine phase.Engine, prompts *phase.PromptSet, llm services.LLMService, logger *slog.Logger) *Responder {
	if prompts == nil {
		prompts = phase.DefaultPrompts
	}
	return &Responder{
		engine:  engine,
		prompts: prompts,
		llm:     llm,
		options: chat.DefaultGenerationOptions,
		logger:  logger,
		now:     time.Now,
	}
}

// Respond generates the reply to history, whose last turn is normally the
// player's. Nothing is mutated; on error the caller keeps its state.
func (r *Responder) Respond(ctx context.Context, history []chat.Turn, apiKey string, current phase.Phase) (*Reply, error) {
	resolved := phase.Resolve(ctx, r.engine, history, current, apiKey)
	if resolved != current {
		r.logger.Info("Phase advanced",
			"from", current.String(),
			"to", resolved.String())
	}

	req := &chat.GenerateRequest{
		SystemInstruction: r.prompts.Instruction(resolved),
		Turns:             chat.WithoutSystem(history),
		Options:           r.options,
	}

	text, err := r.llm.Generate(ctx, apiKey, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	return &Reply{
		Turn: chat.Turn{
			Role:      chat.ChatRoleAgent,
			Content:   text,
			Timestamp: r.now().UTC(),
		},
		Phase: resolved,
	}, nil
}
