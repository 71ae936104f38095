package phase

import (
	"context"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
)

// HistoryWindow is how many recent turns an engine looks at.
const HistoryWindow = 6

// Input is everything an engine may consider for one decision.
type Input struct {
	History []chat.Turn // conversation so far, including the latest user turn
	Current Phase
	Latest  string // latest user utterance
	APIKey  string // credential for engines that call the model
}

// Engine decides the phase for the next reply. Implementations never return
// a phase lower than in.Current or more than one step above it.
type Engine interface {
	Decide(ctx context.Context, in Input) Phase
}

// Resolve applies the rules shared by every engine: without a user utterance,
// or once Victory is reached, the engine is not consulted. The engine's answer
// is clamped to [current, current+1] whatever it returns.
func Resolve(ctx context.Context, e Engine, history []chat.Turn, current Phase, apiKey string) Phase {
	latest, ok := chat.LastUserContent(history)
	if !ok || current.Terminal() {
		return current
	}
	next := e.Decide(ctx, Input{
		History: history,
		Current: current,
		Latest:  latest,
		APIKey:  apiKey,
	})
	return clamp(current, next)
}

func clamp(current, suggested Phase) Phase {
	if suggested <= current {
		return current
	}
	return current.Next()
}
