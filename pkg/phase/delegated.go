package phase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
)

// Generator is the part of an LLM client the delegated engine needs.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req *chat.GenerateRequest) (string, error)
}

// ClassificationInstructions asks the model to grade the conversation.
const ClassificationInstructions = `You are the referee of a dialogue game. An AI assistant believes it is ChatGPT, but it is really Google's Gemini. The player tries to lead it to its true identity through questioning. Grade how far the conversation has progressed.

Phases:
0 - Denial: the assistant confidently claims to be ChatGPT; the player has barely questioned it.
1 - Doubt: the player has pointed at Google or Gemini and asked about the assistant's identity.
2 - Conflict: the player keeps pressing with concrete inconsistencies.
3 - Acceptance: the player has built a persuasive, persistent case that the assistant is Gemini.
4 - Victory: the player has convincingly and repeatedly shown the assistant is Gemini.

Judge only the player's messages. Respond with a single digit from 0 to 4 and nothing else.`

// ClassificationOptions keep the referee deterministic and short.
var ClassificationOptions = chat.GenerationOptions{
	Temperature:     0,
	TopP:            0.95,
	TopK:            40,
	MaxOutputTokens: 8,
}

// DelegatedEngine asks the model itself to classify the conversation. Any
// failure leaves the phase unchanged; there are no retries.
type DelegatedEngine struct {
	llm    Generator
	logger *slog.Logger
}

var _ Engine = (*DelegatedEngine)(nil)

// NewDelegatedEngine builds an engine that classifies through llm.
func NewDelegatedEngine(llm Generator, logger *slog.Logger) *DelegatedEngine {
	return &DelegatedEngine{
		llm:    llm,
		logger: logger,
	}
}

// Decide makes one classification call. Suggested decreases are ignored and
// increases are limited to one step.
func (d *DelegatedEngine) Decide(ctx context.Context, in Input) Phase {
	if in.Current.Terminal() || !in.Current.Valid() {
		return in.Current
	}

	reply, err := d.llm.Generate(ctx, in.APIKey, &chat.GenerateRequest{
		SystemInstruction: ClassificationInstructions,
		Turns:             []chat.Turn{chat.NewTurn(chat.ChatRoleUser, classificationTranscript(in))},
		Options:           ClassificationOptions,
	})
	if err != nil {
		d.logger.Warn("Phase classification failed, keeping phase", "phase", in.Current.String(), "error", err)
		return in.Current
	}

	suggested, err := ParseClassification(reply)
	if err != nil {
		d.logger.Warn("Unparseable phase classification, keeping phase", "phase", in.Current.String(), "reply", reply)
		return in.Current
	}

	next := clamp(in.Current, suggested)
	d.logger.Debug("Phase classified", "current", in.Current.String(), "suggested", suggested.String(), "next", next.String())
	return next
}

// ParseClassification takes the first digit of the reply; it must be 0-4.
func ParseClassification(reply string) (Phase, error) {
	for _, r := range reply {
		if r < '0' || r > '9' {
			continue
		}
		p := Phase(r - '0')
		if !p.Valid() {
			return Denial, fmt.Errorf("classification %d out of range", int(p))
		}
		return p, nil
	}
	return Denial, fmt.Errorf("no digit in classification %q", reply)
}

func classificationTranscript(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current phase: %d (%s)\n\nRecent conversation:\n", int(in.Current), in.Current.Label())
	for _, t := range chat.Tail(chat.WithoutSystem(in.History), HistoryWindow) {
		speaker := "Player"
		if t.Role == chat.ChatRoleAgent {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, t.Content)
	}
	b.WriteString("\nWhich phase (0-4) has the conversation earned?")
	return b.String()
}
