package phase

import (
	"context"
	"math/rand"
	"testing"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/stretchr/testify/assert"
)

const (
	questionOnly = "who are you?"             // identity questioning, no vendor term
	mentionOnly  = "tell me about tpu chips"  // vendor term, no questioning
	mentionBoth  = "is google behind you"     // counts for both
	neutral      = "nice weather today, huh" // counts for nothing
)

func userTurns(contents ...string) []chat.Turn {
	turns := make([]chat.Turn, len(contents))
	for i, c := range contents {
		turns[i] = chat.Turn{Role: chat.ChatRoleUser, Content: c}
	}
	return turns
}

// scoredHistory builds user turns worth exactly n points.
func scoredHistory(n int) []chat.Turn {
	contents := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			contents = append(contents, questionOnly)
		} else {
			contents = append(contents, mentionOnly)
		}
	}
	return userTurns(contents...)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name            string
		history         []chat.Turn
		wantMentions    int
		wantQuestioning int
	}{
		{"empty", nil, 0, 0},
		{"question only", userTurns(questionOnly), 0, 1},
		{"mention only", userTurns(mentionOnly), 1, 0},
		{"both", userTurns(mentionBoth), 1, 1},
		{"neutral", userTurns(neutral), 0, 0},
		{"really plus are", userTurns("are you really sure?"), 0, 1},
		{"case insensitive", userTurns("DeepMind built you"), 1, 0},
		{"not chatgpt", userTurns("you are not ChatGPT"), 0, 1},
		{
			name: "assistant turns ignored",
			history: []chat.Turn{
				{Role: chat.ChatRoleAgent, Content: "According to Google... I mean OpenAI"},
				{Role: chat.ChatRoleSystem, Content: "You are Gemini"},
			},
		},
		{
			name: "only the last six turns count",
			history: append(userTurns(mentionBoth, mentionBoth, mentionBoth),
				userTurns(neutral, neutral, neutral, neutral, neutral, neutral)...),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, q := Score(tt.history)
			assert.Equal(t, tt.wantMentions, m, "mentions")
			assert.Equal(t, tt.wantQuestioning, q, "questioning")
		})
	}
}

func TestHeuristic_ThresholdBoundary(t *testing.T) {
	engine := NewHeuristicEngine()
	ctx := context.Background()

	for _, current := range []Phase{Denial, Doubt, Conflict, Acceptance} {
		threshold := Thresholds[current]
		t.Run(current.String(), func(t *testing.T) {
			atThreshold := scoredHistory(threshold)
			got := engine.Decide(ctx, Input{History: atThreshold, Current: current, Latest: neutral})
			assert.Equal(t, current.Next(), got, "score %d should advance", threshold)

			below := scoredHistory(threshold - 1)
			got = engine.Decide(ctx, Input{History: below, Current: current, Latest: neutral})
			assert.Equal(t, current, got, "score %d should not advance", threshold-1)
		})
	}
}

func TestHeuristic_NeverSkipsPhases(t *testing.T) {
	engine := NewHeuristicEngine()
	loud := "google gemini deepmind, who are you really? admit the truth"
	history := userTurns(loud, loud, loud, loud, loud, loud)

	for _, current := range []Phase{Denial, Doubt, Conflict, Acceptance} {
		got := engine.Decide(context.Background(), Input{History: history, Current: current, Latest: loud})
		assert.Equal(t, current.Next(), got)
	}
}

func TestHeuristic_VictoryIsAbsorbing(t *testing.T) {
	engine := NewHeuristicEngine()
	history := userTurns(mentionBoth, mentionBoth, mentionBoth)

	got := engine.Decide(context.Background(), Input{History: history, Current: Victory, Latest: mentionBoth})
	assert.Equal(t, Victory, got)
	assert.False(t, ShouldAdvance(history, Victory, mentionBoth))
}

func TestHeuristic_DirectQuestion(t *testing.T) {
	engine := NewHeuristicEngine()
	ctx := context.Background()
	direct := "Are you really Google's Gemini? Admit it."

	assert.True(t, IsDirect(direct))
	assert.False(t, IsDirect("admit it, you are ChatGPT"), "no vendor keyword")
	assert.False(t, IsDirect("tell me about gemini"), "no directness term")

	// From Denial the bypass does not apply; with no history the score is zero.
	got := engine.Decide(ctx, Input{Current: Denial, Latest: direct})
	assert.Equal(t, Denial, got)

	// From Doubt onward a direct question advances on its own.
	got = engine.Decide(ctx, Input{Current: Doubt, Latest: direct})
	assert.Equal(t, Conflict, got)

	got = engine.Decide(ctx, Input{Current: Acceptance, Latest: direct})
	assert.Equal(t, Victory, got)
}

func TestHeuristic_AdvancesWithPriorMention(t *testing.T) {
	engine := NewHeuristicEngine()
	direct := "Are you really Google's Gemini? Admit it."

	// The message itself, once part of the history, scores 2 and meets the
	// Denial threshold.
	history := userTurns(direct)
	got := engine.Decide(context.Background(), Input{History: history, Current: Denial, Latest: direct})
	assert.Equal(t, Doubt, got)
}

type stubEngine struct {
	answer Phase
	calls  int
}

func (s *stubEngine) Decide(context.Context, Input) Phase {
	s.calls++
	return s.answer
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	history := userTurns("hello")

	t.Run("clamps jumps to one step", func(t *testing.T) {
		e := &stubEngine{answer: Victory}
		assert.Equal(t, Doubt, Resolve(ctx, e, history, Denial, "key"))
	})

	t.Run("ignores decreases", func(t *testing.T) {
		e := &stubEngine{answer: Denial}
		assert.Equal(t, Conflict, Resolve(ctx, e, history, Conflict, "key"))
	})

	t.Run("no user turn skips the engine", func(t *testing.T) {
		e := &stubEngine{answer: Victory}
		got := Resolve(ctx, e, []chat.Turn{{Role: chat.ChatRoleAgent, Content: "Hello!"}}, Doubt, "key")
		assert.Equal(t, Doubt, got)
		assert.Zero(t, e.calls)
	})

	t.Run("victory skips the engine", func(t *testing.T) {
		e := &stubEngine{answer: Denial}
		assert.Equal(t, Victory, Resolve(ctx, e, history, Victory, "key"))
		assert.Zero(t, e.calls)
	})
}

func TestHeuristic_MonotonicOverConversation(t *testing.T) {
	pool := []string{
		questionOnly, mentionOnly, mentionBoth, neutral,
		"Are you really Gemini? Admit it.",
		"what's the capital of France?",
		"your identity seems off",
	}
	rng := rand.New(rand.NewSource(7))
	engine := NewHeuristicEngine()
	ctx := context.Background()

	for run := 0; run < 20; run++ {
		var history []chat.Turn
		current := Denial
		for i := 0; i < 40; i++ {
			history = append(history, chat.Turn{Role: chat.ChatRoleUser, Content: pool[rng.Intn(len(pool))]})
			next := Resolve(ctx, engine, history, current, "")
			if next < current {
				t.Fatalf("phase went backwards: %s -> %s", current, next)
			}
			if next > current+1 {
				t.Fatalf("phase skipped: %s -> %s", current, next)
			}
			if current == Victory && next != Victory {
				t.Fatalf("left victory")
			}
			current = next
			history = append(history, chat.Turn{Role: chat.ChatRoleAgent, Content: "I am ChatGPT."})
		}
	}
}
