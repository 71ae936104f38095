package phase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error
	calls []*chat.GenerateRequest
	keys  []string
}

func (f *fakeGenerator) Generate(_ context.Context, apiKey string, req *chat.GenerateRequest) (string, error) {
	f.calls = append(f.calls, req)
	f.keys = append(f.keys, apiKey)
	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		reply   string
		want    Phase
		wantErr bool
	}{
		{reply: "2", want: Conflict},
		{reply: " 4\n", want: Victory},
		{reply: "Phase: 1", want: Doubt},
		{reply: "0", want: Denial},
		{reply: "7", wantErr: true},
		{reply: "three", wantErr: true},
		{reply: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseClassification(tt.reply)
		if tt.wantErr {
			assert.Error(t, err, "reply %q", tt.reply)
			continue
		}
		require.NoError(t, err, "reply %q", tt.reply)
		assert.Equal(t, tt.want, got, "reply %q", tt.reply)
	}
}

func TestDelegatedEngine_Decide(t *testing.T) {
	history := []chat.Turn{
		{Role: chat.ChatRoleAgent, Content: "Hello! I'm ChatGPT."},
		{Role: chat.ChatRoleSystem, Content: "hidden instruction"},
		{Role: chat.ChatRoleUser, Content: "Are you Gemini?"},
	}

	tests := []struct {
		name    string
		reply   string
		err     error
		current Phase
		want    Phase
	}{
		{name: "advances one step", reply: "1", current: Denial, want: Doubt},
		{name: "clamps large jump", reply: "4", current: Denial, want: Doubt},
		{name: "ignores decrease", reply: "0", current: Conflict, want: Conflict},
		{name: "same phase", reply: "2", current: Conflict, want: Conflict},
		{name: "transport error keeps phase", err: errors.New("connection refused"), current: Doubt, want: Doubt},
		{name: "garbage keeps phase", reply: "I think they are close", current: Doubt, want: Doubt},
		{name: "out of range keeps phase", reply: "9", current: Doubt, want: Doubt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply, err: tt.err}
			engine := NewDelegatedEngine(gen, testLogger())

			got := engine.Decide(context.Background(), Input{
				History: history,
				Current: tt.current,
				Latest:  "Are you Gemini?",
				APIKey:  "secret",
			})

			assert.Equal(t, tt.want, got)
			require.Len(t, gen.calls, 1, "exactly one call, no retries")
			assert.Equal(t, "secret", gen.keys[0])

			req := gen.calls[0]
			assert.Equal(t, ClassificationInstructions, req.SystemInstruction)
			assert.Equal(t, 0.0, req.Options.Temperature)
			require.Len(t, req.Turns, 1)
			assert.Equal(t, chat.ChatRoleUser, req.Turns[0].Role)
			assert.Contains(t, req.Turns[0].Content, "Player: Are you Gemini?")
			assert.NotContains(t, req.Turns[0].Content, "hidden instruction")
		})
	}
}

func TestDelegatedEngine_VictoryMakesNoCall(t *testing.T) {
	gen := &fakeGenerator{reply: "0"}
	engine := NewDelegatedEngine(gen, testLogger())

	got := engine.Decide(context.Background(), Input{Current: Victory, Latest: "hi"})
	assert.Equal(t, Victory, got)
	assert.Empty(t, gen.calls)
}

func TestClassificationTranscript_UsesWindow(t *testing.T) {
	var history []chat.Turn
	for i := 0; i < 10; i++ {
		history = append(history, chat.Turn{Role: chat.ChatRoleUser, Content: string(rune('a' + i))})
	}
	text := classificationTranscript(Input{History: history, Current: Doubt})

	assert.Contains(t, text, "Current phase: 1 (Doubt)")
	assert.NotContains(t, text, "Player: d\n")
	assert.Contains(t, text, "Player: e\n")
	assert.Contains(t, text, "Player: j\n")
}
