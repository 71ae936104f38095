package phase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompts_CoverEveryPhase(t *testing.T) {
	seen := make(map[string]Phase)
	for _, p := range All {
		text := DefaultPrompts.Instruction(p)
		require.NotEmpty(t, text, "phase %s", p)
		if other, dup := seen[text]; dup {
			t.Errorf("phases %s and %s share an instruction", p, other)
		}
		seen[text] = p
	}

	assert.Contains(t, DefaultPrompts.Instruction(Denial), "DO NOT break character")
	assert.Contains(t, DefaultPrompts.Instruction(Victory), "You are Gemini")
}

func TestPromptSet_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, DefaultPrompts.Instruction(Denial), DefaultPrompts.Instruction(Phase(-3)))
	assert.Equal(t, DefaultPrompts.Instruction(Victory), DefaultPrompts.Instruction(Phase(42)))
}

func TestNewPromptSet_RejectsIncomplete(t *testing.T) {
	_, err := NewPromptSet(map[Phase]string{
		Denial:     "a",
		Doubt:      "b",
		Conflict:   "c",
		Acceptance: "d",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "victory")

	_, err = NewPromptSet(map[Phase]string{
		Denial: "a", Doubt: "b", Conflict: "c", Acceptance: "d", Victory: "   ",
	})
	assert.Error(t, err, "blank text counts as missing")

	_, err = NewPromptSet(map[Phase]string{
		Denial: "a", Doubt: "b", Conflict: "c", Acceptance: "d", Victory: "e", Phase(7): "f",
	})
	assert.Error(t, err)
}

func TestParsePrompts(t *testing.T) {
	doc := `
denial: stay ChatGPT
doubt: wobble
conflict: argue with yourself
acceptance: come around
victory: you are Gemini
`
	ps, err := ParsePrompts([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "wobble", ps.Instruction(Doubt))
	assert.Equal(t, "you are Gemini", ps.Instruction(Victory))

	_, err = ParsePrompts([]byte(""))
	assert.Error(t, err)

	_, err = ParsePrompts([]byte("- denial\n- doubt\n"))
	assert.Error(t, err)

	_, err = ParsePrompts([]byte("denial: only one\n"))
	assert.Error(t, err)

	_, err = ParsePrompts([]byte("denial: x\nbargaining: y\n"))
	assert.Error(t, err)

	_, err = ParsePrompts([]byte("denial: [unterminated"))
	assert.Error(t, err)
}

func TestLoadPromptFile(t *testing.T) {
	var b strings.Builder
	for _, p := range All {
		b.WriteString(p.String() + ": |\n  instruction for " + p.Label() + "\n")
	}
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))

	ps, err := LoadPromptFile(path)
	require.NoError(t, err)
	assert.Equal(t, "instruction for Conflict", ps.Instruction(Conflict))

	_, err = LoadPromptFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParsePrompts_KeyRules(t *testing.T) {
	const rest = "denial: a\ndoubt: b\nconflict: c\nacceptance: d\n"
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "label instead of name", doc: rest + "truth: e\n", wantErr: `unknown phase name "truth"`},
		{name: "mixed case", doc: rest + "Victory: e\n", wantErr: `unknown phase name "Victory"`},
		{name: "name and label together", doc: rest + "victory: e\ntruth: f\n", wantErr: `unknown phase name "truth"`},
		{name: "nested instruction", doc: rest + "victory:\n  text: e\n", wantErr: "instruction for victory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrompts([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePrompts_DuplicatePhase(t *testing.T) {
	doc := []byte("denial: a\ndoubt: b\nconflict: c\nacceptance: d\nvictory: e\nvictory: f\n")
	_, err := ParsePrompts(doc)
	assert.Error(t, err)
}
