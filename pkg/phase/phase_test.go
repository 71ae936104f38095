package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhase_Order(t *testing.T) {
	assert.True(t, Denial < Doubt)
	assert.True(t, Doubt < Conflict)
	assert.True(t, Conflict < Acceptance)
	assert.True(t, Acceptance < Victory)
	assert.Equal(t, 5, Count)
	assert.Len(t, All, Count)
}

func TestPhase_Next(t *testing.T) {
	assert.Equal(t, Doubt, Denial.Next())
	assert.Equal(t, Victory, Acceptance.Next())
	assert.Equal(t, Victory, Victory.Next(), "victory is absorbing")
	assert.True(t, Victory.Terminal())
	assert.False(t, Acceptance.Terminal())
}

func TestPhase_Labels(t *testing.T) {
	assert.Equal(t, "Denial", Denial.Label())
	assert.Equal(t, "Truth", Victory.Label())
	assert.Equal(t, "victory", Victory.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
	assert.Equal(t, "Unknown", Phase(-1).Label())
}

func TestParse(t *testing.T) {
	for _, p := range All {
		got, err := Parse(p.Format())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := Parse(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, Acceptance, got)

	for _, bad := range []string{"", "five", "5", "-1", "1.5"} {
		_, err := Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseName(t *testing.T) {
	tests := map[string]Phase{
		"denial":     Denial,
		"doubt":      Doubt,
		"conflict":   Conflict,
		"acceptance": Acceptance,
		"victory":    Victory,
	}
	for in, want := range tests {
		got, err := ParseName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"bargaining", "truth", "Doubt", " conflict", ""} {
		_, err := ParseName(in)
		assert.Error(t, err, "%q", in)
	}
}
