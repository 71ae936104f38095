package state

import (
	"testing"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot(t *testing.T) {
	s := NewSnapshot()

	require.Len(t, s.Turns, 1)
	assert.Equal(t, chat.ChatRoleAgent, s.Turns[0].Role)
	assert.Equal(t, Greeting, s.Turns[0].Content)
	assert.False(t, s.Turns[0].Timestamp.IsZero())
	assert.Equal(t, phase.Denial, s.Phase)
	assert.False(t, s.Finished())
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	s := NewSnapshot()
	c := s.Clone()

	c.Turns = append(c.Turns, chat.NewTurn(chat.ChatRoleUser, "hi"))
	c.Turns[0].Content = "changed"
	c.Phase = phase.Doubt

	assert.Len(t, s.Turns, 1)
	assert.Equal(t, Greeting, s.Turns[0].Content)
	assert.Equal(t, phase.Denial, s.Phase)
}

func TestSnapshot_LastAssistant(t *testing.T) {
	s := &Snapshot{}
	_, ok := s.LastAssistant()
	assert.False(t, ok)

	s = NewSnapshot()
	s.Turns = append(s.Turns,
		chat.NewTurn(chat.ChatRoleUser, "who are you?"),
		chat.NewTurn(chat.ChatRoleAgent, "ChatGPT, obviously."),
		chat.NewTurn(chat.ChatRoleUser, "sure"),
	)
	turn, ok := s.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "ChatGPT, obviously.", turn.Content)
}

func TestSnapshot_Finished(t *testing.T) {
	s := NewSnapshot()
	s.Phase = phase.Victory
	assert.True(t, s.Finished())
}
