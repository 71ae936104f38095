package state

import (
	"time"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
)

// Greeting opens every new game.
const Greeting = "Hello! I'm ChatGPT, a large language model developed by OpenAI. How can I assist you today?"

// Snapshot is the persisted unit of a game: the visible transcript and the
// phase reached so far.
type Snapshot struct {
	Turns []chat.Turn `json:"chat_history"`
	Phase phase.Phase `json:"phase"`
}

// NewSnapshot starts a game in Denial with the assistant's greeting.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Turns: []chat.Turn{{
			Role:      chat.ChatRoleAgent,
			Content:   Greeting,
			Timestamp: time.Now().UTC(),
		}},
		Phase: phase.Denial,
	}
}

// Clone copies the snapshot so the copy's transcript can grow independently.
func (s *Snapshot) Clone() *Snapshot {
	turns := make([]chat.Turn, len(s.Turns))
	copy(turns, s.Turns)
	return &Snapshot{Turns: turns, Phase: s.Phase}
}

// Finished reports whether the game has reached Victory.
func (s *Snapshot) Finished() bool {
	return s.Phase.Terminal()
}

// LastAssistant returns the most recent assistant turn.
func (s *Snapshot) LastAssistant() (chat.Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == chat.ChatRoleAgent {
			return s.Turns[i], true
		}
	}
	return chat.Turn{}, false
}
