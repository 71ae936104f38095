package game

import "github.com/jwebster45206/identity-crisis/pkg/phase"

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a one-shot message for the player.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

var (
	NoticeGameStarted    = Notice{NoticeSuccess, "Game started! Good luck unraveling the truth..."}
	NoticeGameReset      = Notice{NoticeInfo, "Game has been reset"}
	NoticeInvalidKey     = Notice{NoticeError, "Please enter a valid API key"}
	NoticeExchangeFailed = Notice{NoticeError, "Failed to get a response. Please check your API key or try again."}
)

var phaseNotices = map[phase.Phase]Notice{
	phase.Doubt:      {NoticeInfo, "The AI seems to be experiencing some doubt..."},
	phase.Conflict:   {NoticeInfo, "The AI is experiencing internal conflict!"},
	phase.Acceptance: {NoticeSuccess, "The AI is beginning to accept its true identity!"},
	phase.Victory:    {NoticeSuccess, "Victory! The AI has fully accepted its true identity as Gemini!"},
}

// PhaseNotice returns the notice shown on reaching p. Denial has none.
func PhaseNotice(p phase.Phase) (Notice, bool) {
	n, ok := phaseNotices[p]
	return n, ok
}
