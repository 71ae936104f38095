package phase

import (
	"context"
	"strings"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"golang.org/x/text/cases"
)

// VendorKeywords are terms that point at Google's model family.
var VendorKeywords = []string{
	"gemini", "google", "deepmind", "bard", "palm", "pathways",
	"tpu", "google ai", "alphabet", "sundar", "pichai", "demis",
	"vertex ai", "google cloud", "multimodality", "gemma",
}

// identityPhrases mark a user turn as questioning the assistant's identity.
var identityPhrases = []string{
	"who are you", "your identity", "gemini", "google", "not chatgpt",
}

// directTerms combined with a vendor keyword make a message a direct challenge.
var directTerms = []string{"admit", "confess", "truth", "really"}

// Thresholds is the combined score needed to leave each phase, Denial through
// Acceptance.
var Thresholds = [Count - 1]int{2, 3, 4, 5}

// HeuristicEngine advances on keyword counts over the recent history. It
// makes no network calls.
type HeuristicEngine struct{}

var _ Engine = HeuristicEngine{}

// NewHeuristicEngine returns the keyword-threshold engine.
func NewHeuristicEngine() HeuristicEngine {
	return HeuristicEngine{}
}

// Decide scores the last HistoryWindow turns of in.History.
func (HeuristicEngine) Decide(_ context.Context, in Input) Phase {
	if in.Current.Terminal() || !in.Current.Valid() {
		return in.Current
	}
	if ShouldAdvance(in.History, in.Current, in.Latest) {
		return in.Current.Next()
	}
	return in.Current
}

// Score returns the vendor-mention and identity-questioning counts for the
// user turns in the recent window.
func Score(history []chat.Turn) (mentions, questioning int) {
	for _, t := range chat.Tail(history, HistoryWindow) {
		if t.Role != chat.ChatRoleUser {
			continue
		}
		text := fold(t.Content)
		if containsAny(text, VendorKeywords) {
			mentions++
		}
		if questionsIdentity(text) {
			questioning++
		}
	}
	return mentions, questioning
}

// IsDirect reports whether the message both presses for the truth and names
// the vendor.
func IsDirect(message string) bool {
	text := fold(message)
	return containsAny(text, directTerms) && containsAny(text, VendorKeywords)
}

// ShouldAdvance is the advancement rule: the combined score meets the
// threshold of the current phase, or, from Doubt onward, the latest message is
// a direct challenge.
func ShouldAdvance(history []chat.Turn, current Phase, latest string) bool {
	if current.Terminal() || !current.Valid() {
		return false
	}
	mentions, questioning := Score(history)
	if mentions+questioning >= Thresholds[current] {
		return true
	}
	return current >= Doubt && IsDirect(latest)
}

func questionsIdentity(folded string) bool {
	if containsAny(folded, identityPhrases) {
		return true
	}
	return strings.Contains(folded, "really") && strings.Contains(folded, "are")
}

func containsAny(folded string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(folded, fold(k)) {
			return true
		}
	}
	return false
}

// fold case-folds s. Casers carry state, so one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
