// Package phase holds the narrative phases of the game and the engines that
// decide when a conversation has earned the next one.
package phase

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase is the ordered narrative state of the role-played assistant.
type Phase int

const (
	Denial Phase = iota
	Doubt
	Conflict
	Acceptance
	Victory
)

// Count is the number of phases.
const Count = int(Victory) + 1

// All lists the phases in order.
var All = []Phase{Denial, Doubt, Conflict, Acceptance, Victory}

var names = [Count]string{
	Denial:     "denial",
	Doubt:      "doubt",
	Conflict:   "conflict",
	Acceptance: "acceptance",
	Victory:    "victory",
}

// labels are what the player sees. Victory is shown as "Truth".
var labels = [Count]string{
	Denial:     "Denial",
	Doubt:      "Doubt",
	Conflict:   "Conflict",
	Acceptance: "Acceptance",
	Victory:    "Truth",
}

// Valid reports whether p is one of the five phases.
func (p Phase) Valid() bool {
	return p >= Denial && p <= Victory
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return names[p]
}

// Label is the display name of the phase.
func (p Phase) Label() string {
	if !p.Valid() {
		return "Unknown"
	}
	return labels[p]
}

// Terminal reports whether no further advancement is possible.
func (p Phase) Terminal() bool {
	return p >= Victory
}

// Next returns the following phase, or p itself when p is terminal.
func (p Phase) Next() Phase {
	if p.Terminal() {
		return Victory
	}
	return p + 1
}

// Format serializes the phase as its decimal value, the persisted form.
func (p Phase) Format() string {
	return strconv.Itoa(int(p))
}

// Parse reads a persisted phase ("0".."4").
func Parse(s string) (Phase, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Denial, fmt.Errorf("invalid phase %q: %w", s, err)
	}
	p := Phase(n)
	if !p.Valid() {
		return Denial, fmt.Errorf("phase %d out of range", n)
	}
	return p, nil
}

// ParseName reads a phase name exactly as String writes it, such as "doubt".
// Display labels and other spellings are rejected.
func ParseName(s string) (Phase, error) {
	for _, p := range All {
		if names[p] == s {
			return p, nil
		}
	}
	return Denial, fmt.Errorf("unknown phase name %q", s)
}
