package view

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GlitchRate is the per-phase increase in glitch probability.
const GlitchRate = 0.05

var glitchRunes = []rune("▓▒░█#%&@")

// ShouldGlitch reports whether a turn renders glitched for the draw, a
// uniform value in [0,1) supplied by the caller.
func ShouldGlitch(p phase.Phase, role string, draw float64) bool {
	if role != chat.ChatRoleAgent || p < phase.Doubt {
		return false
	}
	return draw < float64(p)*GlitchRate
}

// Glitch corrupts a spread of letters in text. The result depends only on
// text and draw; line breaks and length in runes are preserved.
func Glitch(text string, draw float64) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	step := 7 + int(draw*100)%11
	offset := int(draw*1000) % step
	for i := offset; i < len(runes); i += step {
		if unicode.IsLetter(runes[i]) {
			runes[i] = glitchRunes[(i+offset)%len(glitchRunes)]
		}
	}
	return string(runes)
}

// Wrap word-wraps text to width columns.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// RenderTurn renders one transcript turn. draw decides the glitch, see
// ShouldGlitch; pass 1 for a clean rendering. System turns render as "".
func RenderTurn(t chat.Turn, p phase.Phase, width int, draw float64) string {
	var speaker string
	var style lipgloss.Style
	switch t.Role {
	case chat.ChatRoleUser:
		speaker = "You"
		style = userStyle
	case chat.ChatRoleAgent:
		speaker = "AI"
		style = AccentStyle(p)
	default:
		return ""
	}

	header := style.Render(speaker)
	if !t.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(t.Timestamp.Local().Format("15:04"))
	}

	body := Wrap(t.Content, width)
	if ShouldGlitch(p, t.Role, draw) {
		body = " " + strings.ReplaceAll(Glitch(body, draw), "\n", "\n ")
	}
	return header + "\n" + body
}

// RenderTranscript renders every visible turn. draw supplies one uniform
// value per assistant turn for the glitch decision.
func RenderTranscript(turns []chat.Turn, p phase.Phase, width int, draw func() float64) string {
	var b strings.Builder
	for _, t := range chat.WithoutSystem(turns) {
		d := 1.0
		if t.Role == chat.ChatRoleAgent && draw != nil {
			d = draw()
		}
		b.WriteString(RenderTurn(t, p, width, d))
		b.WriteString("\n\n")
	}
	return b.String()
}

// PhaseIndicator renders one dot per phase, lit up to p, with p's label.
func PhaseIndicator(p phase.Phase) string {
	var b strings.Builder
	b.WriteString(PromptStyle.Render("Phase: "))
	for _, q := range phase.All {
		if q <= p {
			b.WriteString(lipgloss.NewStyle().Foreground(ThemeFor(q).Accent).Render("●"))
		} else {
			b.WriteString(dimDotStyle.Render("○"))
		}
		b.WriteString(" ")
	}
	b.WriteString(AccentStyle(p).Render(cases.Upper(language.English).String(p.Label())))
	return b.String()
}

// RenderNotice renders a notice line for level "info", "success" or "error".
func RenderNotice(level, text string) string {
	style, ok := noticeStyles[level]
	if !ok {
		style = noticeStyles["info"]
	}
	return style.Render(text)
}

// ProgressBar renders frame tick of an indeterminate bar width cells wide.
func ProgressBar(tick, width int) string {
	if width > 80 {
		width = 80
	} else if width < 10 {
		width = 10
	}

	const totalFrames = 40
	frame := tick % totalFrames
	filled := (frame * width) / totalFrames

	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return SeparatorStyle.Render(bar.String())
}
