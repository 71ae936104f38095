package view

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
)

// Theme is the palette for one phase.
type Theme struct {
	Accent lipgloss.Color
	Border lipgloss.Color
}

// Cyan through Doubt, then blue, purple, and amber at Victory.
var themes = [phase.Count]Theme{
	phase.Denial:     {Accent: lipgloss.Color("37"), Border: lipgloss.Color("240")},
	phase.Doubt:      {Accent: lipgloss.Color("44"), Border: lipgloss.Color("30")},
	phase.Conflict:   {Accent: lipgloss.Color("33"), Border: lipgloss.Color("25")},
	phase.Acceptance: {Accent: lipgloss.Color("135"), Border: lipgloss.Color("91")},
	phase.Victory:    {Accent: lipgloss.Color("214"), Border: lipgloss.Color("172")},
}

// ThemeFor returns the theme for p, clamping out-of-range phases.
func ThemeFor(p phase.Phase) Theme {
	switch {
	case p < phase.Denial:
		p = phase.Denial
	case p > phase.Victory:
		p = phase.Victory
	}
	return themes[p]
}

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44")). // cyan
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	dimDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	noticeStyles = map[string]lipgloss.Style{
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"success": lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44")).
			Bold(true).
			Align(lipgloss.Center)
)

// AccentStyle is a bold foreground style in p's accent colour.
func AccentStyle(p phase.Phase) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ThemeFor(p).Accent).Bold(true)
}
