package ui

import (
	"github.com/charmbracelet/lipgloss"
	te "github.com/muesli/termenv"
)

const ellipsis = "…"

var (
	green    = lipgloss.Color("#04B575")
	yellow   = lipgloss.Color("#ECFD65")
	red      = lipgloss.Color("#FF5F87")
	gray     = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	dimGray  = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}
	fuchsia  = lipgloss.Color("#EE6FF8")
	barColor = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(fuchsia).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	avatarStyle  = lipgloss.NewStyle().Foreground(fuchsia).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(gray)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	statusStyle  = lipgloss.NewStyle().Background(barColor).Foreground(gray)
	editingStyle = lipgloss.NewStyle().Foreground(yellow)
)

// styles holds the settings that depend on configuration and terminal.
type styles struct {
	highlight lipgloss.Style
	ascii     bool
}

func newStyles(cfg Config) styles {
	return styles{
		highlight: lipgloss.NewStyle().
			Background(lipgloss.Color(cfg.HighlightColor)).
			Foreground(lipgloss.Color("0")).
			Bold(true),
		ascii: cfg.ASCII || te.EnvColorProfile() == te.Ascii,
	}
}

// mark renders a highlighted unit.
func (s styles) mark(text string) string {
	if s.ascii {
		return "[" + text + "]"
	}
	return s.highlight.Render(text)
}
