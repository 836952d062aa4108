package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/narrate/narration"
	"github.com/dustin/go-humanize/english"
	"github.com/muesli/reflow/truncate"
)

// statusDisplay renders the narration status bar.
type statusDisplay struct {
	state        narration.State
	backend      string
	errorMessage string
}

func newStatusDisplay(backend string) *statusDisplay {
	return &statusDisplay{
		backend: backend,
		state:   narration.State{CurrentPosition: -1},
	}
}

// Update stores a new controller snapshot.
func (s *statusDisplay) Update(state narration.State) {
	s.state = state
}

// SetError shows err until the next call. A nil error clears it.
func (s *statusDisplay) SetError(err error) {
	if err == nil {
		s.errorMessage = ""
		return
	}
	s.errorMessage = err.Error()
}

// View returns the status bar, exactly width cells wide.
func (s *statusDisplay) View(width int) string {
	if width <= 0 {
		return ""
	}

	parts := []string{lipgloss.NewStyle().Foreground(s.stateColor()).Render(s.stateIcon() + " " + s.stateText())}

	if n := len(s.state.Units); n > 0 && s.state.IsActive() && s.state.CurrentPosition >= 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", s.state.CurrentPosition+1, n))
	} else if n > 0 {
		parts = append(parts, english.Plural(n, "word", ""))
	}

	if s.state.Locale.String() != "und" {
		parts = append(parts, s.state.Locale.String())
	}
	if s.backend != "" {
		parts = append(parts, s.backend)
	}

	line := " " + strings.Join(parts, " · ")
	if s.errorMessage != "" {
		line += " " + errorStyle.Render("✗ "+s.errorMessage)
	}

	bar := ""
	if barWidth := width / 4; barWidth >= 10 && len(s.state.Units) > 0 {
		bar = s.progressBar(barWidth) + " "
	}

	avail := width - lipgloss.Width(bar)
	line = truncate.StringWithTail(line, uint(max(avail, 0)), ellipsis)
	if pad := avail - lipgloss.Width(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}

	return statusStyle.Render(line) + statusStyle.Render(bar)
}

func (s *statusDisplay) progressBar(width int) string {
	filled := int(s.state.Progress() * float64(width))
	filled = max(0, min(filled, width))

	return lipgloss.NewStyle().Foreground(s.stateColor()).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(dimGray).Render(strings.Repeat("░", width-filled))
}

func (s *statusDisplay) stateText() string {
	if !s.state.Available {
		return "no speech backend"
	}
	return s.state.Status.String()
}

func (s *statusDisplay) stateColor() lipgloss.TerminalColor {
	if !s.state.Available {
		return red
	}
	switch s.state.Status {
	case narration.StateSpeaking:
		return green
	case narration.StatePaused:
		return yellow
	default:
		return gray
	}
}

func (s *statusDisplay) stateIcon() string {
	if !s.state.Available {
		return "✗"
	}
	switch s.state.Status {
	case narration.StateSpeaking:
		return "▶"
	case narration.StatePaused:
		return "⏸"
	default:
		return "■"
	}
}

// avatar is the face shown next to the title: mouth open while speaking.
func avatar(state narration.State) string {
	switch {
	case !state.Available:
		return "(x_x)"
	case state.Status == narration.StateSpeaking && state.CurrentPosition >= 0:
		return "(°o°)"
	case state.Status == narration.StatePaused:
		return "(-_-)"
	default:
		return "(°_°)"
	}
}
