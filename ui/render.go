package ui

import (
	"strings"

	"github.com/dgnsrekt/narrate/narration"
	runewidth "github.com/mattn/go-runewidth"
)

// layout wraps units into lines no wider than width and highlights the unit
// being spoken. It returns the lines and the index of the line holding the
// highlighted unit, or -1.
func layout(units []narration.Unit, state narration.State, width int, st styles) ([]string, int) {
	if width < 1 {
		width = 1
	}

	var (
		lines   []string
		line    strings.Builder
		lineW   int
		current = -1
	)

	for _, u := range units {
		w := runewidth.StringWidth(u.Text)
		highlighted := state.IsHighlighted(u.Position)
		if highlighted && st.ascii {
			w += 2
		}

		if lineW > 0 && lineW+1+w > width {
			lines = append(lines, line.String())
			line.Reset()
			lineW = 0
		}
		if lineW > 0 {
			line.WriteByte(' ')
			lineW++
		}

		if highlighted {
			line.WriteString(st.mark(u.Text))
			current = len(lines)
		} else {
			line.WriteString(u.Text)
		}
		lineW += w
	}
	if lineW > 0 {
		lines = append(lines, line.String())
	}

	return lines, current
}

// window returns at most height lines, scrolled so that line focus stays in
// view.
func window(lines []string, focus, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := 0
	if focus >= 0 {
		start = focus - height/2
	}
	start = max(0, min(start, len(lines)-height))
	return lines[start : start+height]
}
