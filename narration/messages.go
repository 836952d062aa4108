package narration

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the controller and a UI.

// StateChangedMsg carries a new controller snapshot.
type StateChangedMsg struct {
	State State
}

// ClosedMsg indicates the subscription channel was closed.
type ClosedMsg struct{}

// ErrorMsg reports a backend failure to the UI.
type ErrorMsg struct {
	Err error
}

// WaitForState returns a command that blocks until the next snapshot on ch.
// Re-issue it after every StateChangedMsg to keep listening.
func WaitForState(ch <-chan State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return ClosedMsg{}
		}
		return StateChangedMsg{State: s}
	}
}
