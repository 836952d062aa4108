package narration

import "golang.org/x/text/language"

// StateType represents the playback status of the narration engine.
type StateType int

const (
	// StateIdle indicates nothing is queued or the run has finished.
	StateIdle StateType = iota
	// StateSpeaking indicates the backend is vocalizing or between units.
	StateSpeaking
	// StatePaused indicates the backend is suspended mid-unit.
	StatePaused
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// State is a read-only snapshot of the controller handed to observers.
type State struct {
	Status          StateType    // Current playback status
	CurrentPosition int          // Unit being vocalized, -1 when none
	ResumePosition  int          // Where the next Play restarts
	Units           []Unit       // Sequence for the current text
	Locale          language.Tag // Locale of the current or last run
	Available       bool         // False when the backend is missing
}

// IsActive returns true if a run is speaking or paused.
func (s State) IsActive() bool {
	return s.Status == StateSpeaking || s.Status == StatePaused
}

// IsHighlighted reports whether the unit at position i is being spoken.
func (s State) IsHighlighted(i int) bool {
	return s.CurrentPosition >= 0 && s.CurrentPosition == i
}

// ButtonLabel returns the label a play/pause control should show.
func (s State) ButtonLabel() string {
	switch s.Status {
	case StateSpeaking:
		return "Pause"
	case StatePaused:
		return "Resume"
	default:
		return "Play"
	}
}

// Progress returns how far the run has advanced, from 0.0 to 1.0.
func (s State) Progress() float64 {
	if len(s.Units) == 0 {
		return 0
	}
	return float64(s.ResumePosition) / float64(len(s.Units))
}
