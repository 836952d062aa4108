package narration

import (
	"errors"
	"fmt"
)

// Common errors for the narration engine.
var (
	// ErrBackendUnavailable is reported when no speech capability exists.
	ErrBackendUnavailable = errors.New("speech backend is not available")
	// ErrStaleCallback marks a callback from a cancelled or superseded run.
	ErrStaleCallback = errors.New("stale backend callback")
	// ErrClosed is reported for operations after Close.
	ErrClosed = errors.New("narration controller has been closed")
	// ErrInvalidConfig is reported by Config.Validate.
	ErrInvalidConfig = errors.New("invalid narration configuration")
)

// Error records a failed backend interaction.
type Error struct {
	Op        string // Operation being performed (speak, pause, resume, cancel)
	Component string // Component that failed
	Unit      int    // Unit position involved, -1 when none
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Unit >= 0 {
		return fmt.Sprintf("%s %s (unit %d): %v", e.Component, e.Op, e.Unit, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Component, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func backendError(op string, unit int, err error) *Error {
	return &Error{Op: op, Component: "backend", Unit: unit, Err: err}
}
