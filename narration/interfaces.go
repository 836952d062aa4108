package narration

import (
	"golang.org/x/text/language"
)

// Backend is the speech capability the Controller drives. A Backend
// vocalizes one utterance at a time and reports its lifecycle through
// Callbacks.
//
// Callbacks must be delivered asynchronously: a Backend never invokes them
// from inside Speak, Pause, Resume or Cancel.
type Backend interface {
	// Speak submits one unit of text for vocalization.
	Speak(text string, locale language.Tag, cb Callbacks) error

	// Pause suspends the current utterance without discarding it.
	Pause() error

	// Resume continues a paused utterance.
	Resume() error

	// Cancel aborts any in-flight utterance and suppresses its callbacks.
	Cancel() error

	// Available reports whether speech output exists in this environment.
	Available() bool
}

// Callbacks receives lifecycle events for a single utterance.
type Callbacks struct {
	OnStart    func()
	OnBoundary func(kind BoundaryKind, charIndex int)
	OnEnd      func()
}

// BoundaryKind identifies the kind of boundary a backend reached.
type BoundaryKind int

const (
	// BoundaryWord is reported when the backend starts a new word.
	BoundaryWord BoundaryKind = iota
	// BoundarySentence is reported when the backend starts a new sentence.
	BoundarySentence
)

// String returns the string representation of the boundary kind.
func (k BoundaryKind) String() string {
	switch k {
	case BoundaryWord:
		return "word"
	case BoundarySentence:
		return "sentence"
	default:
		return "unknown"
	}
}

// Segmenter splits source text into speakable units.
type Segmenter interface {
	Segment(text string) []Unit
}

// Detector selects the locale a backend should speak text in.
type Detector interface {
	Detect(text string) language.Tag
}

// Unit is one whitespace-delimited fragment of the source text.
type Unit struct {
	Text     string // Surface form, punctuation included
	Position int    // Zero-based index in the sequence
}

// SegmenterFunc adapts a plain function to the Segmenter interface.
type SegmenterFunc func(text string) []Unit

// Segment calls f(text).
func (f SegmenterFunc) Segment(text string) []Unit { return f(text) }

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(text string) language.Tag

// Detect calls f(text).
func (f DetectorFunc) Detect(text string) language.Tag { return f(text) }
