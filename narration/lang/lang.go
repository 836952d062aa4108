// Package lang picks the locale a speech backend should use for a text.
//
// Detection is a script-range heuristic, not language identification: any
// rune in the Devanagari block selects the Devanagari locale.
package lang

import (
	"golang.org/x/text/language"
)

const (
	devanagariFirst = '\u0900'
	devanagariLast  = '\u097F'
)

var (
	// DefaultTag is used for text without Devanagari.
	DefaultTag = language.AmericanEnglish
	// DevanagariTag is used for text containing Devanagari (Hindi/Marathi).
	DevanagariTag = language.MustParse("hi-IN")
)

// Detector chooses between a default and a Devanagari locale.
type Detector struct {
	Default    language.Tag
	Devanagari language.Tag
}

// New creates a detector with the given tags.
func New(def, devanagari language.Tag) Detector {
	return Detector{Default: def, Devanagari: devanagari}
}

// NewDefault creates a detector returning en-US or hi-IN.
func NewDefault() Detector {
	return New(DefaultTag, DevanagariTag)
}

// Detect implements narration.Detector.
func (d Detector) Detect(text string) language.Tag {
	if HasDevanagari(text) {
		return d.Devanagari
	}
	return d.Default
}

// Detect returns hi-IN if text contains Devanagari, otherwise en-US.
func Detect(text string) language.Tag {
	return NewDefault().Detect(text)
}

// HasDevanagari reports whether any rune falls in U+0900–U+097F.
func HasDevanagari(text string) bool {
	for _, r := range text {
		if r >= devanagariFirst && r <= devanagariLast {
			return true
		}
	}
	return false
}
