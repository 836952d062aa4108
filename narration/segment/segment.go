// Package segment splits source text into speakable narration units.
package segment

import (
	"strings"

	"github.com/dgnsrekt/narrate/narration"
)

// Segmenter splits text on runs of whitespace. The zero value is ready to
// use.
type Segmenter struct{}

// New creates a new segmenter.
func New() Segmenter {
	return Segmenter{}
}

// Segment implements narration.Segmenter.
func (Segmenter) Segment(text string) []narration.Unit {
	return Segment(text)
}

// Segment splits text into units. Each unit keeps its surface form,
// trailing punctuation included, since pacing depends on it. Empty or
// whitespace-only text yields an empty sequence.
func Segment(text string) []narration.Unit {
	fields := strings.Fields(text)
	units := make([]narration.Unit, len(fields))
	for i, f := range fields {
		units[i] = narration.Unit{Text: f, Position: i}
	}
	return units
}

// Join reconstructs the word sequence with single spaces.
func Join(units []narration.Unit) string {
	words := make([]string, len(units))
	for i, u := range units {
		words[i] = u.Text
	}
	return strings.Join(words, " ")
}
