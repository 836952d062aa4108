package narration

import (
	"fmt"
	"strings"
	"time"
)

const (
	sentenceTerminals = ".!?"
	clauseMarks       = ",;"
)

// Pacing holds the three pause tiers inserted between consecutive units.
type Pacing struct {
	SentenceDelay time.Duration `yaml:"sentence_delay" env:"NARRATE_NARRATION_PACING_SENTENCE_DELAY" envDefault:"400ms"`
	ClauseDelay   time.Duration `yaml:"clause_delay" env:"NARRATE_NARRATION_PACING_CLAUSE_DELAY" envDefault:"150ms"`
	DefaultDelay  time.Duration `yaml:"default_delay" env:"NARRATE_NARRATION_PACING_DEFAULT_DELAY" envDefault:"0s"`
}

// DefaultPacing returns the default pause tiers.
func DefaultPacing() Pacing {
	return Pacing{
		SentenceDelay: 400 * time.Millisecond,
		ClauseDelay:   150 * time.Millisecond,
		DefaultDelay:  0,
	}
}

// Delay returns the pause to insert after a unit was spoken.
// Sentence punctuation wins over clause punctuation.
func (p Pacing) Delay(text string) time.Duration {
	switch {
	case strings.ContainsAny(text, sentenceTerminals):
		return p.SentenceDelay
	case strings.ContainsAny(text, clauseMarks):
		return p.ClauseDelay
	default:
		return p.DefaultDelay
	}
}

// Validate checks that no tier is negative.
func (p Pacing) Validate() error {
	if p.SentenceDelay < 0 || p.ClauseDelay < 0 || p.DefaultDelay < 0 {
		return fmt.Errorf("%w: pacing delays cannot be negative", ErrInvalidConfig)
	}
	return nil
}
