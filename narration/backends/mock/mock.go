// Package mock provides a scripted speech backend for testing.
package mock

import (
	"sync"
	"time"

	"github.com/dgnsrekt/narrate/narration"
	"golang.org/x/text/language"
)

const autoStep = 10 * time.Millisecond

// Utterance records one Speak call.
type Utterance struct {
	Text      string
	Locale    language.Tag
	Callbacks narration.Callbacks

	id        int
	cancelled bool
}

// Backend implements narration.Backend without producing sound.
//
// In manual mode (the default) callbacks only fire when a test calls
// FireStart, FireBoundary, FireEnd or Complete. Backends built with NewAuto
// play each utterance on its own goroutine.
type Backend struct {
	mu sync.Mutex

	// Control for testing
	available    bool
	speakErr     error
	pauseErr     error
	wordDuration time.Duration

	// State
	current *Utterance
	paused  bool
	nextID  int

	// Recorded calls
	spoken      []*Utterance
	pauseCount  int
	resumeCount int
	cancelCount int
}

// New creates a new mock backend in manual mode.
func New() *Backend {
	return &Backend{available: true}
}

// NewAuto creates a mock backend that speaks each unit for d.
func NewAuto(d time.Duration) *Backend {
	b := New()
	b.wordDuration = d
	return b
}

// Speak records the utterance. In auto mode it also starts playback.
func (b *Backend) Speak(text string, locale language.Tag, cb narration.Callbacks) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.speakErr != nil {
		return b.speakErr
	}

	b.nextID++
	u := &Utterance{Text: text, Locale: locale, Callbacks: cb, id: b.nextID}
	b.current = u
	b.spoken = append(b.spoken, u)

	if b.wordDuration > 0 {
		go b.play(u, b.wordDuration)
	}
	return nil
}

// Pause marks the backend paused.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pauseErr != nil {
		return b.pauseErr
	}
	b.paused = true
	b.pauseCount++
	return nil
}

// Resume clears the paused flag.
func (b *Backend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paused = false
	b.resumeCount++
	return nil
}

// Cancel drops the current utterance; its callbacks no longer fire.
func (b *Backend) Cancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.current.cancelled = true
		b.current = nil
	}
	b.paused = false
	b.cancelCount++
	return nil
}

// Available returns the mock availability state.
func (b *Backend) Available() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available
}

// Test control methods

// SetAvailable configures what Available reports.
func (b *Backend) SetAvailable(available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.available = available
}

// SetSpeakError makes every Speak call fail with err. Pass nil to clear.
func (b *Backend) SetSpeakError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speakErr = err
}

// SetPauseError makes every Pause call fail with err. Pass nil to clear.
func (b *Backend) SetPauseError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pauseErr = err
}

// FireStart invokes the current utterance's start callback.
func (b *Backend) FireStart() bool {
	return b.fire(eventStart, narration.BoundaryWord)
}

// FireBoundary invokes the current utterance's boundary callback.
func (b *Backend) FireBoundary(kind narration.BoundaryKind) bool {
	return b.fire(eventBoundary, kind)
}

// FireEnd invokes the current utterance's end callback.
func (b *Backend) FireEnd() bool {
	return b.fire(eventEnd, narration.BoundaryWord)
}

// Complete fires start, a word boundary and end for the current utterance.
func (b *Backend) Complete() bool {
	if !b.FireStart() {
		return false
	}
	b.FireBoundary(narration.BoundaryWord)
	return b.FireEnd()
}

// Spoken returns the texts submitted so far.
func (b *Backend) Spoken() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	texts := make([]string, len(b.spoken))
	for i, u := range b.spoken {
		texts[i] = u.Text
	}
	return texts
}

// Last returns the most recent utterance, cancelled or not.
func (b *Backend) Last() (Utterance, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.spoken) == 0 {
		return Utterance{}, false
	}
	return *b.spoken[len(b.spoken)-1], true
}

// Pending reports whether an utterance is in flight.
func (b *Backend) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

// IsPaused reports whether Pause was called without a later Resume.
func (b *Backend) IsPaused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// PauseCount returns the number of Pause calls.
func (b *Backend) PauseCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pauseCount
}

// ResumeCount returns the number of Resume calls.
func (b *Backend) ResumeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resumeCount
}

// CancelCount returns the number of Cancel calls.
func (b *Backend) CancelCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelCount
}

type event int

const (
	eventStart event = iota
	eventBoundary
	eventEnd
)

// fire delivers ev to the current utterance.
func (b *Backend) fire(ev event, kind narration.BoundaryKind) bool {
	b.mu.Lock()
	u := b.current
	b.mu.Unlock()

	if u == nil {
		return false
	}
	return b.fireFor(u, ev, kind)
}

// fireFor delivers ev to u if it is still live, outside the lock. An end
// event retires u first so a Speak issued from the callback is kept.
func (b *Backend) fireFor(u *Utterance, ev event, kind narration.BoundaryKind) bool {
	b.mu.Lock()
	live := !u.cancelled && b.current == u
	if live && ev == eventEnd {
		b.current = nil
	}
	cb := u.Callbacks
	b.mu.Unlock()

	if !live {
		return false
	}

	switch ev {
	case eventStart:
		if cb.OnStart != nil {
			cb.OnStart()
		}
	case eventBoundary:
		if cb.OnBoundary != nil {
			cb.OnBoundary(kind, 0)
		}
	case eventEnd:
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	}
	return true
}

// play simulates vocalizing u for d, honouring pause and cancel.
func (b *Backend) play(u *Utterance, d time.Duration) {
	if !b.fireFor(u, eventStart, narration.BoundaryWord) {
		return
	}
	b.fireFor(u, eventBoundary, narration.BoundaryWord)

	for elapsed := time.Duration(0); elapsed < d; {
		time.Sleep(autoStep)

		b.mu.Lock()
		live := !u.cancelled && b.current == u
		paused := b.paused
		b.mu.Unlock()

		if !live {
			return
		}
		if !paused {
			elapsed += autoStep
		}
	}

	b.fireFor(u, eventEnd, narration.BoundaryWord)
}
