package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/narrate/narration"
	"golang.org/x/text/language"
)

// Compile-time interface check.
var _ narration.Backend = (*Backend)(nil)

type recorder struct {
	events chan string
}

func newRecorder() *recorder {
	return &recorder{events: make(chan string, 16)}
}

func (r *recorder) callbacks() narration.Callbacks {
	return narration.Callbacks{
		OnStart:    func() { r.events <- "start" },
		OnBoundary: func(k narration.BoundaryKind, _ int) { r.events <- k.String() },
		OnEnd:      func() { r.events <- "end" },
	}
}

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return ""
	}
}

func TestManualMode(t *testing.T) {
	b := New()
	rec := newRecorder()

	if err := b.Speak("hello", language.AmericanEnglish, rec.callbacks()); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if !b.Pending() {
		t.Fatal("expected an utterance in flight")
	}

	if !b.Complete() {
		t.Fatal("Complete should deliver to the live utterance")
	}
	for _, want := range []string{"start", "word", "end"} {
		if got := rec.next(t); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if b.Pending() {
		t.Error("end should retire the utterance")
	}
	if b.FireEnd() {
		t.Error("no utterance should be live after end")
	}
}

func TestCancelSuppressesCallbacks(t *testing.T) {
	b := New()
	rec := newRecorder()
	_ = b.Speak("hello", language.AmericanEnglish, rec.callbacks())

	if err := b.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if b.FireStart() || b.FireEnd() {
		t.Error("callbacks fired after cancel")
	}
	if b.CancelCount() != 1 {
		t.Errorf("expected 1 cancel, got %d", b.CancelCount())
	}

	u, ok := b.Last()
	if !ok || u.Text != "hello" {
		t.Errorf("Last() = %+v, %v", u, ok)
	}
}

func TestSpeakFromEndCallback(t *testing.T) {
	b := New()
	var second bool
	_ = b.Speak("one", language.AmericanEnglish, narration.Callbacks{
		OnEnd: func() {
			_ = b.Speak("two", language.AmericanEnglish, narration.Callbacks{})
			second = true
		},
	})

	b.FireEnd()
	if !second {
		t.Fatal("end callback did not run")
	}
	if !b.Pending() {
		t.Error("utterance submitted from the end callback was dropped")
	}
	if got := b.Spoken(); len(got) != 2 || got[1] != "two" {
		t.Errorf("Spoken() = %q", got)
	}
}

func TestErrorsAndAvailability(t *testing.T) {
	b := New()
	if !b.Available() {
		t.Error("new backend should be available")
	}
	b.SetAvailable(false)
	if b.Available() {
		t.Error("SetAvailable(false) had no effect")
	}

	boom := errors.New("boom")
	b.SetSpeakError(boom)
	if err := b.Speak("x", language.Und, narration.Callbacks{}); !errors.Is(err, boom) {
		t.Errorf("Speak error = %v", err)
	}
	if len(b.Spoken()) != 0 {
		t.Error("failed Speak should not be recorded")
	}

	b.SetPauseError(boom)
	if err := b.Pause(); !errors.Is(err, boom) {
		t.Errorf("Pause error = %v", err)
	}
	if b.IsPaused() || b.PauseCount() != 0 {
		t.Error("failed Pause should not change state")
	}
}

func TestAutoMode(t *testing.T) {
	b := NewAuto(30 * time.Millisecond)
	rec := newRecorder()

	if err := b.Speak("hello", language.AmericanEnglish, rec.callbacks()); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	for _, want := range []string{"start", "word", "end"} {
		if got := rec.next(t); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestAutoModePauseHoldsEnd(t *testing.T) {
	b := NewAuto(200 * time.Millisecond)
	rec := newRecorder()
	_ = b.Speak("hello", language.AmericanEnglish, rec.callbacks())

	rec.next(t) // start
	_ = b.Pause()
	rec.next(t) // word

	select {
	case ev := <-rec.events:
		t.Fatalf("unexpected %q while paused", ev)
	case <-time.After(100 * time.Millisecond):
	}

	_ = b.Resume()
	if got := rec.next(t); got != "end" {
		t.Errorf("got %q, want end", got)
	}
}

func TestAutoModeCancel(t *testing.T) {
	b := NewAuto(50 * time.Millisecond)
	rec := newRecorder()
	_ = b.Speak("hello", language.AmericanEnglish, rec.callbacks())
	rec.next(t) // start
	rec.next(t) // word
	_ = b.Cancel()

	select {
	case ev := <-rec.events:
		t.Fatalf("unexpected %q after cancel", ev)
	case <-time.After(150 * time.Millisecond):
	}
}
