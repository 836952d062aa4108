package ui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/narration"
	"github.com/dgnsrekt/narrate/narration/backends/mock"
	"github.com/dgnsrekt/narrate/narration/lang"
	"github.com/dgnsrekt/narrate/narration/segment"
)

var testConfig = Config{
	Backend:        "mock",
	HighlightColor: "226",
	MaxWidth:       100,
	ShowAvatar:     true,
	ASCII:          true,
}

func newTestModel(t *testing.T, backend narration.Backend, text string) model {
	t.Helper()
	ctrl := narration.NewController(backend, segment.New(), lang.NewDefault(),
		narration.WithLogger(log.New(io.Discard)))
	t.Cleanup(func() { ctrl.Close() })
	return newModel(testConfig, ctrl, text)
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update returned %T, want model", next)
	}
	return nm, cmd
}

func TestModelPlayPauseStop(t *testing.T) {
	backend := mock.New()
	m := newTestModel(t, backend, "hello brave world")

	if m.editing {
		t.Fatal("model with text should start in reading mode")
	}
	if !strings.Contains(m.View(), "Play") {
		t.Error("idle view should offer Play")
	}

	m, _ = update(t, m, keyPress(" "))
	if m.state.Status != narration.StateSpeaking {
		t.Fatalf("status = %v, want speaking", m.state.Status)
	}
	if got := backend.Spoken(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("spoken = %q, want [hello]", got)
	}

	backend.FireStart()
	backend.FireBoundary(narration.BoundaryWord)
	m.sync()

	view := m.View()
	if !strings.Contains(view, "[hello] brave world") {
		t.Errorf("view should bracket the spoken word:\n%s", view)
	}
	if !strings.Contains(view, "Pause") {
		t.Error("speaking view should offer Pause")
	}

	m, _ = update(t, m, keyPress(" "))
	if m.state.Status != narration.StatePaused || !backend.IsPaused() {
		t.Fatalf("status = %v, want paused", m.state.Status)
	}
	if !strings.Contains(m.View(), "Resume") {
		t.Error("paused view should offer Resume")
	}

	m, _ = update(t, m, keyPress("s"))
	if m.state.Status != narration.StateIdle || m.state.CurrentPosition != -1 {
		t.Errorf("after stop state = %+v", m.state)
	}
	if backend.CancelCount() == 0 {
		t.Error("stop should cancel the backend")
	}
}

func TestModelStateMessages(t *testing.T) {
	m := newTestModel(t, mock.New(), "one two")

	snap := narration.State{
		Status:          narration.StateSpeaking,
		CurrentPosition: 1,
		ResumePosition:  1,
		Units:           segment.Segment("one two"),
		Available:       true,
	}
	m, cmd := update(t, m, narration.StateChangedMsg{State: snap})
	if cmd == nil {
		t.Error("state message should re-arm the subscription")
	}
	if !strings.Contains(m.View(), "one [two]") {
		t.Errorf("view should follow the snapshot:\n%s", m.View())
	}

	m, cmd = update(t, m, narration.ErrorMsg{Err: errors.New("boom")})
	if cmd == nil {
		t.Error("error message should keep listening for errors")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}

	if _, cmd = update(t, m, narration.ClosedMsg{}); cmd != nil {
		t.Error("closed subscription should not be re-armed")
	}
}

func TestModelErrorListenerEnds(t *testing.T) {
	m := newTestModel(t, mock.New(), "one two")
	wait := waitForError(m.errs, m.done)

	m.errs <- errors.New("late")
	m, _ = update(t, m, narration.ClosedMsg{})

	// Buffered failures are still delivered after the subscription closes.
	msg, ok := wait().(narration.ErrorMsg)
	if !ok || msg.Err == nil || msg.Err.Error() != "late" {
		t.Fatalf("first message = %#v, want the buffered error", msg)
	}
	m, cmd := update(t, m, msg)
	if cmd == nil {
		t.Fatal("a reported error should keep listening")
	}

	got := make(chan tea.Msg, 1)
	go func() { got <- cmd() }()
	select {
	case msg := <-got:
		if em, ok := msg.(narration.ErrorMsg); !ok || em.Err != nil {
			t.Fatalf("message = %#v, want an empty ErrorMsg", msg)
		}
		if _, cmd = update(t, m, msg); cmd != nil {
			t.Error("an empty ErrorMsg should not re-arm the listener")
		}
	case <-time.After(time.Second):
		t.Fatal("error listener still blocked after the subscription closed")
	}
}

func TestModelQuitEndsErrorListener(t *testing.T) {
	m := newTestModel(t, mock.New(), "one two")
	wait := waitForError(m.errs, m.done)

	update(t, m, keyPress("q"))

	got := make(chan tea.Msg, 1)
	go func() { got <- wait() }()
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("error listener still blocked after quit")
	}
}

func TestModelSpeakErrorReported(t *testing.T) {
	backend := mock.New()
	speakErr := errors.New("no voice")
	backend.SetSpeakError(speakErr)

	m := newTestModel(t, backend, "hello")
	m, _ = update(t, m, keyPress(" "))

	select {
	case err := <-m.errs:
		if !errors.Is(err, speakErr) {
			t.Errorf("reported error = %v, want %v", err, speakErr)
		}
	case <-time.After(time.Second):
		t.Fatal("speak failure was not reported")
	}
	if m.state.Status != narration.StateIdle {
		t.Errorf("status = %v, want idle", m.state.Status)
	}
}

func TestModelEditing(t *testing.T) {
	backend := mock.New()
	m := newTestModel(t, backend, "one")

	m, cmd := update(t, m, keyPress("e"))
	if !m.editing || cmd == nil {
		t.Fatal("e should enter editing mode")
	}
	if m.textarea.Value() != "one" {
		t.Errorf("textarea = %q, want %q", m.textarea.Value(), "one")
	}

	// Keys are typed into the textarea, not handled as commands.
	m, _ = update(t, m, keyPress("s"))
	if m.textarea.Value() != "ones" {
		t.Errorf("textarea = %q, want %q", m.textarea.Value(), "ones")
	}

	m.textarea.SetValue("two new words")
	m, _ = update(t, m, keyPress("esc"))
	if m.editing {
		t.Error("esc should leave editing mode")
	}
	if m.text != "two new words" || len(m.state.Units) != 3 {
		t.Errorf("text = %q, units = %d", m.text, len(m.state.Units))
	}
}

func TestModelStartsEditingWithoutText(t *testing.T) {
	m := newTestModel(t, mock.New(), "   ")
	if !m.editing {
		t.Error("model without text should start in editing mode")
	}
	if cmd := m.Init(); cmd == nil {
		t.Error("Init should return commands")
	}
}

func TestModelTextMsgResetsRun(t *testing.T) {
	backend := mock.New()
	m := newTestModel(t, backend, "first text")

	m, _ = update(t, m, keyPress(" "))
	cancels := backend.CancelCount()

	m, _ = update(t, m, TextMsg{Text: "second text here"})
	if m.state.Status != narration.StateIdle || m.state.ResumePosition != 0 {
		t.Errorf("after text change state = %+v", m.state)
	}
	if len(m.state.Units) != 3 {
		t.Errorf("units = %d, want 3", len(m.state.Units))
	}
	if backend.CancelCount() <= cancels {
		t.Error("text change should cancel the backend")
	}
}

func TestModelPasteMsg(t *testing.T) {
	m := newTestModel(t, mock.New(), "")
	m, _ = update(t, m, pasteMsg{text: "pasted words"})
	if m.text != "pasted words" || len(m.state.Units) != 2 {
		t.Errorf("text = %q, units = %d", m.text, len(m.state.Units))
	}
}

func TestModelQuit(t *testing.T) {
	backend := mock.New()
	m := newTestModel(t, backend, "hello")
	m, _ = update(t, m, keyPress(" "))

	m, cmd := update(t, m, keyPress("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if !m.quitting || m.View() != "" {
		t.Error("quitting model should render nothing")
	}
	if backend.Pending() {
		t.Error("quit should cancel the utterance")
	}

	// A late callback is ignored.
	if backend.FireStart() {
		t.Error("cancelled utterance should not fire")
	}
}

func TestModelUnavailableBackend(t *testing.T) {
	m := newTestModel(t, nil, "hello")
	m, _ = update(t, m, keyPress(" "))

	if m.state.Status != narration.StateIdle {
		t.Errorf("status = %v, want idle", m.state.Status)
	}
	view := m.View()
	if !strings.Contains(view, "no speech backend") || !strings.Contains(view, "(x_x)") {
		t.Errorf("view should report the missing backend:\n%s", view)
	}
}

func TestModelWindowSize(t *testing.T) {
	m := newTestModel(t, mock.New(), strings.Repeat("word ", 200))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 12})

	if got := len(strings.Split(m.View(), "\n")); got > 12 {
		t.Errorf("view has %d lines, want at most 12", got)
	}
}

func TestKeyMapHelp(t *testing.T) {
	keys := newKeyMap()
	if len(keys.ShortHelp()) == 0 || len(keys.FullHelp()) == 0 {
		t.Error("key map should describe its bindings")
	}
}
