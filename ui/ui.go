// Package ui provides the terminal front end for narrate.
package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/narrate/narration"
)

// TextMsg replaces the narrated text, e.g. after the source file changed.
type TextMsg struct {
	Text string
}

type (
	errMsg     struct{ err error }
	pasteMsg   struct{ text string }
	editorDone struct {
		path string
		temp bool
		err  error
	}
)

func (e errMsg) Error() string { return e.err.Error() }

// NewProgram returns a new Tea program narrating text through ctrl.
func NewProgram(cfg Config, ctrl *narration.Controller, text string) *tea.Program {
	log.Debug(
		"starting narrate",
		"path", cfg.Path,
		"backend", cfg.Backend,
		"watch", cfg.Watch,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, ctrl, text), opts...)
}

type model struct {
	cfg    Config
	ctrl   *narration.Controller
	keys   keyMap
	help   help.Model
	styles styles

	text     string
	state    narration.State
	states   <-chan narration.State
	errs     chan error
	done     chan struct{}
	stop     func()
	status   *statusDisplay
	textarea textarea.Model
	editing  bool
	quitting bool

	width  int
	height int
}

func newModel(cfg Config, ctrl *narration.Controller, text string) model {
	ta := textarea.New()
	ta.Placeholder = "Type or paste something to read aloud…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0

	m := model{
		cfg:      cfg,
		ctrl:     ctrl,
		keys:     newKeyMap(),
		help:     help.New(),
		styles:   newStyles(cfg),
		errs:     make(chan error, 8),
		done:     make(chan struct{}),
		status:   newStatusDisplay(cfg.Backend),
		textarea: ta,
		width:    80,
		height:   24,
	}

	done := m.done
	m.stop = sync.OnceFunc(func() { close(done) })

	errs := m.errs
	ctrl.OnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	m.states, _ = ctrl.Subscribe()

	m.applyText(text)
	if strings.TrimSpace(text) == "" {
		m.editing = true
	}
	m.setSize(m.width, m.height)

	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		narration.WaitForState(m.states),
		waitForError(m.errs, m.done),
	}
	if m.editing {
		cmds = append(cmds, m.textarea.Focus())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateReading(msg)

	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)

	case narration.StateChangedMsg:
		m.state = msg.State
		m.status.Update(msg.State)
		return m, narration.WaitForState(m.states)

	case narration.ClosedMsg:
		log.Debug("state subscription closed")
		m.stop()

	case narration.ErrorMsg:
		if msg.Err == nil {
			return m, nil
		}
		m.status.SetError(msg.Err)
		return m, waitForError(m.errs, m.done)

	case TextMsg:
		m.applyText(msg.Text)
		if m.editing {
			m.textarea.SetValue(msg.Text)
		}

	case pasteMsg:
		m.applyText(msg.text)

	case editorDone:
		cmd := m.finishEditor(msg)
		return m, cmd

	case errMsg:
		m.status.SetError(msg.err)
	}

	return m, nil
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Toggle):
		m.status.SetError(nil)
		m.ctrl.TogglePlayPause()
		m.sync()

	case key.Matches(msg, m.keys.Stop):
		m.ctrl.Stop()
		m.sync()

	case key.Matches(msg, m.keys.Edit):
		m.editing = true
		m.textarea.SetValue(m.text)
		return m, m.textarea.Focus()

	case key.Matches(msg, m.keys.OpenEditor):
		return m, m.openEditor()

	case key.Matches(msg, m.keys.Paste):
		return m, paste

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize(m.width, m.height)
	}

	return m, nil
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m.quit()

	case key.Matches(msg, m.keys.Done):
		m.editing = false
		m.textarea.Blur()
		m.applyText(m.textarea.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if !m.quitting {
		m.quitting = true
		defer m.stop()
		if err := m.ctrl.Close(); err != nil {
			log.Warn("closing narration", "err", err)
		}
	}
	return m, tea.Quit
}

// applyText hands text to the controller, which resets the run.
func (m *model) applyText(text string) {
	m.text = text
	m.ctrl.SetText(text)
	m.sync()
}

// sync copies the controller state after a synchronous control call so the
// next render does not wait for the subscription.
func (m *model) sync() {
	m.state = m.ctrl.State()
	m.status.Update(m.state)
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.help.Width = w
	m.textarea.SetWidth(m.textWidth())
	m.textarea.SetHeight(max(m.bodyHeight(), 1))
}

func (m model) textWidth() int {
	w := m.width - 2
	if m.cfg.MaxWidth > 0 {
		w = min(w, m.cfg.MaxWidth)
	}
	return max(w, 1)
}

func (m model) bodyHeight() int {
	// header, blank line, status bar and help
	return m.height - 3 - lipgloss.Height(m.helpView())
}

func (m model) helpView() string {
	return m.help.View(m.keys)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	body := m.bodyView()
	b.WriteString(body)
	if pad := m.bodyHeight() - lipgloss.Height(body); pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	b.WriteString("\n")

	b.WriteString(m.status.View(m.width))
	b.WriteString("\n")
	b.WriteString(m.helpView())

	return b.String()
}

func (m model) headerView() string {
	parts := []string{titleStyle.Render("narrate")}
	if m.cfg.ShowAvatar {
		parts = append([]string{avatarStyle.Render(avatar(m.state))}, parts...)
	}
	parts = append(parts, buttonStyle.Render(m.state.ButtonLabel()))

	switch {
	case m.editing:
		parts = append(parts, editingStyle.Render("editing"))
	case m.cfg.Path != "":
		name := filepath.Base(m.cfg.Path)
		if m.cfg.Watch {
			name += " (watching)"
		}
		parts = append(parts, mutedStyle.Render(name))
	}

	return " " + strings.Join(parts, " ")
}

func (m model) bodyView() string {
	if m.editing {
		return " " + strings.ReplaceAll(m.textarea.View(), "\n", "\n ")
	}
	if len(m.state.Units) == 0 {
		return mutedStyle.Render(" Nothing to read. Press e to type or p to paste.")
	}

	lines, focus := layout(m.state.Units, m.state, m.textWidth(), m.styles)
	lines = window(lines, focus, m.bodyHeight())
	return " " + strings.Join(lines, "\n ")
}

// openEditor edits the source file, or a temporary copy of typed text, in
// the user's editor.
func (m model) openEditor() tea.Cmd {
	path, temp := m.cfg.Path, false
	if path == "" {
		f, err := os.CreateTemp("", "narrate-*.txt")
		if err != nil {
			return errorCmd(fmt.Errorf("unable to create temp file: %w", err))
		}
		_, err = f.WriteString(m.text)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errorCmd(fmt.Errorf("unable to write temp file: %w", err))
		}
		path, temp = f.Name(), true
	}

	c, err := editor.Cmd("narrate", path)
	if err != nil {
		return errorCmd(fmt.Errorf("unable to open editor: %w", err))
	}
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorDone{path: path, temp: temp, err: err}
	})
}

func (m *model) finishEditor(msg editorDone) tea.Cmd {
	if msg.temp {
		defer os.Remove(msg.path)
	}
	if msg.err != nil {
		return errorCmd(fmt.Errorf("editor: %w", msg.err))
	}

	b, err := os.ReadFile(msg.path)
	if err != nil {
		return errorCmd(fmt.Errorf("unable to read edited text: %w", err))
	}
	m.applyText(strings.TrimSpace(string(b)))
	return nil
}

func paste() tea.Msg {
	text, err := clipboard.ReadAll()
	if err != nil {
		return errMsg{fmt.Errorf("unable to read clipboard: %w", err)}
	}
	if strings.TrimSpace(text) == "" {
		return errMsg{errors.New("clipboard is empty")}
	}
	return pasteMsg{text: text}
}

// waitForError blocks until the controller reports a failure. Once done is
// closed it drains anything still buffered and then yields an empty
// ErrorMsg, which ends the loop.
func waitForError(ch <-chan error, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case err := <-ch:
			return narration.ErrorMsg{Err: err}
		case <-done:
			select {
			case err := <-ch:
				return narration.ErrorMsg{Err: err}
			default:
				return narration.ErrorMsg{}
			}
		}
	}
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return errMsg{err} }
}
