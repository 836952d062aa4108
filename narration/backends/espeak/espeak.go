// Package espeak speaks narration units through the espeak-ng or espeak
// command line programs.
package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/narration"
	"golang.org/x/text/language"
)

var (
	// ErrNotFound is returned when no espeak executable can be located.
	ErrNotFound = errors.New("espeak executable not found in PATH")
	// ErrPauseUnsupported is returned by Pause where processes cannot be
	// suspended.
	ErrPauseUnsupported = errors.New("pause is not supported on this platform")
)

// candidates are tried in order when no binary is configured.
var candidates = []string{"espeak-ng", "espeak"}

// FindExecutable resolves the espeak binary. A configured name or path wins
// over the built-in candidates.
func FindExecutable(preferred string) (string, error) {
	names := candidates
	if preferred != "" {
		names = []string{preferred}
	}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Backend runs one espeak process per utterance. Pause and Resume suspend
// and continue the process.
type Backend struct {
	cfg    narration.EspeakConfig
	binary string
	logger *log.Logger

	mu      sync.Mutex
	current *utterance
	paused  bool
}

type utterance struct {
	cmd       *exec.Cmd
	cb        narration.Callbacks
	stderr    bytes.Buffer
	cancelled bool
}

// New creates an espeak backend. A missing binary yields a backend whose
// Available reports false.
func New(cfg narration.EspeakConfig, logger *log.Logger) *Backend {
	if logger == nil {
		logger = log.Default().WithPrefix("espeak")
	}

	b := &Backend{cfg: cfg, logger: logger}
	path, err := FindExecutable(cfg.Binary)
	if err != nil {
		logger.Debug("espeak unavailable", "binary", cfg.Binary, "err", err)
		return b
	}
	b.binary = path
	return b
}

// Binary returns the resolved executable path, empty when unavailable.
func (b *Backend) Binary() string {
	return b.binary
}

// Available reports whether an espeak executable was found.
func (b *Backend) Available() bool {
	return b.binary != ""
}

// Speak starts an espeak process for text. Any utterance still running is
// cancelled first.
func (b *Backend) Speak(text string, locale language.Tag, cb narration.Callbacks) error {
	if !b.Available() {
		return narration.ErrBackendUnavailable
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.cancelLocked()
	}

	u := &utterance{cb: cb}
	u.cmd = exec.Command(b.binary, b.args(locale)...)
	// Text goes through stdin so units starting with '-' are never parsed
	// as flags.
	u.cmd.Stdin = strings.NewReader(text)
	u.cmd.Stderr = &u.stderr

	if err := u.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", b.binary, err)
	}

	b.logger.Debug("speak", "pid", u.cmd.Process.Pid, "voice", b.cfg.VoiceFor(locale), "text", text)
	b.current = u
	b.paused = false
	go b.wait(u)

	return nil
}

// Pause suspends the running process. With nothing running it only records
// the paused state.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return nil
	}
	if b.current != nil {
		if err := suspend(b.current.cmd.Process); err != nil {
			return fmt.Errorf("failed to pause espeak: %w", err)
		}
	}
	b.paused = true
	return nil
}

// Resume continues a suspended process.
func (b *Backend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.paused {
		return nil
	}
	if b.current != nil {
		if err := resume(b.current.cmd.Process); err != nil {
			return fmt.Errorf("failed to resume espeak: %w", err)
		}
	}
	b.paused = false
	return nil
}

// Cancel kills the running process. Its callbacks are suppressed.
func (b *Backend) Cancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cancelLocked()
}

func (b *Backend) cancelLocked() error {
	b.paused = false
	u := b.current
	if u == nil {
		return nil
	}
	b.current = nil
	u.cancelled = true

	if err := terminate(u.cmd.Process); err != nil {
		return fmt.Errorf("failed to stop espeak: %w", err)
	}
	return nil
}

// Synthesize renders text to a WAV stream instead of the sound device.
func (b *Backend) Synthesize(ctx context.Context, text string, locale language.Tag) ([]byte, error) {
	if !b.Available() {
		return nil, narration.ErrBackendUnavailable
	}

	cmd := exec.CommandContext(ctx, b.binary, append(b.args(locale), "--stdout")...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("synthesis cancelled: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("synthesis failed: %w\nstderr: %s", err, msg)
		}
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	return stdout.Bytes(), nil
}

func (b *Backend) args(locale language.Tag) []string {
	args := []string{"-v", b.cfg.VoiceFor(locale)}
	if b.cfg.Speed > 0 {
		args = append(args, "-s", strconv.Itoa(b.cfg.Speed))
	}
	if b.cfg.Amplitude > 0 {
		args = append(args, "-a", strconv.Itoa(b.cfg.Amplitude))
	}
	return append(args, "--stdin")
}

// live reports whether u is still the utterance being spoken.
func (b *Backend) live(u *utterance) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !u.cancelled && b.current == u
}

// wait delivers the utterance lifecycle. espeak reports no word timings, and
// a unit is a single word, so start and the word boundary coincide.
func (b *Backend) wait(u *utterance) {
	if b.live(u) {
		if u.cb.OnStart != nil {
			u.cb.OnStart()
		}
		if u.cb.OnBoundary != nil {
			u.cb.OnBoundary(narration.BoundaryWord, 0)
		}
	}

	err := u.cmd.Wait()

	b.mu.Lock()
	live := !u.cancelled && b.current == u
	if live {
		b.current = nil
		b.paused = false
	}
	b.mu.Unlock()

	if !live {
		return
	}
	if err != nil {
		// A failed unit still ends so the run can move on.
		b.logger.Warn("espeak exited with error", "err", err, "stderr", strings.TrimSpace(u.stderr.String()))
	}
	if u.cb.OnEnd != nil {
		u.cb.OnEnd()
	}
}
