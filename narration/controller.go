// Package narration provides a resumable, word-paced narration engine.
package narration

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

// Timer is a pending pacing step that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transitions and backend failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPacing sets the inter-unit pause tiers.
func WithPacing(p Pacing) Option {
	return func(c *Controller) { c.pacing = p }
}

// WithResetOnTextChange controls whether SetText discards the resume
// position.
func WithResetOnTextChange(reset bool) Option {
	return func(c *Controller) { c.resetOnTextChange = reset }
}

// WithAfterFunc replaces the scheduler used for pacing delays.
func WithAfterFunc(fn AfterFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.afterFunc = fn
		}
	}
}

// WithConfig applies the controller-relevant parts of a Config.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		c.pacing = cfg.Pacing
		c.resetOnTextChange = cfg.ResetOnTextChange
	}
}

// Controller sequences units through a Backend and tracks playback state.
// A Controller serves one narration session and owns its Backend.
type Controller struct {
	// Core components
	backend   Backend
	segmenter Segmenter
	detector  Detector

	// Configuration
	pacing            Pacing
	resetOnTextChange bool
	afterFunc         AfterFunc
	logger            *log.Logger
	staleLog          *rate.Sometimes

	mu sync.Mutex

	// Content
	text   string
	units  []Unit
	locale language.Tag

	// Playback state
	status    StateType
	current   int
	resume    int
	available bool

	// Run bookkeeping. generation changes on every run start and every
	// cancellation; callbacks and timers from another generation are stale.
	generation  uint64
	index       int
	awaitingEnd bool
	held        bool
	timer       Timer
	timerSeq    uint64
	closed      bool

	// Observers
	listeners   []func(State)
	errorHooks  []func(error)
	subs        map[int]chan State
	nextSub     int
	pending     []State
	pendingErrs []error
	flushing    bool
}

// NewController creates a controller for one narration session.
// A nil or unavailable backend yields an inert controller whose Play is a
// no-op.
func NewController(backend Backend, segmenter Segmenter, detector Detector, opts ...Option) *Controller {
	c := &Controller{
		backend:           backend,
		segmenter:         segmenter,
		detector:          detector,
		pacing:            DefaultPacing(),
		resetOnTextChange: true,
		afterFunc:         realAfterFunc,
		logger:            log.Default().WithPrefix("narration"),
		staleLog:          &rate.Sometimes{First: 3, Interval: time.Second},
		status:            StateIdle,
		current:           -1,
		locale:            language.Und,
		subs:              make(map[int]chan State),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.available = c.backendAvailable()
	if !c.available {
		c.logger.Warn("speech backend unavailable; narration disabled", "err", ErrBackendUnavailable)
	}

	return c
}

// SetText replaces the source text. Any run in progress is cancelled and
// the sequence is derived again from the new text.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	if c.closed || text == c.text {
		c.mu.Unlock()
		return
	}

	c.cancelLocked()
	c.text = text
	c.units = c.segmenter.Segment(text)
	c.status = StateIdle
	c.current = -1
	if c.resetOnTextChange || c.resume > len(c.units) {
		c.resume = 0
	}

	c.logger.Debug("text changed", "units", len(c.units), "resume", c.resume)
	c.commitLocked()
	c.mu.Unlock()
	c.flush()
}

// TogglePlayPause pauses a speaking run, resumes a paused one, or starts a
// new run from the resume position.
func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	switch c.status {
	case StateSpeaking:
		c.pauseLocked()
	case StatePaused:
		c.resumeLocked()
	default:
		c.playLocked()
	}

	c.mu.Unlock()
	c.flush()
}

// Stop cancels the run and discards progress.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.cancelLocked()
	c.status = StateIdle
	c.current = -1
	c.resume = 0

	c.logger.Debug("stopped")
	c.commitLocked()
	c.mu.Unlock()
	c.flush()
}

// Close cancels the run and releases all state. Callbacks arriving after
// Close are ignored and every later control call is a no-op.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	err := c.cancelLocked()
	c.closed = true
	c.status = StateIdle
	c.current = -1
	c.resume = 0
	c.units = nil
	c.text = ""
	c.commitLocked()
	c.mu.Unlock()
	c.flush()

	c.mu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.listeners = nil
	c.errorHooks = nil
	c.mu.Unlock()

	c.logger.Debug("closed")
	return err
}

// State returns a snapshot of the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnChange registers a callback invoked after every state change.
// Callbacks run outside the controller lock and may call back into it.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.listeners = append(c.listeners, fn)
	}
}

// OnError registers a callback for backend failures.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.errorHooks = append(c.errorHooks, fn)
	}
}

// Subscribe returns a channel carrying the latest state. Slow readers only
// see the most recent snapshot. The channel is closed by the returned
// cancel function or by Close.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

// Private helper methods

func (c *Controller) backendAvailable() bool {
	return c.backend != nil && c.backend.Available()
}

func (c *Controller) playLocked() {
	c.available = c.backendAvailable()
	if !c.available {
		c.logger.Debug("play ignored", "err", ErrBackendUnavailable)
		c.commitLocked()
		return
	}

	c.locale = c.detector.Detect(c.text)
	c.units = c.segmenter.Segment(c.text)

	start := c.resume
	if start >= len(c.units) {
		start = 0
	}

	c.generation++
	c.index = start
	c.resume = start
	c.held = false
	c.status = StateSpeaking

	c.logger.Debug("run started", "start", start, "units", len(c.units), "locale", c.locale)
	c.speakLocked()
	c.commitLocked()
}

func (c *Controller) pauseLocked() {
	if err := c.backend.Pause(); err != nil {
		c.reportLocked(backendError("pause", c.index, err))
		return
	}
	c.status = StatePaused
	c.logger.Debug("paused", "unit", c.index)
	c.commitLocked()
}

func (c *Controller) resumeLocked() {
	if err := c.backend.Resume(); err != nil {
		c.reportLocked(backendError("resume", c.index, err))
		return
	}
	c.status = StateSpeaking
	c.logger.Debug("resumed", "unit", c.index, "held", c.held)

	if c.held {
		c.held = false
		c.speakLocked()
	}
	c.commitLocked()
}

// speakLocked submits the unit at c.index, or finishes the run when the
// sequence is exhausted.
func (c *Controller) speakLocked() {
	if c.index >= len(c.units) {
		c.generation++
		c.status = StateIdle
		c.current = -1
		c.resume = 0
		c.logger.Debug("run complete")
		return
	}

	gen, idx := c.generation, c.index
	unit := c.units[idx]
	c.awaitingEnd = true

	err := c.backend.Speak(unit.Text, c.locale, Callbacks{
		OnStart:    func() { c.handleStart(gen, idx) },
		OnBoundary: func(kind BoundaryKind, _ int) { c.handleBoundary(gen, idx, kind) },
		OnEnd:      func() { c.handleEnd(gen, idx) },
	})
	if err != nil {
		c.reportLocked(backendError("speak", idx, err))
		c.generation++
		c.awaitingEnd = false
		c.status = StateIdle
		c.current = -1
		c.resume = idx
	}
}

// cancelLocked invalidates the current run, drops the pending timer and
// tells the backend to abort.
func (c *Controller) cancelLocked() error {
	c.generation++
	c.awaitingEnd = false
	c.held = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if c.backend == nil {
		return nil
	}
	if err := c.backend.Cancel(); err != nil {
		berr := backendError("cancel", -1, err)
		c.reportLocked(berr)
		return berr
	}
	return nil
}

func (c *Controller) validLocked(gen uint64, idx int) bool {
	return !c.closed && gen == c.generation && idx == c.index && c.status != StateIdle
}

func (c *Controller) handleStart(gen uint64, idx int) {
	c.mu.Lock()
	if !c.validLocked(gen, idx) {
		c.mu.Unlock()
		c.logStale("start", idx)
		return
	}

	// Play already published Speaking and a start racing a pause must not
	// undo it, so a live start only confirms the unit.
	c.logger.Debug("unit started", "index", idx)
	c.mu.Unlock()
}

func (c *Controller) handleBoundary(gen uint64, idx int, kind BoundaryKind) {
	c.mu.Lock()
	if !c.validLocked(gen, idx) {
		c.mu.Unlock()
		c.logStale("boundary", idx)
		return
	}

	if kind == BoundaryWord && c.current != idx {
		c.current = idx
		c.commitLocked()
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) handleEnd(gen uint64, idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.validLocked(gen, idx) || !c.awaitingEnd {
		c.logStale("end", idx)
		return
	}

	c.awaitingEnd = false
	delay := c.pacing.Delay(c.units[idx].Text)

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerSeq++
	seq := c.timerSeq
	c.timer = c.afterFunc(delay, func() { c.advance(gen, idx, seq) })
}

func (c *Controller) advance(gen uint64, idx int, seq uint64) {
	c.mu.Lock()
	if !c.validLocked(gen, idx) || seq != c.timerSeq || c.timer == nil {
		c.mu.Unlock()
		c.logStale("advance", idx)
		return
	}

	c.timer = nil
	c.index = idx + 1
	c.resume = c.index

	if c.status == StatePaused {
		c.held = true
	} else {
		c.speakLocked()
	}

	c.commitLocked()
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) logStale(event string, idx int) {
	c.staleLog.Do(func() {
		c.logger.Debug("ignoring callback", "event", event, "unit", idx, "err", ErrStaleCallback)
	})
}

func (c *Controller) reportLocked(err error) {
	c.logger.Warn("backend failure", "err", err)
	c.pendingErrs = append(c.pendingErrs, err)
}

func (c *Controller) snapshotLocked() State {
	return State{
		Status:          c.status,
		CurrentPosition: c.current,
		ResumePosition:  c.resume,
		Units:           c.units,
		Locale:          c.locale,
		Available:       c.available,
	}
}

func (c *Controller) commitLocked() {
	snap := c.snapshotLocked()
	c.pending = append(c.pending, snap)

	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// flush delivers queued snapshots and errors in commit order. Only one
// goroutine flushes at a time; re-entrant calls from observers enqueue and
// return.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true

	for len(c.pending) > 0 || len(c.pendingErrs) > 0 {
		states, errs := c.pending, c.pendingErrs
		c.pending, c.pendingErrs = nil, nil
		listeners := append([]func(State){}, c.listeners...)
		hooks := append([]func(error){}, c.errorHooks...)
		c.mu.Unlock()

		for _, err := range errs {
			for _, fn := range hooks {
				fn(err)
			}
		}
		for _, s := range states {
			for _, fn := range listeners {
				fn(s)
			}
		}

		c.mu.Lock()
	}

	c.flushing = false
	c.mu.Unlock()
}
