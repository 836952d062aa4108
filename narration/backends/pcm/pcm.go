// Package pcm synthesizes narration units to WAV and plays them through the
// sound device, which allows pausing mid-word.
package pcm

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/narrate/internal/cache"
	"github.com/dgnsrekt/narrate/narration"
	"golang.org/x/text/language"
)

const (
	// DefaultSampleRate matches espeak-ng's WAV output.
	DefaultSampleRate = 22050
	// DefaultChannels is mono.
	DefaultChannels = 1

	pollInterval = 20 * time.Millisecond
)

// Synthesizer renders text to a WAV stream.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, locale language.Tag) ([]byte, error)
	Available() bool
}

// ClipCache stores synthesized WAV streams.
type ClipCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Option configures a Backend.
type Option func(*Backend)

// WithCache sets the clip cache.
func WithCache(c ClipCache) Option {
	return func(b *Backend) { b.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// Backend plays synthesized clips. Synthesis runs on a goroutine so Speak
// returns immediately.
type Backend struct {
	synth  Synthesizer
	output Output
	cfg    narration.EspeakConfig
	cache  ClipCache
	logger *log.Logger

	mu      sync.Mutex
	current *utterance
	paused  bool
}

type utterance struct {
	text   string
	locale language.Tag
	cb     narration.Callbacks
	ctx    context.Context
	cancel context.CancelFunc
	player Player
}

// New creates a pcm backend. cfg supplies the voice and rate used for cache
// keys; it must match the synthesizer's configuration.
func New(synth Synthesizer, output Output, cfg narration.EspeakConfig, opts ...Option) *Backend {
	b := &Backend{
		synth:  synth,
		output: output,
		cfg:    cfg,
		logger: log.Default().WithPrefix("pcm"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Available reports whether both synthesis and audio output exist.
func (b *Backend) Available() bool {
	return b.synth != nil && b.output != nil && b.synth.Available()
}

// Speak queues text for synthesis and playback. Any current utterance is
// cancelled.
func (b *Backend) Speak(text string, locale language.Tag, cb narration.Callbacks) error {
	if !b.Available() {
		return narration.ErrBackendUnavailable
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{text: text, locale: locale, cb: cb, ctx: ctx, cancel: cancel}
	b.current = u
	b.paused = false

	go b.run(u)
	return nil
}

// Pause pauses the player. A clip still being synthesized starts paused.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paused = true
	if b.current != nil && b.current.player != nil {
		b.current.player.Pause()
	}
	return nil
}

// Resume continues playback.
func (b *Backend) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.paused = false
	if b.current != nil && b.current.player != nil {
		b.current.player.Play()
	}
	return nil
}

// Cancel stops playback; the utterance's callbacks are suppressed.
func (b *Backend) Cancel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelLocked()
	b.paused = false
	return nil
}

func (b *Backend) cancelLocked() {
	u := b.current
	if u == nil {
		return
	}
	b.current = nil
	u.cancel()
	if u.player != nil {
		u.player.Pause()
	}
}

// liveLocked reports whether u is still current.
func (b *Backend) liveLocked(u *utterance) bool {
	return b.current == u && u.ctx.Err() == nil
}

func (b *Backend) run(u *utterance) {
	clip, err := b.clip(u)
	if err != nil {
		if u.ctx.Err() != nil {
			return
		}
		// A unit that cannot be rendered is skipped so the run continues.
		b.logger.Warn("synthesis failed", "text", u.text, "err", err)
		b.finish(u)
		return
	}

	player := b.output.NewPlayer(bytes.NewReader(clip.Data))
	defer player.Close()

	b.mu.Lock()
	if !b.liveLocked(u) {
		b.mu.Unlock()
		return
	}
	u.player = player
	if !b.paused {
		player.Play()
	}
	b.mu.Unlock()

	if u.cb.OnStart != nil {
		u.cb.OnStart()
	}
	if u.cb.OnBoundary != nil {
		u.cb.OnBoundary(narration.BoundaryWord, 0)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-u.ctx.Done():
			return
		case <-ticker.C:
		}

		b.mu.Lock()
		done := !b.paused && !player.IsPlaying()
		b.mu.Unlock()
		if done {
			break
		}
	}

	b.finish(u)
}

// finish retires u and reports its end if it is still current.
func (b *Backend) finish(u *utterance) {
	b.mu.Lock()
	live := b.liveLocked(u)
	if live {
		b.current = nil
	}
	b.mu.Unlock()

	if live && u.cb.OnEnd != nil {
		u.cb.OnEnd()
	}
}

// clip returns the decoded audio for u, synthesizing on a cache miss.
func (b *Backend) clip(u *utterance) (Clip, error) {
	key := cache.Key(u.text, b.cfg.VoiceFor(u.locale), b.cfg.Speed, b.cfg.Amplitude)

	wav, ok := []byte(nil), false
	if b.cache != nil {
		wav, ok = b.cache.Get(key)
	}

	if !ok {
		var err error
		wav, err = b.synth.Synthesize(u.ctx, u.text, u.locale)
		if err != nil {
			return Clip{}, err
		}
		if b.cache != nil {
			if err := b.cache.Put(key, wav); err != nil {
				b.logger.Debug("clip not cached", "err", err)
			}
		}
	}

	clip, err := DecodeWAV(wav)
	if err != nil {
		return Clip{}, err
	}
	if clip.SampleRate != b.output.SampleRate() || clip.Channels != b.output.ChannelCount() {
		return Clip{}, fmt.Errorf("%w: clip is %d Hz x%d, output is %d Hz x%d", ErrUnsupportedFormat,
			clip.SampleRate, clip.Channels, b.output.SampleRate(), b.output.ChannelCount())
	}
	return clip, nil
}
