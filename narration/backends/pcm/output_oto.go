//go:build !nocgo

package pcm

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce   sync.Once
	otoOutput *otoContext
	otoErr    error
)

type otoContext struct {
	ctx          *oto.Context
	sampleRate   int
	channelCount int
}

// OpenOutput opens the process-wide oto context. Later calls return the
// same context regardless of the requested format.
func OpenOutput(sampleRate, channels int) (Output, error) {
	otoOnce.Do(func() {
		otoOutput, otoErr = newOtoContext(sampleRate, channels)
	})
	if otoErr != nil {
		return nil, otoErr
	}
	return otoOutput, nil
}

func newOtoContext(sampleRate, channels int) (*otoContext, error) {
	options := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	// Platform-specific buffer size adjustments
	switch runtime.GOOS {
	case "darwin":
		options.BufferSize = 100 * time.Millisecond
	case "windows":
		options.BufferSize = 80 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	log.Debug("Initializing audio context",
		"sample_rate", options.SampleRate,
		"channels", options.ChannelCount,
		"buffer_size", options.BufferSize)

	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAudio, err)
	}

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("%w: initialization timeout", ErrNoAudio)
	}

	return &otoContext{ctx: ctx, sampleRate: sampleRate, channelCount: channels}, nil
}

func (o *otoContext) NewPlayer(r io.Reader) Player {
	return o.ctx.NewPlayer(r)
}

func (o *otoContext) SampleRate() int   { return o.sampleRate }
func (o *otoContext) ChannelCount() int { return o.channelCount }
