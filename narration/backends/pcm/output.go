package pcm

import (
	"errors"
	"io"
)

// ErrNoAudio is returned when no audio device can be opened.
var ErrNoAudio = errors.New("audio output not available")

// Output opens players on an audio device.
type Output interface {
	NewPlayer(r io.Reader) Player
	SampleRate() int
	ChannelCount() int
}

// Player plays one PCM stream. It matches the subset of *oto.Player the
// backend uses.
type Player interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}
