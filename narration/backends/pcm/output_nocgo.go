//go:build nocgo

package pcm

// OpenOutput always fails in builds without cgo audio support.
func OpenOutput(sampleRate, channels int) (Output, error) {
	return nil, ErrNoAudio
}
