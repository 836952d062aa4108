package pcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for WAV streams oto cannot play as-is.
var ErrUnsupportedFormat = errors.New("unsupported wav format")

// Clip is decoded 16-bit little-endian PCM audio.
type Clip struct {
	SampleRate int
	Channels   int
	Data       []byte
}

// unknownSize is what espeak writes into the RIFF and data chunk sizes when
// streaming to a pipe.
const unknownSize = 0xFFFFFFFF

// DecodeWAV extracts the PCM payload of a RIFF/WAVE stream.
func DecodeWAV(b []byte) (Clip, error) {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return Clip{}, fmt.Errorf("%w: missing RIFF/WAVE header", ErrUnsupportedFormat)
	}

	var clip Clip
	var haveFormat bool
	rest := b[12:]

	for len(rest) >= 8 {
		id := string(rest[0:4])
		size := binary.LittleEndian.Uint32(rest[4:8])
		body := rest[8:]
		if size == unknownSize || int64(size) > int64(len(body)) {
			size = uint32(len(body))
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			rate := binary.LittleEndian.Uint32(body[4:8])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || bits != 16 || channels == 0 {
				return Clip{}, fmt.Errorf("%w: format %d with %d bits", ErrUnsupportedFormat, format, bits)
			}
			clip.SampleRate = int(rate)
			clip.Channels = int(channels)
			haveFormat = true

		case "data":
			if !haveFormat {
				return Clip{}, fmt.Errorf("%w: data before fmt", ErrUnsupportedFormat)
			}
			data := body[:size]
			// Drop a trailing partial frame.
			frame := 2 * clip.Channels
			clip.Data = data[:len(data)-len(data)%frame]
			return clip, nil
		}

		// Chunks are padded to even sizes.
		next := int(size) + int(size&1)
		if next > len(body) {
			break
		}
		rest = body[next:]
	}

	return Clip{}, fmt.Errorf("%w: no data chunk", ErrUnsupportedFormat)
}

// EncodeWAV wraps 16-bit PCM in a minimal WAV header.
func EncodeWAV(c Clip) []byte {
	var buf bytes.Buffer
	blockAlign := c.Channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(c.Data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(c.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(c.SampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(c.Data)))
	buf.Write(c.Data)

	return buf.Bytes()
}
