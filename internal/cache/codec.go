package cache

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Values at or below this size are stored as-is.
const compressThreshold = 1024

// codec compresses clips with zstd. Encoder and decoder are safe for
// concurrent EncodeAll/DecodeAll calls.
type codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newCodec(level int) (*codec, error) {
	if level <= 0 {
		level = 3
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &codec{encoder: encoder, decoder: decoder}, nil
}

// encode returns the stored form of value and whether it is compressed.
// Compression is only kept when it actually saves space.
func (c *codec) encode(value []byte) ([]byte, bool) {
	if len(value) <= compressThreshold {
		return value, false
	}
	compressed := c.encoder.EncodeAll(value, nil)
	if len(compressed) >= len(value) {
		return value, false
	}
	return compressed, true
}

func (c *codec) decode(data []byte, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return out, nil
}

func (c *codec) close() {
	c.encoder.Close()
	c.decoder.Close()
}
