// Package compression compresses content blobs with zstd before they reach
// the content storage.
package compression

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/iamNilotpal/fsrecords/internal/core/domain"
)

// Compression level constants map onto zstd's speed presets.
const (
	FastestLevel uint8 = 1 // zstd.SpeedFastest
	DefaultLevel uint8 = 2 // zstd.SpeedDefault
	BetterLevel  uint8 = 3 // zstd.SpeedBetterCompression
	BestLevel    uint8 = 4 // zstd.SpeedBestCompression
)

// minCompressSize is the size below which blobs are stored uncompressed.
const minCompressSize = 64

// ZstdCompression implements CompressionPort using zstd. Compress and
// Decompress are safe for concurrent use.
type ZstdCompression struct {
	level   uint8
	mu      sync.RWMutex
	decoder *zstd.Decoder
	encoder *zstd.Encoder
}

// NewZstdCompression creates both encoder and decoder for the given options.
func NewZstdCompression(opts *domain.CompressionOptions) (*ZstdCompression, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}

	encoderOpts := []zstd.EOption{zstd.WithEncoderLevel(zstd.EncoderLevel(opts.Level))}
	if opts.EncoderConcurrency > 0 {
		encoderOpts = append(encoderOpts, zstd.WithEncoderConcurrency(int(opts.EncoderConcurrency)))
	}

	encoder, err := zstd.NewWriter(nil, encoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	var decoderOpts []zstd.DOption
	if opts.DecoderConcurrency > 0 {
		decoderOpts = append(decoderOpts, zstd.WithDecoderConcurrency(int(opts.DecoderConcurrency)))
	}

	decoder, err := zstd.NewReader(nil, decoderOpts...)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &ZstdCompression{encoder: encoder, decoder: decoder, level: opts.Level}, nil
}

// Compress returns the zstd frame for data. Small blobs, and blobs that do not
// shrink, are returned unchanged; callers record which form they stored.
func (z *ZstdCompression) Compress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	if len(data) < minCompressSize {
		return data, nil
	}

	compressed := z.encoder.EncodeAll(data, nil)
	if len(compressed) < len(data) {
		return compressed, nil
	}

	return data, nil
}

// Decompress restores the original data from its compressed form.
func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	z.mu.RLock()
	defer z.mu.RUnlock()

	decompressed, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}

	return decompressed, nil
}

// Level returns the current compression level.
func (z *ZstdCompression) Level() uint8 {
	return z.level
}

// Close releases encoder and decoder resources.
func (z *ZstdCompression) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if err := z.encoder.Close(); err != nil {
		return fmt.Errorf("error closing encoder : %w", err)
	}

	z.decoder.Close()
	return nil
}
