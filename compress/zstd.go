package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZStandardCodec implements Codec using klauspost/compress/zstd at its
// default encoder level. CompressZstd takes the caller-chosen level the
// facade and string pool need (spec default level 16, mapped onto zstd's
// four encoder-level tiers since the library does not expose 22 discrete
// levels like the original zstd C API).
type ZStandardCodec struct{}

var _ Codec = (*ZStandardCodec)(nil)

// NewZStandardCodec returns a ZStandardCodec.
func NewZStandardCodec() ZStandardCodec {
	return ZStandardCodec{}
}

// zstdDecoderPool pools zstd decoders. klauspost/compress/zstd is
// explicitly designed for decoder reuse: "The decoder has been designed to
// operate without allocations after a warmup."
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("nx: failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

// zstdEncoderPools holds one sync.Pool of encoders per encoder level, since
// zstd.Encoder options are fixed at construction and levels are chosen
// per-call (string pool packing uses a higher level than block compression).
var zstdEncoderPools sync.Map // map[zstd.EncoderLevel]*sync.Pool

func zstdEncoderPoolFor(level zstd.EncoderLevel) *sync.Pool {
	if p, ok := zstdEncoderPools.Load(level); ok {
		return p.(*sync.Pool)
	}

	pool := &sync.Pool{
		New: func() any {
			encoder, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(level),
				zstd.WithEncoderCRC(false),
			)
			if err != nil {
				panic(fmt.Sprintf("nx: failed to create zstd encoder for pool: %v", err))
			}

			return encoder
		},
	}
	actual, _ := zstdEncoderPools.LoadOrStore(level, pool)

	return actual.(*sync.Pool)
}

// encoderLevelFor maps an integer compression level (as used by the
// string pool's default of 16, and by callers picking faster/slower
// tradeoffs) onto zstd's four discrete encoder-level tiers.
func encoderLevelFor(level int) zstd.EncoderLevel {
	switch {
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 6:
		return zstd.SpeedDefault
	case level <= 12:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Compress compresses data at zstd's default encoder level.
func (ZStandardCodec) Compress(data []byte) ([]byte, error) {
	return compressZstdLevel(data, 6)
}

// CompressZstd compresses data at level with no Copy fallback: the output
// is always a well-formed ZStandard frame, even when it expands the input.
// The string pool codec needs this, since its on-disk format is
// unconditionally ZStandard.
func CompressZstd(data []byte, level int) ([]byte, error) {
	return compressZstdLevel(data, level)
}

func compressZstdLevel(data []byte, level int) ([]byte, error) {
	pool := zstdEncoderPoolFor(encoderLevelFor(level))
	encoder, _ := pool.Get().(*zstd.Encoder)
	defer pool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses Zstandard-compressed data using a pooled decoder.
func (ZStandardCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return decompressed, nil
}

// decompressZstdPartial streams the decompression of src and stops as soon
// as dst is full, tolerating src being a truncated prefix of the full
// compressed stream (the lazy SOLID block path calls this with src capped
// to the source provider's available bytes).
func decompressZstdPartial(src, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	r, err := zstd.NewReader(bytes.NewReader(src), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := io.ReadFull(r, dst)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return n, err
	}

	return n, nil
}
