package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances; the type carries
// internal match-finding state that benefits from reuse across calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec implements Codec using raw LZ4 block compression, chosen for
// decompression speed when reading archives back.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec returns an LZ4Codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

func lz4CompressBound(srcLen int) int {
	return lz4.CompressBlockBound(srcLen)
}

// Compress compresses data using a pooled lz4.Compressor.
func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decompresses data using an adaptive buffer sizing strategy:
// start with a buffer 4x the compressed size and double on
// ErrInvalidSourceShortBuffer until a 128 MiB safety ceiling is hit.
func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	const maxSize = 128 * 1024 * 1024

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}

// decompressLZ4Partial decompresses src in full into scratch space, then
// copies min(len(decoded), len(dst)) bytes into dst. Raw LZ4 block decoding
// has no native streaming-stop API, unlike ZStandard's frame reader, so the
// facade absorbs the extra copy here rather than in every caller.
func decompressLZ4Partial(src, dst []byte) (int, error) {
	codec := LZ4Codec{}

	decoded, err := codec.Decompress(src)
	if err != nil {
		return 0, err
	}

	return copy(dst, decoded), nil
}
