package compress

import (
	"fmt"

	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
)

// Codec compresses and decompresses whole buffers for one compression kind.
type Codec interface {
	// Compress returns a newly allocated compressed copy of data.
	Compress(data []byte) ([]byte, error)
	// Decompress returns a newly allocated decompressed copy of data.
	Decompress(data []byte) ([]byte, error)
}

var builtinCodecs = map[format.CompressionKind]Codec{
	format.Copy:      NewCopyCodec(),
	format.ZStandard: NewZStandardCodec(),
	format.LZ4:       NewLZ4Codec(),
}

// GetCodec retrieves the built-in Codec for kind. BZip3 has no runtime
// implementation anywhere in the ecosystem available to this module; it
// returns errs.ErrUnsupportedCodec.
func GetCodec(kind format.CompressionKind) (Codec, error) {
	if kind == format.BZip3 {
		return nil, errs.ErrUnsupportedCodec
	}
	codec, ok := builtinCodecs[kind]
	if !ok {
		return nil, fmt.Errorf("nx: unknown compression kind %s: %w", kind, errs.ErrUnsupportedCodec)
	}

	return codec, nil
}

// Facade is the compression entry point the packer and ToC driver call:
// it knows how to size
// destination allocations, fall back to Copy when a codec can't beat the
// source size, and perform partial decompression for lazy SOLID blocks.
type Facade struct{}

// NewFacade returns the default compression facade. Facade is stateless and
// safe for concurrent use; all state lives in the pooled per-codec encoders
// and decoders.
func NewFacade() Facade { return Facade{} }

// MaxAllocFor returns the largest buffer a caller should allocate to hold
// the compressed output of srcLen bytes under kind. For Copy this is
// exactly srcLen; for LZ4 it is the codec's documented worst-case bound;
// for ZStandard it is an estimate for pre-sizing scratch buffers.
func (Facade) MaxAllocFor(kind format.CompressionKind, srcLen int) int {
	switch kind {
	case format.Copy:
		return srcLen
	case format.LZ4:
		return lz4CompressBound(srcLen)
	case format.ZStandard:
		// ZStandard's worst case is srcLen plus a small frame overhead;
		// klauspost's encoder already grows its destination as needed, so
		// this is an estimate used only for pre-sizing scratch buffers.
		return srcLen + srcLen/8 + 64
	default:
		return srcLen
	}
}

// Compress compresses src at the given level (meaningful for ZStandard
// only) using kind. If the compressed result would not be smaller than src,
// or the requested codec is unsupported, Compress falls back to Copy and
// reports usedCopy=true; the caller must then record format.Copy, not kind,
// in the block entry.
func (f Facade) Compress(kind format.CompressionKind, level int, src []byte) (out []byte, usedCopy bool, err error) {
	if kind == format.Copy {
		return src, false, nil
	}

	codec, lookupErr := GetCodec(kind)
	if lookupErr != nil {
		// Unsupported codec (BZip3): the facade degrades to Copy rather
		// than failing the whole pack operation outright; callers that
		// must reject BZip3 at build time do so before reaching Compress.
		return src, true, nil
	}

	var compressed []byte
	if kind == format.ZStandard {
		compressed, err = compressZstdLevel(src, level)
	} else {
		compressed, err = codec.Compress(src)
	}
	if err != nil {
		return nil, false, errs.NewCompressionError(byte(kind), err)
	}

	if len(compressed) >= len(src) {
		return src, true, nil
	}

	return compressed, false, nil
}

// Decompress fully decompresses src, which was compressed under kind, into
// a newly allocated buffer.
func (Facade) Decompress(kind format.CompressionKind, src []byte) ([]byte, error) {
	codec, err := GetCodec(kind)
	if err != nil {
		return nil, err
	}

	out, err := codec.Decompress(src)
	if err != nil {
		return nil, errs.NewDecompressionError(byte(kind), err)
	}

	return out, nil
}

// DecompressPartial fills as much of dst as possible from src, which was
// compressed under kind. For Copy and ZStandard it tolerates src being
// truncated relative to the original compressed stream; LZ4 decodes the
// whole block first and fails on truncated input. It returns the number
// of bytes written to dst, which may be less than len(dst) if src contains
// fewer decompressed bytes than dst's capacity.
func (Facade) DecompressPartial(kind format.CompressionKind, src, dst []byte) (int, error) {
	switch kind {
	case format.Copy:
		return copy(dst, src), nil
	case format.ZStandard:
		n, err := decompressZstdPartial(src, dst)
		if err != nil {
			return n, errs.NewDecompressionError(byte(kind), err)
		}

		return n, nil
	case format.LZ4:
		n, err := decompressLZ4Partial(src, dst)
		if err != nil {
			return n, errs.NewDecompressionError(byte(kind), err)
		}

		return n, nil
	default:
		return 0, errs.ErrUnsupportedCodec
	}
}
