// Package compress provides the compression facade Nx uses for archive
// blocks and string pools.
//
// # Overview
//
// Every block in an Nx archive is compressed under exactly one kind,
// recorded in its block entry: Copy, ZStandard, or LZ4 (BZip3 is part of
// the wire format but has no implementation here; see Facade.Compress).
//
//	type Codec interface {
//	    Compress(data []byte) ([]byte, error)
//	    Decompress(data []byte) ([]byte, error)
//	}
//
// Facade sits above the individual codecs and implements the pack-time and
// unpack-time contracts the rest of the library relies on: allocation
// sizing, compress-with-fallback-to-Copy, and partial decompression for
// lazy SOLID blocks.
//
// # Choosing a codec
//
//   - Copy: zero overhead, used for data that is already compressed or
//     incompressible, and as the automatic fallback when a real codec
//     would not shrink the input.
//   - ZStandard: best compression ratio; used for SOLID blocks and string
//     pools where archive size matters more than pack throughput.
//   - LZ4: fastest decompression; a reasonable default for chunked blocks
//     of files that are read back often.
//
// # Fallback to Copy
//
// Facade.Compress never returns an error just because compression didn't
// help: if the compressed output is not smaller than the source, or the
// requested codec has no runtime support, it returns the source bytes
// unmodified and usedCopy=true. Callers must then record format.Copy, not
// the originally requested kind, in the corresponding block entry.
//
// # Partial decompression
//
// Facade.DecompressPartial exists for the lazy SOLID block path: a
// reader may only need to materialize the prefix of a block that contains
// the files it's extracting right now, not the whole block. It tolerates
// dst being shorter than the full decompressed size, filling as much of
// dst as the available input allows; for Copy and ZStandard it also
// tolerates src being shorter than the full compressed stream. LZ4 blocks
// are decoded whole and then copied, so LZ4 needs the complete compressed
// block.
package compress
