// Package stringpool implements the ZStandard-compressed file path pool:
// paths are concatenated with NUL separators, compressed once, and
// unpacked into an O(1)-indexable structure.
package stringpool

import (
	"bytes"
	"sort"

	"github.com/nxfmt/nx/compress"
	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
	"github.com/nxfmt/nx/internal/bufpool"
)

// DefaultLevel is the ZStandard level string pools compress at unless the
// caller overrides it.
const DefaultLevel = 16

const separator = 0x00

var facade = compress.NewFacade()

// Pack concatenates paths (separated by NUL) and compresses the result
// with ZStandard at level. If sorted is false, paths is sorted in place
// first; the pool's on-disk invariant is that paths are lexicographically
// ordered regardless of which path the caller took to get there.
func Pack(paths []string, sorted bool, level int) ([]byte, error) {
	if !sorted {
		sort.Strings(paths)
	}

	if len(paths) == 0 {
		return nil, nil
	}

	buf := bufpool.GetChunkBuffer()
	defer bufpool.PutChunkBuffer(buf)
	for _, p := range paths {
		if bytes.IndexByte([]byte(p), separator) >= 0 {
			return nil, errs.ErrNulInPath
		}
		buf.B = append(buf.B, p...)
		buf.B = append(buf.B, separator)
	}

	// The decompressed size formula is sum(len(paths)) + N; the trailing
	// separator after the last path is part of that N and is not special.
	// No Copy fallback here: the pool's on-disk format is unconditionally a
	// ZStandard frame, even for a handful of short paths that expand.
	compressed, err := compress.CompressZstd(buf.Bytes(), level)
	if err != nil {
		return nil, err
	}

	return compressed, nil
}

// Pool is the unpacked, O(1)-indexable view over a string pool's paths.
// Get returns a string backed by the pool's own decompressed buffer; it is
// valid for the Pool's lifetime.
type Pool struct {
	data    string
	offsets []uint32 // start offset of each path within data
	lengths []uint32
}

// Len returns the number of paths in the pool.
func (p *Pool) Len() int { return len(p.offsets) }

// Get returns the path at index i.
func (p *Pool) Get(i int) string {
	return p.data[p.offsets[i] : p.offsets[i]+p.lengths[i]]
}

// Iter returns all paths in pool order, as a freshly allocated slice.
func (p *Pool) Iter() []string {
	out := make([]string, p.Len())
	for i := range out {
		out[i] = p.Get(i)
	}

	return out
}

// Unpack decompresses payload, which must expand to exactly
// expectedDecompressedSize bytes, and scans it once to build the offset
// index for fileCount paths.
func Unpack(payload []byte, fileCount int, expectedDecompressedSize int) (*Pool, error) {
	if fileCount == 0 {
		return &Pool{}, nil
	}

	decompressed, err := facade.Decompress(format.ZStandard, payload)
	if err != nil {
		return nil, errs.ErrStringPoolDecompressFailed
	}

	if len(decompressed) != expectedDecompressedSize {
		return nil, errs.ErrStringPoolSizeMismatch
	}

	return index(decompressed, fileCount)
}

// UnpackIndexed unpacks a pool whose decompressed size is not known ahead
// of time by the caller: the ZStandard frame header carries it, so the
// decompressor still expands to the exact recorded size, and the scan
// validates that exactly fileCount paths come out. The ToC driver uses
// this form, since the ToC header records only the pool's compressed size.
func UnpackIndexed(payload []byte, fileCount int) (*Pool, error) {
	if fileCount == 0 {
		return &Pool{}, nil
	}

	decompressed, err := facade.Decompress(format.ZStandard, payload)
	if err != nil {
		return nil, errs.ErrStringPoolDecompressFailed
	}

	return index(decompressed, fileCount)
}

func index(decompressed []byte, fileCount int) (*Pool, error) {
	offsets := make([]uint32, 0, fileCount)
	lengths := make([]uint32, 0, fileCount)

	start := 0
	for i := 0; i < len(decompressed) && len(offsets) < fileCount; i++ {
		if decompressed[i] == separator {
			offsets = append(offsets, uint32(start))
			lengths = append(lengths, uint32(i-start))
			start = i + 1
		}
	}

	// Tolerate a pool whose final path has no trailing separator; the file
	// count is recorded separately in the ToC header, so the last NUL is
	// redundant and some writers omit it.
	if len(offsets) < fileCount && start < len(decompressed) {
		offsets = append(offsets, uint32(start))
		lengths = append(lengths, uint32(len(decompressed)-start))
	}

	if len(offsets) != fileCount {
		return nil, errs.ErrStringPoolSizeMismatch
	}

	return &Pool{
		data:    string(decompressed),
		offsets: offsets,
		lengths: lengths,
	}, nil
}
