// Package provider implements the thread-safe input and output data
// abstractions that the packer and unpacker move bytes through: inputs
// hand out read-only views of a byte range, outputs hand out writable views
// into pre-sized destinations. Providers are safe for concurrent use; the
// handles they return belong to one caller each.
package provider

import (
	"io"
	"sync"

	"github.com/nxfmt/nx/errs"
)

// ReadHandle is a read-only view over a requested byte range. Its bytes are
// valid until Close is called, and never outlive the provider that produced
// it. Handles are not shared between goroutines; each caller requests its
// own.
type ReadHandle interface {
	// Bytes returns the requested range.
	Bytes() []byte
	// Close releases any resource backing the view (a no-op for in-memory
	// providers, an unmap for file-mapping providers).
	Close() error
}

// Input supplies read-only file data by range. Implementations are safe for
// concurrent GetFileData calls.
type Input interface {
	// GetFileData returns a handle over exactly length bytes starting at
	// start.
	GetFileData(start, length uint64) (ReadHandle, error)
}

// byteHandle is the trivial handle over an in-memory slice.
type byteHandle []byte

func (h byteHandle) Bytes() []byte { return h }
func (h byteHandle) Close() error  { return nil }

type sliceInput struct {
	data []byte
}

// FromSlice wraps a borrowed buffer as an Input. The provider holds a
// zero-copy view; the caller keeps the buffer alive and unmodified for the
// provider's lifetime.
func FromSlice(data []byte) Input {
	return &sliceInput{data: data}
}

// FromBytes wraps an owned buffer as an Input. Identical mechanics to
// FromSlice; the name records the ownership transfer.
func FromBytes(data []byte) Input {
	return &sliceInput{data: data}
}

func (p *sliceInput) GetFileData(start, length uint64) (ReadHandle, error) {
	end := start + length
	if end < start || end > uint64(len(p.data)) {
		return nil, errs.NewFileProviderError("slice", errs.NewInsufficientData(len(p.data), int(end)))
	}

	return byteHandle(p.data[start:end]), nil
}

type readerAtInput struct {
	r io.ReaderAt
}

// FromReaderAt wraps an io.ReaderAt as an Input. ReadAt is specified to be
// safe for parallel calls on the same source, so no lock is taken; each
// request reads into a fresh owned buffer.
func FromReaderAt(r io.ReaderAt) Input {
	return &readerAtInput{r: r}
}

func (p *readerAtInput) GetFileData(start, length uint64) (ReadHandle, error) {
	buf := make([]byte, length)
	if _, err := p.r.ReadAt(buf, int64(start)); err != nil {
		return nil, errs.NewFileProviderError("read", err)
	}

	return byteHandle(buf), nil
}

type readSeekerInput struct {
	mu sync.Mutex
	rs io.ReadSeeker
}

// FromReadSeeker wraps a seekable stream as an Input, serializing access
// under a lock since a stream carries one shared cursor. Each request seeks
// and reads exactly length bytes into a fresh owned buffer.
func FromReadSeeker(rs io.ReadSeeker) Input {
	return &readSeekerInput{rs: rs}
}

func (p *readSeekerInput) GetFileData(start, length uint64) (ReadHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.rs.Seek(int64(start), io.SeekStart); err != nil {
		return nil, errs.NewFileProviderError("seek", err)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(p.rs, buf); err != nil {
		return nil, errs.NewFileProviderError("read", err)
	}

	return byteHandle(buf), nil
}

// BlockSource is anything that can materialize a decompressed SOLID block
// on demand. solidblock.Lazy satisfies it.
type BlockSource interface {
	Data() ([]byte, error)
}

type existingBlockInput struct {
	source BlockSource
	offset uint32
	size   uint64
}

// FromExistingBlock wraps a lazy SOLID block and one file's
// (decompressed_block_offset, decompressed_size) window within it. The
// first GetFileData call triggers block materialization; the returned
// handle is a view into the block's decompressed bytes. The caller must
// have registered the window with the block (ConsiderFile) before the
// first read.
func FromExistingBlock(source BlockSource, decompressedBlockOffset uint32, decompressedSize uint64) Input {
	return &existingBlockInput{source: source, offset: decompressedBlockOffset, size: decompressedSize}
}

func (p *existingBlockInput) GetFileData(start, length uint64) (ReadHandle, error) {
	end := start + length
	if end < start || end > p.size {
		return nil, errs.NewFileProviderError("block window", errs.NewInsufficientData(int(p.size), int(end)))
	}

	data, err := p.source.Data()
	if err != nil {
		return nil, err
	}

	base := uint64(p.offset)

	return byteHandle(data[base+start : base+end]), nil
}
