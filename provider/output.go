package provider

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/nxfmt/nx/errs"
)

// FileDescriptor identifies which archived file an Output writes, mirroring
// the fields of the file's ToC entry that extraction needs.
type FileDescriptor struct {
	DecompressedSize        uint64
	DecompressedBlockOffset uint32
	FirstBlockIndex         uint32
}

// WriteHandle is a writable view over a requested byte range of an output
// destination. Multiple live handles over disjoint ranges are permitted;
// the library guarantees range disjointness, the provider does not check it.
type WriteHandle interface {
	// Bytes returns the writable range.
	Bytes() []byte
	// Close releases the view, flushing where the destination requires it.
	Close() error
}

// Output receives one extracted file's bytes. Implementations accept
// concurrent GetFileData calls into non-overlapping ranges.
type Output interface {
	// Entry describes which file this output is for.
	Entry() FileDescriptor
	// GetFileData returns a writable handle over exactly length bytes
	// starting at start.
	GetFileData(start, length uint64) (WriteHandle, error)
}

type writeByteHandle []byte

func (h writeByteHandle) Bytes() []byte { return h }
func (h writeByteHandle) Close() error  { return nil }

// OutputBuffer writes an extracted file into a caller-visible in-memory
// buffer, pre-sized to the file's decompressed size.
type OutputBuffer struct {
	entry FileDescriptor
	data  []byte
}

// NewOutputBuffer allocates an in-memory Output for entry.
func NewOutputBuffer(entry FileDescriptor) *OutputBuffer {
	return &OutputBuffer{entry: entry, data: make([]byte, entry.DecompressedSize)}
}

// Entry returns the descriptor this buffer was created for.
func (o *OutputBuffer) Entry() FileDescriptor { return o.entry }

// GetFileData returns a writable subslice of the buffer. Disjoint ranges
// alias disjoint memory, so concurrent writers into non-overlapping ranges
// are safe without locking.
func (o *OutputBuffer) GetFileData(start, length uint64) (WriteHandle, error) {
	end := start + length
	if end < start || end > uint64(len(o.data)) {
		return nil, errs.NewFileProviderError("buffer range", errs.NewInsufficientData(len(o.data), int(end)))
	}

	return writeByteHandle(o.data[start:end]), nil
}

// Data returns the assembled file bytes. Call after extraction completes.
func (o *OutputBuffer) Data() []byte { return o.data }

// OutputFile writes an extracted file to disk through one shared read-write
// memory mapping of a pre-sized file.
type OutputFile struct {
	entry FileDescriptor
	file  *os.File
	m     mmap.MMap
}

// NewOutputFile creates (or truncates) path, sizes it to the entry's
// decompressed size, and maps it read-write. Zero-size files skip the
// mapping; mmap of an empty region fails on most platforms.
func NewOutputFile(path string, entry FileDescriptor) (*OutputFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.NewFileProviderError("create", err)
	}

	if err := f.Truncate(int64(entry.DecompressedSize)); err != nil {
		f.Close()
		return nil, errs.NewFileProviderError("truncate", err)
	}

	o := &OutputFile{entry: entry, file: f}
	if entry.DecompressedSize > 0 {
		m, err := mmap.Map(f, mmap.RDWR, 0)
		if err != nil {
			f.Close()
			return nil, errs.NewFileProviderError("mmap", err)
		}
		o.m = m
	}

	return o, nil
}

// Entry returns the descriptor this file was created for.
func (o *OutputFile) Entry() FileDescriptor { return o.entry }

// GetFileData returns a writable view into the mapping. As with
// OutputBuffer, disjoint ranges touch disjoint memory and need no lock.
func (o *OutputFile) GetFileData(start, length uint64) (WriteHandle, error) {
	end := start + length
	if end < start || end > uint64(len(o.m)) {
		return nil, errs.NewFileProviderError("mmap range", errs.NewInsufficientData(len(o.m), int(end)))
	}

	return writeByteHandle(o.m[start:end]), nil
}

// Close flushes the mapping to disk, unmaps it, and closes the file.
func (o *OutputFile) Close() error {
	if o.m != nil {
		if err := o.m.Flush(); err != nil {
			o.m.Unmap()
			o.file.Close()
			return errs.NewFileProviderError("flush", err)
		}
		if err := o.m.Unmap(); err != nil {
			o.file.Close()
			return errs.NewFileProviderError("unmap", err)
		}
		o.m = nil
	}

	return o.file.Close()
}
