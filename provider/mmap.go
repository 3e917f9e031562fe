package provider

import (
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"

	"github.com/nxfmt/nx/errs"
)

type fileInput struct {
	mu     sync.Mutex
	file   *os.File
	size   uint64
	closed bool
}

// FromFile opens path and returns an Input whose every GetFileData call
// produces an independent read-only memory mapping of the requested range.
// Close unmaps nothing (each handle owns its mapping) but closes the
// underlying file, after which further requests fail.
func FromFile(path string) (*FileInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewFileProviderError("open", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.NewFileProviderError("stat", err)
	}

	return &FileInput{inner: fileInput{file: f, size: uint64(info.Size())}}, nil
}

// FileInput is the mmap-backed file Input returned by FromFile.
type FileInput struct {
	inner fileInput
}

type mmapHandle struct {
	m     mmap.MMap
	bytes []byte
}

func (h *mmapHandle) Bytes() []byte { return h.bytes }

func (h *mmapHandle) Close() error {
	return h.m.Unmap()
}

// GetFileData maps the requested range read-only. The mapping offset must
// be page-aligned, so the provider maps from the preceding page boundary
// and slices the view to the exact range.
func (p *FileInput) GetFileData(start, length uint64) (ReadHandle, error) {
	p.inner.mu.Lock()
	if p.inner.closed {
		p.inner.mu.Unlock()
		return nil, errs.ErrProviderClosed
	}
	file := p.inner.file
	size := p.inner.size
	p.inner.mu.Unlock()

	end := start + length
	if end < start || end > size {
		return nil, errs.NewFileProviderError("mmap range", errs.NewInsufficientData(int(size), int(end)))
	}
	if length == 0 {
		return byteHandle(nil), nil
	}

	pageSize := uint64(os.Getpagesize())
	alignedStart := start &^ (pageSize - 1)
	skew := start - alignedStart

	m, err := mmap.MapRegion(file, int(length+skew), mmap.RDONLY, 0, int64(alignedStart))
	if err != nil {
		return nil, errs.NewFileProviderError("mmap", err)
	}

	return &mmapHandle{m: m, bytes: m[skew : skew+length]}, nil
}

// Size returns the backing file's size.
func (p *FileInput) Size() uint64 { return p.inner.size }

// Close closes the backing file. Outstanding handles keep their mappings
// valid; new requests fail with ErrProviderClosed.
func (p *FileInput) Close() error {
	p.inner.mu.Lock()
	defer p.inner.mu.Unlock()

	if p.inner.closed {
		return nil
	}
	p.inner.closed = true

	return p.inner.file.Close()
}
