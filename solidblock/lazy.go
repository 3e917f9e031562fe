// Package solidblock implements the lazy decompressed SOLID block:
// each block's decompressed bytes are materialized at most once, on first
// demand, and shared read-only across every extraction goroutine that needs
// a file from it.
package solidblock

import (
	"sync"
	"sync/atomic"

	"github.com/nxfmt/nx/compress"
	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
	"github.com/nxfmt/nx/provider"
	"github.com/nxfmt/nx/toc"
)

var facade = compress.NewFacade()

// Lazy is a SOLID block whose decompression is deferred until the first
// Data call. Construction does no I/O. Before any Data call, every consumer
// registers its file with ConsiderFile so the block knows the high-water
// mark of decompressed bytes it must produce; Copy and ZStandard
// decompression then stops there instead of expanding the whole block when
// only a prefix is needed (an LZ4 block is decoded whole, then cut).
//
// Data is safe to call from many goroutines: exactly one performs the
// materialization, the rest block until it finishes and then observe the
// same payload slice.
type Lazy struct {
	source           provider.Input
	blockOffset      uint64
	compressedLength uint32
	kind             format.CompressionKind

	bytesNeeded atomic.Uint32

	once    sync.Once
	payload []byte
	err     error
}

// New builds a Lazy over the compressed bytes at blockOffset in source.
func New(source provider.Input, blockOffset uint64, compressedLength uint32, kind format.CompressionKind) *Lazy {
	return &Lazy{
		source:           source,
		blockOffset:      blockOffset,
		compressedLength: compressedLength,
		kind:             kind,
	}
}

// ConsiderFile raises the block's decompression high-water mark to cover
// entry: bytes_needed = max(bytes_needed, offset + size). Every consumer
// must call it before the block's first Data call. The result must not
// exceed the largest legal SOLID block.
func (l *Lazy) ConsiderFile(entry toc.FileEntry) error {
	end := uint64(entry.DecompressedBlockOffset) + entry.DecompressedSize
	if end > toc.MaxSolidBlockSizeV1 {
		return errs.ErrSolidBlockTooLarge
	}

	needed := uint32(end)
	for {
		current := l.bytesNeeded.Load()
		if current >= needed {
			return nil
		}
		if l.bytesNeeded.CompareAndSwap(current, needed) {
			return nil
		}
	}
}

// Data returns the block's decompressed bytes, materializing them on the
// first call: fetch the compressed bytes from the source provider, then
// partially decompress exactly bytesNeeded bytes. Subsequent calls return
// the stored payload without touching the source again.
func (l *Lazy) Data() ([]byte, error) {
	l.once.Do(l.materialize)

	return l.payload, l.err
}

func (l *Lazy) materialize() {
	needed := l.bytesNeeded.Load()
	if needed == 0 {
		l.payload = nil
		return
	}

	handle, err := l.source.GetFileData(l.blockOffset, uint64(l.compressedLength))
	if err != nil {
		l.err = err
		return
	}
	defer handle.Close()

	dst := make([]byte, needed)
	n, err := facade.DecompressPartial(l.kind, handle.Bytes(), dst)
	if err != nil {
		l.err = err
		return
	}
	if n < int(needed) {
		l.err = errs.NewInsufficientData(n, int(needed))
		return
	}

	l.payload = dst
}
