// Package bufpool provides pooled growable byte buffers for assembling
// SOLID block payloads and scratch decompression space, sized for
// archive-scale blocks rather than small per-call allocations.
package bufpool

import "sync"

// Default/max thresholds sized for archive blocks: a SOLID block tops
// out at 64 MiB (V1) or 16 MiB (V2 Preset 0-2), and chunked pieces
// default to 1 MiB (spec CHUNK_SIZE).
const (
	ChunkBufferDefaultSize = 1024 * 1024       // 1 MiB, matches default CHUNK_SIZE
	ChunkBufferMaxThreshold = 1024 * 1024 * 8  // 8 MiB
	SolidBufferDefaultSize  = 1024 * 1024 * 4  // 4 MiB
	SolidBufferMaxThreshold = 1024 * 1024 * 64 // 64 MiB, largest legal SOLID block (V1)
)

// Buffer is a reusable growable byte slice.
type Buffer struct {
	B []byte
}

// NewBuffer creates a new Buffer with the given default capacity.
func NewBuffer(defaultSize int) *Buffer {
	return &Buffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (b *Buffer) Bytes() []byte {
	return b.B
}

// Reset empties the buffer but retains its allocated memory.
func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

// Len returns the length of the buffer.
func (b *Buffer) Len() int {
	return len(b.B)
}

// Grow ensures the buffer can hold requiredBytes more bytes without
// reallocating, growing by 25% of current capacity for large buffers to
// balance memory use against reallocation cost.
func (b *Buffer) Grow(requiredBytes int) {
	available := cap(b.B) - len(b.B)
	if available >= requiredBytes {
		return
	}

	growBy := ChunkBufferDefaultSize
	if cap(b.B) > 4*ChunkBufferDefaultSize {
		growBy = cap(b.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(b.B), len(b.B)+growBy)
	copy(newBuf, b.B)
	b.B = newBuf
}

// Write appends data to the buffer, growing it as needed.
func (b *Buffer) Write(data []byte) (int, error) {
	b.Grow(len(data))
	b.B = append(b.B, data...)
	return len(data), nil
}

// Pool is a sync.Pool of Buffers with an optional size ceiling above
// which oversized buffers are discarded instead of retained.
type Pool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewPool creates a Pool whose buffers default to defaultSize and are
// discarded on Put if they grew past maxThreshold.
func NewPool(defaultSize, maxThreshold int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return NewBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a Buffer from the pool.
func (p *Pool) Get() *Buffer {
	buf, _ := p.pool.Get().(*Buffer)
	return buf
}

// Put returns a Buffer to the pool for reuse.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	if p.maxThreshold > 0 && cap(b.B) > p.maxThreshold {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

var (
	chunkPool = NewPool(ChunkBufferDefaultSize, ChunkBufferMaxThreshold)
	solidPool = NewPool(SolidBufferDefaultSize, SolidBufferMaxThreshold)
)

// GetChunkBuffer retrieves a Buffer from the default chunk-sized pool.
func GetChunkBuffer() *Buffer { return chunkPool.Get() }

// PutChunkBuffer returns a Buffer to the default chunk-sized pool.
func PutChunkBuffer(b *Buffer) { chunkPool.Put(b) }

// GetSolidBuffer retrieves a Buffer from the default SOLID-block-sized pool.
func GetSolidBuffer() *Buffer { return solidPool.Get() }

// PutSolidBuffer returns a Buffer to the default SOLID-block-sized pool.
func PutSolidBuffer(b *Buffer) { solidPool.Put(b) }
