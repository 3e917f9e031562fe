// Package dedup holds the concurrent deduplication state the packer
// consults while assembling blocks: a map over whole-file hashes for SOLID
// members and a prefix-filtered map for chunked streams. Both variants take
// a readers-writer lock so concurrent packing workers' lookups never block
// each other; only inserts are exclusive. Keys are 64-bit XXH3 values,
// already uniformly distributed, so no further mixing is layered on top of
// the map's own hashing.
package dedup

import "sync"

// SolidDetails locates an already-packed file: which block holds it and
// where its bytes start within that block's decompressed payload.
type SolidDetails struct {
	BlockIndex              uint32
	DecompressedBlockOffset uint32
}

// SolidDedup maps full-file hashes to the location of the first file packed
// with that content.
type SolidDedup struct {
	mu sync.RWMutex
	m  map[uint64]SolidDetails
}

// NewSolidDedup returns an empty SolidDedup.
func NewSolidDedup() *SolidDedup {
	return &SolidDedup{m: make(map[uint64]SolidDetails)}
}

// EnsureCapacity pre-sizes the map for n expected entries.
func (d *SolidDedup) EnsureCapacity(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.m) == 0 {
		d.m = make(map[uint64]SolidDetails, n)
	}
}

// Find returns the location recorded for hash, if any.
func (d *SolidDedup) Find(hash uint64) (SolidDetails, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	details, ok := d.m[hash]

	return details, ok
}

// Insert records details for hash. Insert is a blind overwrite; a caller
// that wants at-most-once semantics checks Find first.
func (d *SolidDedup) Insert(hash uint64, details SolidDetails) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.m[hash] = details
}

// ChunkedDedup deduplicates chunked (large-file) streams. The prefix set
// over each file's first few KiB is a cheap filter: a miss proves the file
// is new without hashing its full contents; only a prefix hit warrants the
// full-hash lookup.
type ChunkedDedup struct {
	mu       sync.RWMutex
	prefixes map[uint64]struct{}
	full     map[uint64]uint32 // full hash -> first chunk block index
}

// NewChunkedDedup returns an empty ChunkedDedup.
func NewChunkedDedup() *ChunkedDedup {
	return &ChunkedDedup{
		prefixes: make(map[uint64]struct{}),
		full:     make(map[uint64]uint32),
	}
}

// EnsureCapacity pre-sizes both maps for n expected entries.
func (d *ChunkedDedup) EnsureCapacity(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.full) == 0 {
		d.prefixes = make(map[uint64]struct{}, n)
		d.full = make(map[uint64]uint32, n)
	}
}

// HasPrefix reports whether some earlier file shared this prefix hash.
func (d *ChunkedDedup) HasPrefix(prefixHash uint64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.prefixes[prefixHash]

	return ok
}

// FindFull returns the first-chunk block index recorded for a full hash.
func (d *ChunkedDedup) FindFull(fullHash uint64) (uint32, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	idx, ok := d.full[fullHash]

	return idx, ok
}

// Insert records both hashes for a newly packed chunked file.
func (d *ChunkedDedup) Insert(prefixHash, fullHash uint64, firstBlockIndex uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.prefixes[prefixHash] = struct{}{}
	d.full[fullHash] = firstBlockIndex
}
