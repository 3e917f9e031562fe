package toc

import (
	"encoding/binary"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
)

const (
	v0EntrySize = 20 // hash(8) + size(4) + tuple(8)
	v1EntrySize = 24 // hash(8) + size(8) + tuple(8)
)

// writeV0Entries serializes entries in V0 order (hash, size u32, tuple),
// all little-endian.
func writeV0Entries(dst []byte, entries []FileEntry) error {
	for i, e := range entries {
		if e.DecompressedSize > 0xFFFFFFFF {
			return errs.ErrFormatLimitExceeded
		}
		off := i * v0EntrySize
		binary.LittleEndian.PutUint64(dst[off:], e.Hash)
		binary.LittleEndian.PutUint32(dst[off+8:], uint32(e.DecompressedSize))
		tuple := bitpack.NewV1Tuple(e.DecompressedBlockOffset, e.FilePathIndex, e.FirstBlockIndex)
		binary.LittleEndian.PutUint64(dst[off+12:], tuple.IntoRaw())
	}

	return nil
}

func writeV1Entries(dst []byte, entries []FileEntry) error {
	for i, e := range entries {
		off := i * v1EntrySize
		binary.LittleEndian.PutUint64(dst[off:], e.Hash)
		binary.LittleEndian.PutUint64(dst[off+8:], e.DecompressedSize)
		tuple := bitpack.NewV1Tuple(e.DecompressedBlockOffset, e.FilePathIndex, e.FirstBlockIndex)
		binary.LittleEndian.PutUint64(dst[off+16:], tuple.IntoRaw())
	}

	return nil
}

// readV0Entries reads count V0 (20-byte) entries with a single tight loop:
// the format is selected once, outside the loop, never dispatched
// per-entry.
func readV0Entries(data []byte, count int) ([]FileEntry, error) {
	need := count * v0EntrySize
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * v0EntrySize
		hash := binary.LittleEndian.Uint64(data[off:])
		size := binary.LittleEndian.Uint32(data[off+8:])
		tuple := bitpack.V1TupleFromRaw(binary.LittleEndian.Uint64(data[off+12:]))

		e := &out[i]
		e.Hash = hash
		e.DecompressedSize = uint64(size)
		tuple.CopyTo(&e.DecompressedBlockOffset, &e.FilePathIndex, &e.FirstBlockIndex)
	}

	return out, nil
}

func readV1Entries(data []byte, count int) ([]FileEntry, error) {
	need := count * v1EntrySize
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * v1EntrySize
		hash := binary.LittleEndian.Uint64(data[off:])
		size := binary.LittleEndian.Uint64(data[off+8:])
		tuple := bitpack.V1TupleFromRaw(binary.LittleEndian.Uint64(data[off+16:]))

		e := &out[i]
		e.Hash = hash
		e.DecompressedSize = size
		tuple.CopyTo(&e.DecompressedBlockOffset, &e.FilePathIndex, &e.FirstBlockIndex)
	}

	return out, nil
}
