package toc

import (
	"encoding/binary"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
)

// writePreset0Entries serializes 20-byte entries: hash, size(u32), CommonTuple.
func writePreset0Entries(dst []byte, entries []FileEntry) error {
	const size = 20
	for i, e := range entries {
		if e.DecompressedSize > 0xFFFFFFFF {
			return errs.ErrFormatLimitExceeded
		}
		off := i * size
		binary.LittleEndian.PutUint64(dst[off:], e.Hash)
		binary.LittleEndian.PutUint32(dst[off+8:], uint32(e.DecompressedSize))
		tuple := bitpack.NewCommonTuple(e.DecompressedBlockOffset, e.FilePathIndex, e.FirstBlockIndex)
		binary.LittleEndian.PutUint64(dst[off+12:], tuple.IntoRaw())
	}

	return nil
}

func readPreset0Entries(data []byte, count int) ([]FileEntry, error) {
	const size = 20
	need := count * size
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * size
		e := &out[i]
		e.Hash = binary.LittleEndian.Uint64(data[off:])
		e.DecompressedSize = uint64(binary.LittleEndian.Uint32(data[off+8:]))
		tuple := bitpack.CommonTupleFromRaw(binary.LittleEndian.Uint64(data[off+12:]))
		tuple.CopyTo(&e.DecompressedBlockOffset, &e.FilePathIndex, &e.FirstBlockIndex)
	}

	return out, nil
}

// writePreset1Entries serializes 12-byte entries: size(u32), CommonTuple;
// no hash field (Preset 1 is the no-hash variant).
func writePreset1Entries(dst []byte, entries []FileEntry) error {
	const size = 12
	for i, e := range entries {
		if e.DecompressedSize > 0xFFFFFFFF {
			return errs.ErrFormatLimitExceeded
		}
		off := i * size
		binary.LittleEndian.PutUint32(dst[off:], uint32(e.DecompressedSize))
		tuple := bitpack.NewCommonTuple(e.DecompressedBlockOffset, e.FilePathIndex, e.FirstBlockIndex)
		binary.LittleEndian.PutUint64(dst[off+4:], tuple.IntoRaw())
	}

	return nil
}

func readPreset1Entries(data []byte, count int) ([]FileEntry, error) {
	const size = 12
	need := count * size
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * size
		e := &out[i]
		e.DecompressedSize = uint64(binary.LittleEndian.Uint32(data[off:]))
		tuple := bitpack.CommonTupleFromRaw(binary.LittleEndian.Uint64(data[off+4:]))
		tuple.CopyTo(&e.DecompressedBlockOffset, &e.FilePathIndex, &e.FirstBlockIndex)
	}

	return out, nil
}

// writePreset2Entries serializes 24-byte entries: hash, size(u64), CommonTuple.
func writePreset2Entries(dst []byte, entries []FileEntry) error {
	const size = 24
	for i, e := range entries {
		off := i * size
		binary.LittleEndian.PutUint64(dst[off:], e.Hash)
		binary.LittleEndian.PutUint64(dst[off+8:], e.DecompressedSize)
		tuple := bitpack.NewCommonTuple(e.DecompressedBlockOffset, e.FilePathIndex, e.FirstBlockIndex)
		binary.LittleEndian.PutUint64(dst[off+16:], tuple.IntoRaw())
	}

	return nil
}

func readPreset2Entries(data []byte, count int) ([]FileEntry, error) {
	const size = 24
	need := count * size
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * size
		e := &out[i]
		e.Hash = binary.LittleEndian.Uint64(data[off:])
		e.DecompressedSize = binary.LittleEndian.Uint64(data[off+8:])
		tuple := bitpack.CommonTupleFromRaw(binary.LittleEndian.Uint64(data[off+16:]))
		tuple.CopyTo(&e.DecompressedBlockOffset, &e.FilePathIndex, &e.FirstBlockIndex)
	}

	return out, nil
}

// Preset 3 never stores decompressed_block_offset: no file starts at a
// nonzero offset inside a block (Open Question decision #2, DESIGN.md), so
// offset is always 0 and first_block_index alone locates the file's data.

// writePreset3Entries serializes 16-byte (hasHash) or 8-byte (no hash)
// entries: [hash] + size(u32) + path_idx(u16) + block_idx(u16).
func writePreset3Entries(dst []byte, entries []FileEntry, hasHash bool) error {
	size := 8
	if hasHash {
		size = 16
	}
	for i, e := range entries {
		if e.DecompressedSize > 0xFFFFFFFF {
			return errs.ErrFormatLimitExceeded
		}
		if e.FilePathIndex > 0xFFFF || e.FirstBlockIndex > 0xFFFF {
			return errs.ErrFormatLimitExceeded
		}
		off := i * size
		base := off
		if hasHash {
			binary.LittleEndian.PutUint64(dst[off:], e.Hash)
			base = off + 8
		}
		binary.LittleEndian.PutUint32(dst[base:], uint32(e.DecompressedSize))
		binary.LittleEndian.PutUint16(dst[base+4:], uint16(e.FilePathIndex))
		binary.LittleEndian.PutUint16(dst[base+6:], uint16(e.FirstBlockIndex))
	}

	return nil
}

func readPreset3Entries(data []byte, count int, hasHash bool) ([]FileEntry, error) {
	size := 8
	if hasHash {
		size = 16
	}
	need := count * size
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * size
		base := off
		e := &out[i]
		if hasHash {
			e.Hash = binary.LittleEndian.Uint64(data[off:])
			base = off + 8
		}
		e.DecompressedSize = uint64(binary.LittleEndian.Uint32(data[base:]))
		e.FilePathIndex = uint32(binary.LittleEndian.Uint16(data[base+4:]))
		e.FirstBlockIndex = uint32(binary.LittleEndian.Uint16(data[base+6:]))
	}

	return out, nil
}
