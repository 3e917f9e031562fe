package toc

import (
	"encoding/binary"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
)

func writeFef64Entries8(dst []byte, entries []FileEntry, fields bitpack.Fef64Fields) error {
	const size = 8
	for i, e := range entries {
		fe := bitpack.NewFileEntry8(fields, e.DecompressedSize, uint64(e.DecompressedBlockOffset), uint64(e.FilePathIndex), uint64(e.FirstBlockIndex))
		binary.LittleEndian.PutUint64(dst[i*size:], fe.ToU64())
	}

	return nil
}

func readFef64Entries8(data []byte, count int, fields bitpack.Fef64Fields) ([]FileEntry, error) {
	const size = 8
	need := count * size
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		fe := bitpack.FileEntry8FromRaw(binary.LittleEndian.Uint64(data[i*size:]))
		e := &out[i]
		e.DecompressedSize = fe.DecompressedSize(fields)
		e.DecompressedBlockOffset = uint32(fe.DecompressedBlockOffset(fields))
		e.FilePathIndex = uint32(fe.FilePathIndex(fields))
		e.FirstBlockIndex = uint32(fe.FirstBlockIndex(fields))
	}

	return out, nil
}

func writeFef64Entries16(dst []byte, entries []FileEntry, fields bitpack.Fef64Fields) error {
	const size = 16
	for i, e := range entries {
		fe := bitpack.NewFileEntry16(fields, e.Hash, e.DecompressedSize, uint64(e.DecompressedBlockOffset), uint64(e.FilePathIndex), uint64(e.FirstBlockIndex))
		off := i * size
		binary.LittleEndian.PutUint64(dst[off:], fe.Hash)
		binary.LittleEndian.PutUint64(dst[off+8:], fe.Data())
	}

	return nil
}

func readFef64Entries16(data []byte, count int, fields bitpack.Fef64Fields) ([]FileEntry, error) {
	const size = 16
	need := count * size
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]FileEntry, count)
	for i := range out {
		off := i * size
		hash := binary.LittleEndian.Uint64(data[off:])
		fe := bitpack.FileEntry16FromRaw(hash, binary.LittleEndian.Uint64(data[off+8:]))
		e := &out[i]
		e.Hash = fe.Hash
		e.DecompressedSize = fe.DecompressedSize(fields)
		e.DecompressedBlockOffset = uint32(fe.DecompressedBlockOffset(fields))
		e.FilePathIndex = uint32(fe.FilePathIndex(fields))
		e.FirstBlockIndex = uint32(fe.FirstBlockIndex(fields))
	}

	return out, nil
}
