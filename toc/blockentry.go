package toc

import (
	"encoding/binary"

	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
)

// blockEntrySize is the on-disk size of one block entry under every Nx
// layout; V1 and V2 both pack a block entry into a single u32.
const blockEntrySize = 4

const (
	v1BlockCompressionBits = 3
	v1BlockSizeBits        = 29
	v1BlockSizeShift       = v1BlockCompressionBits
	v1BlockCompressionMask = (1 << v1BlockCompressionBits) - 1
	v1BlockSizeMask        = (1 << v1BlockSizeBits) - 1
)

// packV1BlockEntry packs a V1 NativeV1TocBlockEntry: compression(3, low) ·
// compressed_block_size(29, high).
func packV1BlockEntry(e BlockEntry) uint32 {
	raw := uint32(e.Compression) & v1BlockCompressionMask
	raw |= (e.CompressedSize & v1BlockSizeMask) << v1BlockSizeShift

	return raw
}

func unpackV1BlockEntry(raw uint32) BlockEntry {
	return BlockEntry{
		Compression:    format.CompressionKind(raw & v1BlockCompressionMask),
		CompressedSize: (raw >> v1BlockSizeShift) & v1BlockSizeMask,
	}
}

// packV2BlockEntry packs a V2 block entry: compression(2, low) ·
// compressed_block_size(30, high). BZip3 (value 3) cannot be represented
// in 2 bits and is rejected here with errs.ErrFormatLimitExceeded.
func packV2BlockEntry(e BlockEntry) (uint32, error) {
	if e.Compression == format.BZip3 {
		return 0, errs.ErrFormatLimitExceeded
	}
	raw := uint32(e.Compression) & v2BlockCompressionMask
	raw |= (e.CompressedSize & v2BlockSizeMask) << v2BlockSizeShift

	return raw, nil
}

func unpackV2BlockEntry(raw uint32) BlockEntry {
	return BlockEntry{
		Compression:    format.CompressionKind(raw & v2BlockCompressionMask),
		CompressedSize: (raw >> v2BlockSizeShift) & v2BlockSizeMask,
	}
}

// writeV1BlockEntries appends len(blocks) packed 4-byte block entries to
// dst. The loop is straight-line; the 4-at-a-time unrolling lives on the
// read path, where branch and bounds checks dominate more than in this
// simple store loop.
func writeV1BlockEntries(dst []byte, blocks []BlockEntry) {
	for i, b := range blocks {
		binary.LittleEndian.PutUint32(dst[i*blockEntrySize:], packV1BlockEntry(b))
	}
}

func writeV2BlockEntries(dst []byte, blocks []BlockEntry) error {
	for i, b := range blocks {
		raw, err := packV2BlockEntry(b)
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst[i*blockEntrySize:], raw)
	}

	return nil
}

// readV1BlockEntries reads count block entries from data with a tight
// 4-at-a-time unrolled loop to saturate memory bandwidth on the block
// array.
func readV1BlockEntries(data []byte, count int) ([]BlockEntry, error) {
	need := count * blockEntrySize
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]BlockEntry, count)
	i := 0
	for ; i+4 <= count; i += 4 {
		off := i * blockEntrySize
		out[i] = unpackV1BlockEntry(binary.LittleEndian.Uint32(data[off:]))
		out[i+1] = unpackV1BlockEntry(binary.LittleEndian.Uint32(data[off+4:]))
		out[i+2] = unpackV1BlockEntry(binary.LittleEndian.Uint32(data[off+8:]))
		out[i+3] = unpackV1BlockEntry(binary.LittleEndian.Uint32(data[off+12:]))
	}
	for ; i < count; i++ {
		out[i] = unpackV1BlockEntry(binary.LittleEndian.Uint32(data[i*blockEntrySize:]))
	}

	return out, nil
}

func readV2BlockEntries(data []byte, count int) ([]BlockEntry, error) {
	need := count * blockEntrySize
	if len(data) < need {
		return nil, errs.NewInsufficientData(len(data), need)
	}

	out := make([]BlockEntry, count)
	i := 0
	for ; i+4 <= count; i += 4 {
		off := i * blockEntrySize
		out[i] = unpackV2BlockEntry(binary.LittleEndian.Uint32(data[off:]))
		out[i+1] = unpackV2BlockEntry(binary.LittleEndian.Uint32(data[off+4:]))
		out[i+2] = unpackV2BlockEntry(binary.LittleEndian.Uint32(data[off+8:]))
		out[i+3] = unpackV2BlockEntry(binary.LittleEndian.Uint32(data[off+12:]))
	}
	for ; i < count; i++ {
		out[i] = unpackV2BlockEntry(binary.LittleEndian.Uint32(data[i*blockEntrySize:]))
	}

	return out, nil
}
