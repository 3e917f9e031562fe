package bitpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFef64Fields_PrecalculatedValues(t *testing.T) {
	fields := NewFef64Fields(10, 10, 12)

	require.EqualValues(t, 32, fields.DecompressedSizeBits)
	require.EqualValues(t, 0x3FF, fields.blockCountMask)
	require.EqualValues(t, 0x3FF, fields.fileCountMask)
	require.EqualValues(t, 0xFFF, fields.decompressedBlockOffsetMask)
	require.EqualValues(t, 0xFFFFFFFF, fields.decompressedSizeMask)
	require.EqualValues(t, 10, fields.fileCountShift)
	require.EqualValues(t, 20, fields.decompressedBlockOffsetShift)
	require.EqualValues(t, 32, fields.decompressedSizeShift)
}

func TestFef64Fields_OneBitLeftForSize(t *testing.T) {
	// block_count_bits + file_count_bits + decompressed_block_offset_bits == 63
	fields := NewFef64Fields(21, 21, 21)
	require.EqualValues(t, 1, fields.DecompressedSizeBits)
	require.EqualValues(t, 1, fields.decompressedSizeMask)
}

func TestFileEntry8_PacksCorrectly(t *testing.T) {
	fields := NewFef64Fields(10, 10, 12)

	decompressedSize := uint64(0xABCDE)
	decompressedBlockOffset := uint64(0x123)
	filePathIndex := uint64(0x3FF)
	firstBlockIndex := uint64(0x3FF)

	entry := NewFileEntry8(fields, decompressedSize, decompressedBlockOffset, filePathIndex, firstBlockIndex)

	require.Equal(t, decompressedSize, entry.DecompressedSize(fields))
	require.Equal(t, decompressedBlockOffset, entry.DecompressedBlockOffset(fields))
	require.Equal(t, filePathIndex, entry.FilePathIndex(fields))
	require.Equal(t, firstBlockIndex, entry.FirstBlockIndex(fields))
}

func TestFileEntry8_RoundTripViaRaw(t *testing.T) {
	fields := NewFef64Fields(8, 8, 10)
	entry := NewFileEntry8(fields, 123, 45, 6, 7)

	reconstructed := FileEntry8FromRaw(entry.ToU64())
	require.Equal(t, entry, reconstructed)
}

func TestFileEntry16_PacksCorrectlyWithHash(t *testing.T) {
	fields := NewFef64Fields(10, 10, 12)

	hash := uint64(0xDEADBEEFDEADBEEF)
	decompressedSize := uint64(0xABCDE)
	decompressedBlockOffset := uint64(0x123)
	filePathIndex := uint64(0x3FF)
	firstBlockIndex := uint64(0x3FF)

	entry := NewFileEntry16(fields, hash, decompressedSize, decompressedBlockOffset, filePathIndex, firstBlockIndex)

	require.Equal(t, hash, entry.Hash)
	require.Equal(t, decompressedSize, entry.DecompressedSize(fields))
	require.Equal(t, decompressedBlockOffset, entry.DecompressedBlockOffset(fields))
	require.Equal(t, filePathIndex, entry.FilePathIndex(fields))
	require.Equal(t, firstBlockIndex, entry.FirstBlockIndex(fields))
}
