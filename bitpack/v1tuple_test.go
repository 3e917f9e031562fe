package bitpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestV1Tuple_RoundTrip(t *testing.T) {
	tuple := NewV1Tuple(0x3FFFFFF, 0xFFFFF, 0x3FFFF)
	require.EqualValues(t, 0x3FFFFFF, tuple.DecompressedBlockOffset())
	require.EqualValues(t, 0xFFFFF, tuple.FilePathIndex())
	require.EqualValues(t, 0x3FFFF, tuple.FirstBlockIndex())
}

func TestV1Tuple_FromRawIntoRaw(t *testing.T) {
	tuple := NewV1Tuple(7, 11, 13)
	raw := tuple.IntoRaw()
	reconstructed := V1TupleFromRaw(raw)
	require.Equal(t, tuple, reconstructed)
}

func TestV1Tuple_SettingOneFieldLeavesOthersUnchanged(t *testing.T) {
	var tuple V1Tuple
	tuple.SetDecompressedBlockOffset(123)
	tuple.SetFilePathIndex(456)
	tuple.SetFirstBlockIndex(789)

	tuple.SetFilePathIndex(999)
	require.EqualValues(t, 123, tuple.DecompressedBlockOffset())
	require.EqualValues(t, 999, tuple.FilePathIndex())
	require.EqualValues(t, 789, tuple.FirstBlockIndex())
}

func TestV1Tuple_OverflowTruncatesRatherThanPanics(t *testing.T) {
	var tuple V1Tuple
	tuple.SetFirstBlockIndex(1 << 18) // one past the 18-bit max
	require.EqualValues(t, 0, tuple.FirstBlockIndex())

	tuple.SetFilePathIndex(1 << 20)
	require.EqualValues(t, 0, tuple.FilePathIndex())

	tuple.SetDecompressedBlockOffset(1 << 26)
	require.EqualValues(t, 0, tuple.DecompressedBlockOffset())
}

func TestV1Tuple_CopyTo(t *testing.T) {
	tuple := NewV1Tuple(111, 222, 333)

	var offset, pathIdx, blockIdx uint32
	tuple.CopyTo(&offset, &pathIdx, &blockIdx)

	require.EqualValues(t, 111, offset)
	require.EqualValues(t, 222, pathIdx)
	require.EqualValues(t, 333, blockIdx)
}

func TestV1Tuple_FieldsDoNotOverlap(t *testing.T) {
	testValues := []uint32{0, 1, 2, 3, 7, 0xFF, 0xFFFF}

	for _, offset := range testValues {
		for _, pathIdx := range testValues {
			for _, blockIdx := range testValues {
				tuple := NewV1Tuple(offset, pathIdx, blockIdx)
				require.EqualValues(t, offset&v1DecompressedBlockMask, tuple.DecompressedBlockOffset())
				require.EqualValues(t, pathIdx&v1FilePathIndexMask, tuple.FilePathIndex())
				require.EqualValues(t, blockIdx&v1FirstBlockIndexMask, tuple.FirstBlockIndex())
			}
		}
	}
}
