package bitpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommonTuple_RoundTrip(t *testing.T) {
	tuple := NewCommonTuple(0xFFFFFF, 0x3FFFF, 0x3FFFFF)
	require.EqualValues(t, 0xFFFFFF, tuple.DecompressedBlockOffset())
	require.EqualValues(t, 0x3FFFF, tuple.FilePathIndex())
	require.EqualValues(t, 0x3FFFFF, tuple.FirstBlockIndex())
}

func TestCommonTuple_OverflowTruncates(t *testing.T) {
	var tuple CommonTuple
	tuple.SetFirstBlockIndex(1 << 22)
	require.EqualValues(t, 0, tuple.FirstBlockIndex())

	tuple.SetFilePathIndex(1 << 18)
	require.EqualValues(t, 0, tuple.FilePathIndex())

	tuple.SetDecompressedBlockOffset(1 << 24)
	require.EqualValues(t, 0, tuple.DecompressedBlockOffset())
}

func TestCommonTuple_CopyTo(t *testing.T) {
	tuple := NewCommonTuple(1000, 2000, 3000)

	var offset, pathIdx, blockIdx uint32
	tuple.CopyTo(&offset, &pathIdx, &blockIdx)

	require.EqualValues(t, 1000, offset)
	require.EqualValues(t, 2000, pathIdx)
	require.EqualValues(t, 3000, blockIdx)
}

func TestCommonTuple_FieldsDoNotOverlap(t *testing.T) {
	testValues := []uint32{0, 1, 2, 3, 7, 0xFF, 0xFFFF}

	for _, offset := range testValues {
		for _, pathIdx := range testValues {
			for _, blockIdx := range testValues {
				tuple := NewCommonTuple(offset, pathIdx, blockIdx)
				require.EqualValues(t, offset&commonBlockOffsetMask, tuple.DecompressedBlockOffset())
				require.EqualValues(t, pathIdx&commonFilePathIndexMask, tuple.FilePathIndex())
				require.EqualValues(t, blockIdx&commonFirstBlockIndexMask, tuple.FirstBlockIndex())
			}
		}
	}
}
