package stringpool

import (
	"testing"

	"github.com/nxfmt/nx/compress"
	"github.com/stretchr/testify/require"
)

func decompressedSizeOf(paths []string) int {
	n := 0
	for _, p := range paths {
		n += len(p) + 1
	}

	return n
}

func TestPack_Unpack_RoundTrip(t *testing.T) {
	paths := []string{"a.txt", "b/c.png", "zzz/last.bin"}

	packed, err := Pack(paths, true, DefaultLevel)
	require.NoError(t, err)

	pool, err := Unpack(packed, len(paths), decompressedSizeOf(paths))
	require.NoError(t, err)
	require.Equal(t, len(paths), pool.Len())
	require.Equal(t, paths, pool.Iter())

	for i, p := range paths {
		require.Equal(t, p, pool.Get(i))
	}
}

func TestPack_SortsWhenNotSorted(t *testing.T) {
	paths := []string{"z.txt", "a.txt", "m.txt"}

	packed, err := Pack(paths, false, DefaultLevel)
	require.NoError(t, err)

	sortedPaths := []string{"a.txt", "m.txt", "z.txt"}
	pool, err := Unpack(packed, len(sortedPaths), decompressedSizeOf(sortedPaths))
	require.NoError(t, err)
	require.Equal(t, sortedPaths, pool.Iter())
}

func TestPack_EmptyPaths(t *testing.T) {
	packed, err := Pack(nil, true, DefaultLevel)
	require.NoError(t, err)
	require.Empty(t, packed)

	pool, err := Unpack(packed, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 0, pool.Len())
	require.Empty(t, pool.Iter())
}

func TestPack_RejectsNulInPath(t *testing.T) {
	_, err := Pack([]string{"has\x00nul"}, true, DefaultLevel)
	require.Error(t, err)
}

func TestUnpack_SizeMismatchIsError(t *testing.T) {
	paths := []string{"a.txt", "b.txt"}
	packed, err := Pack(paths, true, DefaultLevel)
	require.NoError(t, err)

	_, err = Unpack(packed, len(paths), decompressedSizeOf(paths)+5)
	require.Error(t, err)
}

func TestUnpack_ToleratesMissingTrailingSeparator(t *testing.T) {
	// Build a pool payload manually without the final path's trailing NUL.
	raw := []byte("a.txt\x00b.txt")
	compressed, err := compress.CompressZstd(raw, DefaultLevel)
	require.NoError(t, err)

	pool, err := Unpack(compressed, 2, len(raw))
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt"}, pool.Iter())
}
