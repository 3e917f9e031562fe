package solidblock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxfmt/nx/compress"
	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
	"github.com/nxfmt/nx/provider"
	"github.com/nxfmt/nx/toc"
)

func TestLazySharedAcrossThreads(t *testing.T) {
	// 1000 zero bytes under Copy compression: the archive bytes ARE the
	// decompressed bytes.
	archive := make([]byte, 1000)
	input := provider.FromSlice(archive)

	block := New(input, 0, 1000, format.Copy)

	entry := toc.FileEntry{DecompressedSize: 1000}

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, block.ConsiderFile(entry))
			data, err := block.Data()
			assert.NoError(t, err)
			results[i] = data
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	// Both goroutines observe the same backing array, not copies.
	assert.Equal(t, &results[0][0], &results[1][0])
	assert.Equal(t, archive, results[0])
}

func TestLazyPartialMaterialization(t *testing.T) {
	original := make([]byte, 4096)
	for i := range original {
		original[i] = byte(i)
	}

	facade := compress.NewFacade()
	compressed, usedCopy, err := facade.Compress(format.ZStandard, 9, original)
	require.NoError(t, err)
	require.False(t, usedCopy)

	block := New(provider.FromSlice(compressed), 0, uint32(len(compressed)), format.ZStandard)

	// Only the first file's range is needed.
	require.NoError(t, block.ConsiderFile(toc.FileEntry{DecompressedBlockOffset: 0, DecompressedSize: 100}))
	require.NoError(t, block.ConsiderFile(toc.FileEntry{DecompressedBlockOffset: 100, DecompressedSize: 400}))

	data, err := block.Data()
	require.NoError(t, err)
	require.Len(t, data, 500)
	assert.Equal(t, original[:500], data)
}

func TestLazyBlockInArchive(t *testing.T) {
	// The block sits at an offset inside a larger archive buffer.
	archive := make([]byte, 300)
	payload := archive[100:200]
	for i := range payload {
		payload[i] = byte(i + 1)
	}

	block := New(provider.FromSlice(archive), 100, 100, format.Copy)
	require.NoError(t, block.ConsiderFile(toc.FileEntry{DecompressedSize: 100}))

	data, err := block.Data()
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestLazyConsiderFileTooLarge(t *testing.T) {
	block := New(provider.FromSlice(nil), 0, 0, format.Copy)

	err := block.ConsiderFile(toc.FileEntry{
		DecompressedBlockOffset: toc.MaxSolidBlockSizeV1 - 10,
		DecompressedSize:        100,
	})
	assert.ErrorIs(t, err, errs.ErrSolidBlockTooLarge)
}

func TestLazyNothingConsidered(t *testing.T) {
	block := New(provider.FromSlice([]byte{1, 2, 3}), 0, 3, format.Copy)

	data, err := block.Data()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLazyTruncatedSource(t *testing.T) {
	// Copy block shorter than the bytes a consumer claims to need.
	block := New(provider.FromSlice(make([]byte, 10)), 0, 10, format.Copy)
	require.NoError(t, block.ConsiderFile(toc.FileEntry{DecompressedSize: 50}))

	_, err := block.Data()
	var insufficient *errs.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Available)
	assert.Equal(t, 50, insufficient.Expected)
}

func TestLazyAsInputProvider(t *testing.T) {
	archive := make([]byte, 100)
	for i := range archive {
		archive[i] = byte(i)
	}

	block := New(provider.FromSlice(archive), 0, 100, format.Copy)
	entry := toc.FileEntry{DecompressedBlockOffset: 20, DecompressedSize: 30}
	require.NoError(t, block.ConsiderFile(entry))

	input := provider.FromExistingBlock(block, entry.DecompressedBlockOffset, entry.DecompressedSize)
	h, err := input.GetFileData(0, entry.DecompressedSize)
	require.NoError(t, err)
	assert.Equal(t, archive[20:50], h.Bytes())
}
