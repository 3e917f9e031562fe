package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
)

func sampleToc() ([]FileEntry, []BlockEntry, []string) {
	entries := []FileEntry{
		{Hash: 0x1111, DecompressedSize: 3, DecompressedBlockOffset: 0, FilePathIndex: 0, FirstBlockIndex: 0},
		{Hash: 0x2222, DecompressedSize: 3, DecompressedBlockOffset: 3, FilePathIndex: 1, FirstBlockIndex: 0},
		{Hash: 0x3333, DecompressedSize: 1024, DecompressedBlockOffset: 0, FilePathIndex: 2, FirstBlockIndex: 1},
	}
	blocks := []BlockEntry{
		{CompressedSize: 40, Compression: format.ZStandard},
		{CompressedSize: 900, Compression: format.LZ4},
	}
	paths := []string{"data/a.txt", "data/b.txt", "data/c.bin"}

	return entries, blocks, paths
}

func TestPackUnpackRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		version Version
		hasHash bool
	}{
		{"V0", FormatV0, VersionV0, true},
		{"V1", FormatV1, VersionV1, true},
		{"V2Preset0", FormatV2Preset0, VersionV2, true},
		{"V2Preset1", FormatV2Preset1, VersionV2, false},
		{"V2Preset2", FormatV2Preset2, VersionV2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, blocks, paths := sampleToc()

			data, err := Pack(tt.format, entries, blocks, paths, bitpack.Fef64Fields{}, 3, nil)
			require.NoError(t, err)

			got, consumed, err := Unpack(data, tt.version)
			require.NoError(t, err)
			assert.Equal(t, len(data), consumed)
			assert.Equal(t, tt.format, got.Format)
			assert.Equal(t, paths, got.Paths)
			assert.Equal(t, blocks, got.Blocks)

			require.Len(t, got.Entries, len(entries))
			for i := range entries {
				assert.Equal(t, entries[i].DecompressedSize, got.Entries[i].DecompressedSize, "entry %d size", i)
				assert.Equal(t, entries[i].DecompressedBlockOffset, got.Entries[i].DecompressedBlockOffset, "entry %d offset", i)
				assert.Equal(t, entries[i].FilePathIndex, got.Entries[i].FilePathIndex, "entry %d path", i)
				assert.Equal(t, entries[i].FirstBlockIndex, got.Entries[i].FirstBlockIndex, "entry %d block", i)
				if tt.hasHash {
					assert.Equal(t, entries[i].Hash, got.Entries[i].Hash, "entry %d hash", i)
				} else {
					assert.Zero(t, got.Entries[i].Hash, "entry %d hash", i)
				}
			}
		})
	}
}

func TestPackUnpackPreset3(t *testing.T) {
	// Preset 3: one block per file, no SOLID offsets.
	entries := []FileEntry{
		{Hash: 0xAA, DecompressedSize: 10, FilePathIndex: 0, FirstBlockIndex: 0},
		{Hash: 0xBB, DecompressedSize: 20, FilePathIndex: 1, FirstBlockIndex: 1},
	}
	blocks := []BlockEntry{
		{CompressedSize: 10, Compression: format.Copy},
		{CompressedSize: 20, Compression: format.Copy},
	}
	paths := []string{"a", "b"}

	for _, f := range []Format{FormatV2Preset3Hash, FormatV2Preset3NoHash} {
		data, err := Pack(f, entries, blocks, paths, bitpack.Fef64Fields{}, 3, nil)
		require.NoError(t, err)

		got, _, err := Unpack(data, VersionV2)
		require.NoError(t, err)
		assert.Equal(t, f, got.Format)
		assert.Equal(t, Preset3, got.Preset)
		for i := range got.Entries {
			assert.Zero(t, got.Entries[i].DecompressedBlockOffset)
		}
	}

	// A SOLID member (nonzero offset) cannot be represented.
	entries[1].DecompressedBlockOffset = 10
	_, err := Pack(FormatV2Preset3Hash, entries, blocks, paths, bitpack.Fef64Fields{}, 3, nil)
	assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)
}

func TestPackUnpackFef64(t *testing.T) {
	fields := bitpack.NewFef64Fields(10, 10, 20)
	entries, blocks, paths := sampleToc()

	for _, tt := range []struct {
		f       Format
		hasHash bool
	}{
		{FormatV2FEF64_8, false},
		{FormatV2FEF64_16, true},
	} {
		data, err := Pack(tt.f, entries, blocks, paths, fields, 3, nil)
		require.NoError(t, err)

		got, consumed, err := Unpack(data, VersionV2)
		require.NoError(t, err)
		assert.Equal(t, len(data), consumed)
		assert.Equal(t, tt.f, got.Format)
		assert.Equal(t, fields.BlockCountBits, got.Fef64Fields.BlockCountBits)
		assert.Equal(t, fields.FileCountBits, got.Fef64Fields.FileCountBits)
		assert.Equal(t, fields.DecompressedBlockOffsetBits, got.Fef64Fields.DecompressedBlockOffsetBits)
		for i := range entries {
			assert.Equal(t, entries[i].DecompressedSize, got.Entries[i].DecompressedSize)
			assert.Equal(t, entries[i].DecompressedBlockOffset, got.Entries[i].DecompressedBlockOffset)
			if tt.hasHash {
				assert.Equal(t, entries[i].Hash, got.Entries[i].Hash)
			}
		}
	}
}

func TestPackRepackByteIdentical(t *testing.T) {
	entries, blocks, paths := sampleToc()

	first, err := Pack(FormatV2Preset0, entries, blocks, paths, bitpack.Fef64Fields{}, 3, nil)
	require.NoError(t, err)

	got, _, err := Unpack(first, VersionV2)
	require.NoError(t, err)

	second, err := Pack(FormatV2Preset0, got.Entries, got.Blocks, got.Paths, bitpack.Fef64Fields{}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPackDictionaryRoundTrip(t *testing.T) {
	entries, blocks, paths := sampleToc()
	dict := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	data, err := Pack(FormatV2Preset0, entries, blocks, paths, bitpack.Fef64Fields{}, 3, dict)
	require.NoError(t, err)

	got, err := UnpackWithDictionary(data, VersionV2)
	require.NoError(t, err)
	assert.Equal(t, dict, got.DictionaryBytes)
}

func TestPackRejectsOverflow(t *testing.T) {
	blocks := []BlockEntry{{CompressedSize: 1, Compression: format.Copy}}
	paths := []string{"a"}

	tests := []struct {
		name   string
		format Format
		entry  FileEntry
	}{
		{"V0 size over 4GiB", FormatV0, FileEntry{DecompressedSize: 1 << 32}},
		{"Preset1 size over 4GiB", FormatV2Preset1, FileEntry{DecompressedSize: 1 << 32}},
		{"Preset0 offset over 24 bits", FormatV2Preset0, FileEntry{DecompressedBlockOffset: 1 << 24}},
		{"V0 offset over 26 bits", FormatV0, FileEntry{DecompressedBlockOffset: 1 << 26}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Pack(tt.format, []FileEntry{tt.entry}, blocks, paths, bitpack.Fef64Fields{}, 3, nil)
			assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)
		})
	}
}

func TestPackRejectsBZip3InV2(t *testing.T) {
	entries := []FileEntry{{DecompressedSize: 1}}
	blocks := []BlockEntry{{CompressedSize: 1, Compression: format.BZip3}}

	_, err := Pack(FormatV2Preset0, entries, blocks, []string{"a"}, bitpack.Fef64Fields{}, 3, nil)
	assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)

	// V1 block entries have a third compression bit; BZip3 serializes fine.
	data, err := Pack(FormatV0, entries, blocks, []string{"a"}, bitpack.Fef64Fields{}, 3, nil)
	require.NoError(t, err)

	got, _, err := Unpack(data, VersionV0)
	require.NoError(t, err)
	assert.Equal(t, format.BZip3, got.Blocks[0].Compression)
}

func TestUnpackInsufficientData(t *testing.T) {
	entries, blocks, paths := sampleToc()

	data, err := Pack(FormatV1, entries, blocks, paths, bitpack.Fef64Fields{}, 3, nil)
	require.NoError(t, err)

	_, _, err = Unpack(data[:len(data)-10], VersionV1)
	var insufficient *errs.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, len(data)-10, insufficient.Available)
	assert.Equal(t, len(data), insufficient.Expected)

	_, _, err = Unpack(data[:4], VersionV1)
	require.ErrorAs(t, err, &insufficient)
}

func TestUnpackUnsupportedVersion(t *testing.T) {
	// Version bits 10 (=2) in a V1 header are not a legacy version.
	raw := uint64(2) << v1VersionShift
	data := make([]byte, HeaderSize)
	writeHeaderBytes(data, raw)

	_, _, err := Unpack(data, VersionV1)
	assert.ErrorIs(t, err, errs.ErrUnsupportedTocVersion)
}

func TestCalculateTocSize(t *testing.T) {
	assert.Equal(t, 8+2*20+3*4+100, CalculateTocSize(FormatV0, 100, 3, 2))
	assert.Equal(t, 8+2*12+3*4+100, CalculateTocSize(FormatV2Preset1, 100, 3, 2))
	assert.Equal(t, 16+2*8+3*4+100, CalculateTocSize(FormatV2FEF64_8, 100, 3, 2))
}

func TestEmptyToc(t *testing.T) {
	data, err := Pack(FormatV2Preset1, nil, nil, nil, bitpack.Fef64Fields{}, 3, nil)
	require.NoError(t, err)
	require.Len(t, data, HeaderSize)

	got, consumed, err := Unpack(data, VersionV2)
	require.NoError(t, err)
	assert.Equal(t, HeaderSize, consumed)
	assert.Empty(t, got.Entries)
	assert.Empty(t, got.Blocks)
	assert.Empty(t, got.Paths)
}
