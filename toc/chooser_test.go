package toc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
)

func TestChooseFormatSmallArchive(t *testing.T) {
	m := Maxima{FileCount: 10, BlockCount: 10, MaxFileSize: 1024, StringPoolSize: 200}

	f, err := ChooseFormat(m, false)
	require.NoError(t, err)
	assert.Equal(t, FormatV2Preset3NoHash, f)

	m.HashRequired = true
	f, err = ChooseFormat(m, false)
	require.NoError(t, err)
	assert.Equal(t, FormatV2Preset3Hash, f)
}

func TestChooseFormatSolidBlocksRuleOutPreset3(t *testing.T) {
	m := Maxima{FileCount: 10, BlockCount: 2, MaxFileSize: 1024, MaxBlockOffset: 1024, StringPoolSize: 200, HasSolidBlocks: true}

	f, err := ChooseFormat(m, false)
	require.NoError(t, err)
	assert.Equal(t, FormatV2Preset1, f)

	m.HashRequired = true
	f, err = ChooseFormat(m, false)
	require.NoError(t, err)
	assert.Equal(t, FormatV2Preset0, f)
}

func TestChooseFormatHugeFiles(t *testing.T) {
	// 300 files, max file size 5 GiB, no hashes: file size rules out
	// Preset 0/1/3, so Preset 2 wins.
	m := Maxima{FileCount: 300, BlockCount: 320, MaxFileSize: 5 << 30, StringPoolSize: 4000}

	f, err := ChooseFormat(m, false)
	require.NoError(t, err)
	assert.Equal(t, FormatV2Preset2, f)

	// The legacy V0 width cannot hold a 5 GiB file.
	legacy, err := ChooseLegacyFormat(m)
	require.NoError(t, err)
	assert.Equal(t, FormatV1, legacy)

	_, err = Pack(FormatV0, []FileEntry{{DecompressedSize: 5 << 30}}, []BlockEntry{{CompressedSize: 1}}, []string{"a"}, bitpack.Fef64Fields{}, 3, nil)
	assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)
}

func TestChooseFormatFlexible(t *testing.T) {
	// A SOLID member at offset 2^24 overflows the fixed presets' 24-bit
	// offset budget; only FEF64 can index it.
	m := Maxima{FileCount: 10, BlockCount: 2, MaxFileSize: 1024, MaxBlockOffset: 1 << 24, StringPoolSize: 200, HasSolidBlocks: true}

	_, err := ChooseFormat(m, false)
	assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)

	f, err := ChooseFormat(m, true)
	require.NoError(t, err)
	assert.Equal(t, FormatV2FEF64_8, f)

	fields, ok := Fef64FieldsFor(m)
	require.True(t, ok)
	assert.Equal(t, uint8(1), fields.BlockCountBits)
	assert.Equal(t, uint8(4), fields.FileCountBits)
	assert.Equal(t, uint8(25), fields.DecompressedBlockOffsetBits)
}

func TestChooseFormatPreferredOverFlexible(t *testing.T) {
	// A manifest a fixed preset covers stays on the fixed preset even with
	// the flexible layouts enabled: Preset 1 precedes FEF64 in the
	// preference order.
	m := Maxima{FileCount: 10, BlockCount: 2, MaxFileSize: 1024, MaxBlockOffset: 1024, StringPoolSize: 200, HasSolidBlocks: true}

	f, err := ChooseFormat(m, true)
	require.NoError(t, err)
	assert.Equal(t, FormatV2Preset1, f)
}

func TestChooseFormatExceedsEverything(t *testing.T) {
	m := Maxima{FileCount: 1 << 21, BlockCount: 1 << 23, MaxFileSize: 1 << 40, StringPoolSize: 1 << 25}

	_, err := ChooseFormat(m, false)
	assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)

	_, err = ChooseLegacyFormat(m)
	assert.ErrorIs(t, err, errs.ErrFormatLimitExceeded)
}
