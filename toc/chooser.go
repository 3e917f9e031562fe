package toc

import (
	"math/bits"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
)

// Maxima summarizes a manifest's extreme values, the input to the format
// chooser: file_count, block_count, the largest
// single file, the largest decompressed_block_offset any SOLID member
// needs, the packed string pool size, and whether the caller wants hashes
// recorded in the ToC (solid/chunked dedup needs them; a hashless archive
// can save the field).
type Maxima struct {
	FileCount      int
	BlockCount     int
	MaxFileSize    uint64
	MaxBlockOffset uint32
	StringPoolSize int
	HashRequired   bool
	// HasSolidBlocks reports whether any block in the manifest groups more
	// than one file (or places a file at a nonzero offset). Preset 3 cannot
	// represent SOLID groupings at all, since it has no decompressed_block_offset
	// field, so a manifest with any grouping rules it out regardless of the
	// other maxima.
	HasSolidBlocks bool
}

// formatLimits is one row of the selection table: the count and size
// bounds a manifest must stay within for the row's format. Count bounds
// are inclusive; maxFileSize is exclusive with 0 meaning the full u64
// range. Flexible rows have no static bounds and fit whenever a 64-bit
// split covers the manifest.
type formatLimits struct {
	format      Format
	hasHash     bool
	flexible    bool
	noSolid     bool // Preset 3: no decompressed_block_offset field
	maxFiles    int
	maxBlocks   int
	maxFileSize uint64
	offsetBits  uint8
	maxPool     int
}

// formatTable orders the candidate layouts smallest entry first within the
// preference order: Preset 3 no-hash, Preset 3, Preset 1, FEF64-8,
// Preset 0, Preset 2, FEF64-16. The first row whose limits cover every
// manifest maximum wins.
var formatTable = []formatLimits{
	{format: FormatV2Preset3NoHash, noSolid: true, maxFiles: maxFileCountV2P3, maxBlocks: maxBlockCountV2P3, maxFileSize: maxFileSizeV0, maxPool: maxStringPoolSizeV2P3},
	{format: FormatV2Preset3Hash, hasHash: true, noSolid: true, maxFiles: maxFileCountV2P3, maxBlocks: maxBlockCountV2P3, maxFileSize: maxFileSizeV0, maxPool: maxStringPoolSizeV2P3},
	{format: FormatV2Preset1, maxFiles: maxFileCountV2P012, maxBlocks: maxBlockCountV2P012, maxFileSize: maxFileSizeV0, offsetBits: 24, maxPool: maxStringPoolSizeV2P012},
	{format: FormatV2FEF64_8, flexible: true},
	{format: FormatV2Preset0, hasHash: true, maxFiles: maxFileCountV2P012, maxBlocks: maxBlockCountV2P012, maxFileSize: maxFileSizeV0, offsetBits: 24, maxPool: maxStringPoolSizeV2P012},
	{format: FormatV2Preset2, hasHash: true, maxFiles: maxFileCountV2P012, maxBlocks: maxBlockCountV2P012, offsetBits: 24, maxPool: maxStringPoolSizeV2P012},
	{format: FormatV2FEF64_16, hasHash: true, flexible: true},
}

// legacyTable covers the two V1-family entry widths for callers that need
// legacy-compatible output.
var legacyTable = []formatLimits{
	{format: FormatV0, hasHash: true, maxFiles: maxFileCountV1, maxBlocks: maxBlockCountV1, maxFileSize: maxFileSizeV0, offsetBits: 26, maxPool: maxStringPoolSizeV1},
	{format: FormatV1, hasHash: true, maxFiles: maxFileCountV1, maxBlocks: maxBlockCountV1, offsetBits: 26, maxPool: maxStringPoolSizeV1},
}

func (row formatLimits) fits(m Maxima) bool {
	if row.flexible {
		_, ok := chooseFef64Fields(m)

		return ok
	}
	if row.noSolid {
		if m.HasSolidBlocks || m.MaxBlockOffset != 0 {
			return false
		}
	} else if !fitsInBits(uint64(m.MaxBlockOffset), row.offsetBits) {
		return false
	}
	if row.maxFileSize != 0 && m.MaxFileSize >= row.maxFileSize {
		return false
	}

	return m.FileCount <= row.maxFiles &&
		m.BlockCount <= row.maxBlocks &&
		m.StringPoolSize <= row.maxPool
}

// bitsForCount returns the bits needed to index values 0..n-1.
func bitsForCount(n int) uint8 {
	if n <= 1 {
		return 0
	}

	return uint8(bits.Len(uint(n - 1)))
}

// bitsForValue returns the bits needed to represent v itself (0..v).
func bitsForValue(v uint64) uint8 {
	return uint8(bits.Len64(v))
}

func fitsInBits(v uint64, width uint8) bool {
	if width >= 64 {
		return true
	}

	return v < (uint64(1) << width)
}

// chooseFef64Fields derives the minimal bit-width parameters for a FEF64
// archive covering m, returning false if no split of 64 bits covers the
// manifest (e.g. MaxFileSize alone needs more than 64 bits, impossible).
func chooseFef64Fields(m Maxima) (bitpack.Fef64Fields, bool) {
	b := bitsForCount(m.BlockCount)
	f := bitsForCount(m.FileCount)
	o := bitsForValue(uint64(m.MaxBlockOffset))
	used := int(b) + int(f) + int(o)
	if used >= 64 {
		return bitpack.Fef64Fields{}, false
	}

	remaining := uint8(64 - used)
	if !fitsInBits(m.MaxFileSize, remaining) {
		return bitpack.Fef64Fields{}, false
	}

	return bitpack.NewFef64Fields(b, f, o), true
}

// ChooseFormat walks the selection table and returns the first format
// whose limits cover every manifest maximum. Rows without a hash field are
// skipped when the manifest requires hashes.
//
// allowFlexible gates FEF64 out of the default search. A manifest of a few
// hundred files with one 5 GiB member should land on Preset 2, but a
// literal reading of the preference order would let an appropriately-sized
// FEF64-8 satisfy it first (FEF64 places no fixed 4 GiB ceiling on file
// size the way Preset 1 does). Nx resolves this by treating FEF64 as an
// opt-in format: the default ChooseFormat(m, false) only ever returns a
// fixed-width preset, and a caller that wants the flexible layout's extra
// density passes allowFlexible=true explicitly. See DESIGN.md.
func ChooseFormat(m Maxima, allowFlexible bool) (Format, error) {
	for _, row := range formatTable {
		if m.HashRequired && !row.hasHash {
			continue
		}
		if row.flexible && !allowFlexible {
			continue
		}
		if row.fits(m) {
			return row.format, nil
		}
	}

	return 0, errs.ErrFormatLimitExceeded
}

// ChooseLegacyFormat selects between the two V1 entry widths (V0/V1) for
// callers that explicitly need legacy-compatible output; it is never
// consulted by the default ChooseFormat (see that function's doc comment).
func ChooseLegacyFormat(m Maxima) (Format, error) {
	for _, row := range legacyTable {
		if row.fits(m) {
			return row.format, nil
		}
	}

	return 0, errs.ErrFormatLimitExceeded
}

// Fef64FieldsFor re-derives the bit-width parameters ChooseFormat used,
// for callers (the driver) that need them again after selection.
func Fef64FieldsFor(m Maxima) (bitpack.Fef64Fields, bool) {
	return chooseFef64Fields(m)
}
