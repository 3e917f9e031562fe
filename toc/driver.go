package toc

import (
	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/stringpool"
)

// CalculateTocSize returns the serialized size of a ToC with the given
// shape: header, entry array, block array, and the compressed string pool
// payload. The dictionary appendix, when present, follows this region and
// is not included.
func CalculateTocSize(f Format, stringPoolSize, blockCount, fileCount int) int {
	header := HeaderSize
	if f.IsFEF64() {
		header = Fef64HeaderSize
	}

	return header + fileCount*f.EntryBytes() + blockCount*blockEntrySize + stringPoolSize
}

// entryBudget is the per-format bit budget the driver validates entries
// against before serialization. Setters mask silently; the driver is
// the bounds check in front of them.
type entryBudget struct {
	maxOffset    uint64 // exclusive
	maxPathIndex uint64 // exclusive
	maxBlockIdx  uint64 // exclusive
	maxFileSize  uint64 // exclusive; 0 means the full u64 range
	noOffset     bool   // Preset 3: offset must be zero
}

func budgetFor(f Format, fields bitpack.Fef64Fields) entryBudget {
	switch f {
	case FormatV0:
		return entryBudget{1 << 26, 1 << 20, 1 << 18, 1 << 32, false}
	case FormatV1:
		return entryBudget{1 << 26, 1 << 20, 1 << 18, 0, false}
	case FormatV2Preset0, FormatV2Preset1:
		return entryBudget{1 << 24, 1 << 18, 1 << 22, 1 << 32, false}
	case FormatV2Preset2:
		return entryBudget{1 << 24, 1 << 18, 1 << 22, 0, false}
	case FormatV2Preset3Hash, FormatV2Preset3NoHash:
		return entryBudget{1, 1 << 16, 1 << 16, 1 << 32, true}
	case FormatV2FEF64_8, FormatV2FEF64_16:
		b := entryBudget{
			maxOffset:    maskBound(fields.DecompressedBlockOffsetBits),
			maxPathIndex: maskBound(fields.FileCountBits),
			maxBlockIdx:  maskBound(fields.BlockCountBits),
		}
		if fields.DecompressedSizeBits < 64 {
			b.maxFileSize = uint64(1) << fields.DecompressedSizeBits
		}

		return b
	default:
		return entryBudget{}
	}
}

func maskBound(bits uint8) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}

	return uint64(1) << bits
}

func validateEntries(entries []FileEntry, blockCount int, b entryBudget) error {
	for i := range entries {
		e := &entries[i]
		if e.FilePathIndex >= uint32(len(entries)) || uint64(e.FilePathIndex) >= b.maxPathIndex {
			return errs.ErrFormatLimitExceeded
		}
		if e.FirstBlockIndex >= uint32(blockCount) || uint64(e.FirstBlockIndex) >= b.maxBlockIdx {
			return errs.ErrFormatLimitExceeded
		}
		if b.noOffset {
			if e.DecompressedBlockOffset != 0 {
				return errs.ErrFormatLimitExceeded
			}
		} else if uint64(e.DecompressedBlockOffset) >= b.maxOffset {
			return errs.ErrFormatLimitExceeded
		}
		if b.maxFileSize != 0 && e.DecompressedSize >= b.maxFileSize {
			return errs.ErrFormatLimitExceeded
		}
	}

	return nil
}

// headerBudget is the per-format capacity of the header's count fields.
type headerBudget struct {
	maxFiles  int
	maxBlocks int
	maxPool   int
}

func headerBudgetFor(f Format) headerBudget {
	switch f {
	case FormatV0, FormatV1:
		return headerBudget{maxFileCountV1, maxBlockCountV1, maxStringPoolSizeV1}
	case FormatV2Preset0, FormatV2Preset1, FormatV2Preset2:
		return headerBudget{maxFileCountV2P012, maxBlockCountV2P012, maxStringPoolSizeV2P012}
	case FormatV2Preset3Hash, FormatV2Preset3NoHash:
		return headerBudget{maxFileCountV2P3, maxBlockCountV2P3, maxStringPoolSizeV2P3}
	case FormatV2FEF64_8, FormatV2FEF64_16:
		// FEF64's counts word reuses the V1 header field widths.
		return headerBudget{maxFileCountV1, maxBlockCountV1, maxStringPoolSizeV1}
	default:
		return headerBudget{}
	}
}

func validateBlocks(f Format, blocks []BlockEntry) error {
	sizeBits := uint32(v2BlockSizeBits)
	if f == FormatV0 || f == FormatV1 {
		sizeBits = v1BlockSizeBits
	}
	bound := uint32(1) << sizeBits
	for i := range blocks {
		if blocks[i].CompressedSize >= bound {
			return errs.ErrFormatLimitExceeded
		}
	}

	return nil
}

// Pack serializes a complete ToC: header, entry array, block array, the
// ZStandard-compressed string pool, and (optionally) a verbatim dictionary
// appendix. paths must already be sorted lexicographically and entries'
// FilePathIndex values must index into that order; every value is validated
// against f's bit budgets before a single byte is written.
func Pack(f Format, entries []FileEntry, blocks []BlockEntry, paths []string, fields bitpack.Fef64Fields, poolLevel int, dictionary []byte) ([]byte, error) {
	if len(entries) != len(paths) {
		return nil, errs.ErrFormatLimitExceeded
	}
	if err := validateEntries(entries, len(blocks), budgetFor(f, fields)); err != nil {
		return nil, err
	}
	if err := validateBlocks(f, blocks); err != nil {
		return nil, err
	}

	pool, err := stringpool.Pack(paths, true, poolLevel)
	if err != nil {
		return nil, err
	}

	hb := headerBudgetFor(f)
	if len(entries) >= hb.maxFiles || len(blocks) >= hb.maxBlocks || len(pool) >= hb.maxPool {
		return nil, errs.ErrFormatLimitExceeded
	}

	size := CalculateTocSize(f, len(pool), len(blocks), len(entries))
	out := make([]byte, size, size+len(dictionary))

	headerLen, err := writeHeader(out, f, fields, len(entries), len(blocks), len(pool))
	if err != nil {
		return nil, err
	}

	entriesEnd := headerLen + len(entries)*f.EntryBytes()
	if err := writeEntries(out[headerLen:entriesEnd], f, entries, fields); err != nil {
		return nil, err
	}

	blocksEnd := entriesEnd + len(blocks)*blockEntrySize
	if f.IsV2() {
		if err := writeV2BlockEntries(out[entriesEnd:blocksEnd], blocks); err != nil {
			return nil, err
		}
	} else {
		writeV1BlockEntries(out[entriesEnd:blocksEnd], blocks)
	}

	copy(out[blocksEnd:], pool)
	out = append(out, dictionary...)

	return out, nil
}

func writeHeader(dst []byte, f Format, fields bitpack.Fef64Fields, fileCount, blockCount, poolSize int) (int, error) {
	switch f {
	case FormatV0, FormatV1:
		version := VersionV0
		if f == FormatV1 {
			version = VersionV1
		}
		writeHeaderBytes(dst, packNativeTocHeader(nativeTocHeader{
			FileCount:      uint32(fileCount),
			BlockCount:     uint32(blockCount),
			StringPoolSize: uint32(poolSize),
			Version:        version,
		}))

		return HeaderSize, nil
	case FormatV2Preset0, FormatV2Preset1, FormatV2Preset2:
		preset := Preset0
		switch f {
		case FormatV2Preset1:
			preset = Preset1
		case FormatV2Preset2:
			preset = Preset2
		}
		writeHeaderBytes(dst, packV2CommonHeader(v2CommonHeader{
			FileCount:      uint32(fileCount),
			BlockCount:     uint32(blockCount),
			StringPoolSize: uint32(poolSize),
			Preset:         preset,
		}))

		return HeaderSize, nil
	case FormatV2Preset3Hash, FormatV2Preset3NoHash:
		writeHeaderBytes(dst, packV2Preset3Header(v2Preset3Header{
			FileCount:      uint32(fileCount),
			BlockCount:     uint32(blockCount),
			StringPoolSize: uint32(poolSize),
			HasHash:        f == FormatV2Preset3Hash,
		}))

		return HeaderSize, nil
	case FormatV2FEF64_8, FormatV2FEF64_16:
		header := PackFef64Header(Fef64Header{
			Fields:         fields,
			HasHash:        f == FormatV2FEF64_16,
			FileCount:      uint32(fileCount),
			BlockCount:     uint32(blockCount),
			StringPoolSize: uint32(poolSize),
		})
		copy(dst, header)

		return Fef64HeaderSize, nil
	default:
		return 0, errs.ErrUnsupportedTocVersion
	}
}

func writeEntries(dst []byte, f Format, entries []FileEntry, fields bitpack.Fef64Fields) error {
	switch f {
	case FormatV0:
		return writeV0Entries(dst, entries)
	case FormatV1:
		return writeV1Entries(dst, entries)
	case FormatV2Preset0:
		return writePreset0Entries(dst, entries)
	case FormatV2Preset1:
		return writePreset1Entries(dst, entries)
	case FormatV2Preset2:
		return writePreset2Entries(dst, entries)
	case FormatV2Preset3Hash:
		return writePreset3Entries(dst, entries, true)
	case FormatV2Preset3NoHash:
		return writePreset3Entries(dst, entries, false)
	case FormatV2FEF64_8:
		return writeFef64Entries8(dst, entries, fields)
	case FormatV2FEF64_16:
		return writeFef64Entries16(dst, entries, fields)
	default:
		return errs.ErrUnsupportedTocVersion
	}
}

// Unpack deserializes a ToC from data's leading bytes. The caller names
// which header family to expect: VersionV0/VersionV1 both select the V1
// legacy header (whose own version field then picks the entry width), and
// VersionV2 selects the V2 family, where the header's top bits distinguish
// flexible from preset mode. The two families cannot be told apart from the
// header word alone (a V1 version-0 header and a V2 preset-0/1 header share
// the same top-bit pattern), so the outer archive framing must record which
// one was written; see DESIGN.md "header discriminator".
//
// Unpack returns the number of bytes consumed so the caller can locate the
// block payload (or dictionary appendix) that follows. Trailing bytes
// beyond the ToC are ignored.
func Unpack(data []byte, v Version) (*TableOfContents, int, error) {
	switch v {
	case VersionV0, VersionV1:
		return unpackV1Family(data)
	case VersionV2:
		return unpackV2Family(data)
	default:
		return nil, 0, errs.ErrUnsupportedTocVersion
	}
}

// TocSizeFromHeader computes the full serialized ToC size from its leading
// header bytes alone, so a caller reading from a provider can fetch the
// header first and then exactly the ToC region, without loading the block
// payload that follows.
func TocSizeFromHeader(data []byte, v Version) (int, error) {
	raw, err := readHeaderRaw(data)
	if err != nil {
		return 0, err
	}

	switch v {
	case VersionV0, VersionV1:
		header := unpackNativeTocHeader(raw)
		var f Format
		switch header.Version {
		case VersionV0:
			f = FormatV0
		case VersionV1:
			f = FormatV1
		default:
			return 0, errs.ErrUnsupportedTocVersion
		}

		return CalculateTocSize(f, int(header.StringPoolSize), int(header.BlockCount), int(header.FileCount)), nil
	case VersionV2:
		if isFef64Header(raw) {
			header, err := UnpackFef64Header(data)
			if err != nil {
				return 0, err
			}
			f := FormatV2FEF64_8
			if header.HasHash {
				f = FormatV2FEF64_16
			}

			return CalculateTocSize(f, int(header.StringPoolSize), int(header.BlockCount), int(header.FileCount)), nil
		}

		common := unpackV2CommonHeader(raw)
		switch common.Preset {
		case Preset0, Preset1, Preset2:
			f := FormatV2Preset0
			switch common.Preset {
			case Preset1:
				f = FormatV2Preset1
			case Preset2:
				f = FormatV2Preset2
			}

			return CalculateTocSize(f, int(common.StringPoolSize), int(common.BlockCount), int(common.FileCount)), nil
		default:
			p3 := unpackV2Preset3Header(raw)
			f := FormatV2Preset3NoHash
			if p3.HasHash {
				f = FormatV2Preset3Hash
			}

			return CalculateTocSize(f, int(p3.StringPoolSize), int(p3.BlockCount), int(p3.FileCount)), nil
		}
	default:
		return 0, errs.ErrUnsupportedTocVersion
	}
}

// UnpackWithDictionary is Unpack for callers that hand over exactly the ToC
// region: every byte past the ToC proper is preserved verbatim as the
// dictionary appendix (Open Question decision #3, DESIGN.md).
func UnpackWithDictionary(data []byte, v Version) (*TableOfContents, error) {
	t, consumed, err := Unpack(data, v)
	if err != nil {
		return nil, err
	}
	if consumed < len(data) {
		t.DictionaryBytes = append([]byte(nil), data[consumed:]...)
	}

	return t, nil
}

func unpackV1Family(data []byte) (*TableOfContents, int, error) {
	raw, err := readHeaderRaw(data)
	if err != nil {
		return nil, 0, err
	}

	header := unpackNativeTocHeader(raw)
	var f Format
	switch header.Version {
	case VersionV0:
		f = FormatV0
	case VersionV1:
		f = FormatV1
	default:
		return nil, 0, errs.ErrUnsupportedTocVersion
	}

	return unpackBody(data, f, bitpack.Fef64Fields{}, int(header.FileCount), int(header.BlockCount), int(header.StringPoolSize))
}

func unpackV2Family(data []byte) (*TableOfContents, int, error) {
	raw, err := readHeaderRaw(data)
	if err != nil {
		return nil, 0, err
	}

	if isFef64Header(raw) {
		header, err := UnpackFef64Header(data)
		if err != nil {
			return nil, 0, err
		}
		f := FormatV2FEF64_8
		if header.HasHash {
			f = FormatV2FEF64_16
		}

		return unpackBody(data, f, header.Fields, int(header.FileCount), int(header.BlockCount), int(header.StringPoolSize))
	}

	common := unpackV2CommonHeader(raw)
	switch common.Preset {
	case Preset0, Preset1, Preset2:
		f := FormatV2Preset0
		switch common.Preset {
		case Preset1:
			f = FormatV2Preset1
		case Preset2:
			f = FormatV2Preset2
		}

		return unpackBody(data, f, bitpack.Fef64Fields{}, int(common.FileCount), int(common.BlockCount), int(common.StringPoolSize))
	default: // Preset3
		p3 := unpackV2Preset3Header(raw)
		f := FormatV2Preset3NoHash
		if p3.HasHash {
			f = FormatV2Preset3Hash
		}

		return unpackBody(data, f, bitpack.Fef64Fields{}, int(p3.FileCount), int(p3.BlockCount), int(p3.StringPoolSize))
	}
}

func unpackBody(data []byte, f Format, fields bitpack.Fef64Fields, fileCount, blockCount, poolSize int) (*TableOfContents, int, error) {
	consumed := CalculateTocSize(f, poolSize, blockCount, fileCount)
	if len(data) < consumed {
		return nil, 0, errs.NewInsufficientData(len(data), consumed)
	}

	headerLen := HeaderSize
	if f.IsFEF64() {
		headerLen = Fef64HeaderSize
	}

	entriesEnd := headerLen + fileCount*f.EntryBytes()
	entries, err := readEntries(data[headerLen:entriesEnd], f, fileCount, fields)
	if err != nil {
		return nil, 0, err
	}

	blocksEnd := entriesEnd + blockCount*blockEntrySize
	var blocks []BlockEntry
	if f.IsV2() {
		blocks, err = readV2BlockEntries(data[entriesEnd:blocksEnd], blockCount)
	} else {
		blocks, err = readV1BlockEntries(data[entriesEnd:blocksEnd], blockCount)
	}
	if err != nil {
		return nil, 0, err
	}

	pool, err := stringpool.UnpackIndexed(data[blocksEnd:consumed], fileCount)
	if err != nil {
		return nil, 0, err
	}

	for i := range entries {
		if entries[i].FilePathIndex >= uint32(fileCount) || entries[i].FirstBlockIndex >= uint32(blockCount) {
			return nil, 0, errs.ErrMalformedToc
		}
	}

	t := &TableOfContents{
		Format:  f,
		Version: versionOf(f),
		Preset:  presetOf(f),
		Entries: entries,
		Blocks:  blocks,
		Paths:   pool.Iter(),
	}
	if f.IsFEF64() {
		t.Fef64Fields = fields
	}

	return t, consumed, nil
}

func readEntries(data []byte, f Format, count int, fields bitpack.Fef64Fields) ([]FileEntry, error) {
	switch f {
	case FormatV0:
		return readV0Entries(data, count)
	case FormatV1:
		return readV1Entries(data, count)
	case FormatV2Preset0:
		return readPreset0Entries(data, count)
	case FormatV2Preset1:
		return readPreset1Entries(data, count)
	case FormatV2Preset2:
		return readPreset2Entries(data, count)
	case FormatV2Preset3Hash:
		return readPreset3Entries(data, count, true)
	case FormatV2Preset3NoHash:
		return readPreset3Entries(data, count, false)
	case FormatV2FEF64_8:
		return readFef64Entries8(data, count, fields)
	case FormatV2FEF64_16:
		return readFef64Entries16(data, count, fields)
	default:
		return nil, errs.ErrUnsupportedTocVersion
	}
}

func versionOf(f Format) Version {
	switch f {
	case FormatV0:
		return VersionV0
	case FormatV1:
		return VersionV1
	default:
		return VersionV2
	}
}

func presetOf(f Format) Preset {
	switch f {
	case FormatV2Preset1:
		return Preset1
	case FormatV2Preset2:
		return Preset2
	case FormatV2Preset3Hash, FormatV2Preset3NoHash:
		return Preset3
	default:
		return Preset0
	}
}
