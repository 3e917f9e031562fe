package bitpack

// Fef64Fields holds the three caller-chosen bit widths for a Flexible
// Entry Format archive, plus the masks and shifts derived from them. The
// fourth field, decompressed size, gets whatever bits remain out of 64.
// Precomputing masks/shifts once per archive (rather than per entry) is
// what makes FileEntry8/16 accessors cheap.
type Fef64Fields struct {
	BlockCountBits              uint8
	FileCountBits               uint8
	DecompressedBlockOffsetBits uint8
	DecompressedSizeBits        uint8

	blockCountMask              uint64
	fileCountMask               uint64
	decompressedBlockOffsetMask uint64
	decompressedSizeMask        uint64

	fileCountShift               uint32
	decompressedBlockOffsetShift uint32
	decompressedSizeShift        uint32
}

// NewFef64Fields derives all masks and shifts from the three bit-width
// parameters. The caller guarantees blockCountBits+fileCountBits+
// decompressedBlockOffsetBits < 64; the remainder is assigned to
// decompressed size.
func NewFef64Fields(blockCountBits, fileCountBits, decompressedBlockOffsetBits uint8) Fef64Fields {
	usedBits := uint32(decompressedBlockOffsetBits) + uint32(fileCountBits) + uint32(blockCountBits)
	decompressedSizeBits := 64 - usedBits

	return Fef64Fields{
		BlockCountBits:              blockCountBits,
		FileCountBits:               fileCountBits,
		DecompressedBlockOffsetBits: decompressedBlockOffsetBits,
		DecompressedSizeBits:        uint8(decompressedSizeBits),

		blockCountMask:              bitmask(blockCountBits),
		fileCountMask:               bitmask(fileCountBits),
		decompressedBlockOffsetMask: bitmask(decompressedBlockOffsetBits),
		decompressedSizeMask:        bitmask64(decompressedSizeBits),

		fileCountShift:               uint32(blockCountBits),
		decompressedBlockOffsetShift: uint32(blockCountBits) + uint32(fileCountBits),
		decompressedSizeShift:        usedBits,
	}
}

// UsedBits returns the total bits consumed by block/file/offset fields,
// i.e. everything except decompressed size.
func (f Fef64Fields) UsedBits() uint32 {
	return f.decompressedSizeShift
}

func bitmask(bits uint8) uint64 {
	return bitmask64(uint32(bits))
}

func bitmask64(bits uint32) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << bits) - 1
}

// FileEntry8 is an 8-byte FEF64 file entry without a hash: all four
// logical fields packed low-to-high into one uint64 as
// first_block_index | file_path_index | decompressed_block_offset |
// decompressed_size.
type FileEntry8 struct {
	data uint64
}

// NewFileEntry8 packs the four fields according to fields' bit widths,
// masking each to its allotted width.
func NewFileEntry8(fields Fef64Fields, decompressedSize, decompressedBlockOffset, filePathIndex, firstBlockIndex uint64) FileEntry8 {
	data := (decompressedSize&fields.decompressedSizeMask)<<fields.UsedBits() |
		(decompressedBlockOffset&fields.decompressedBlockOffsetMask)<<fields.decompressedBlockOffsetShift |
		(filePathIndex&fields.fileCountMask)<<fields.fileCountShift |
		(firstBlockIndex & fields.blockCountMask)

	return FileEntry8{data: data}
}

// FileEntry8FromRaw reinterprets a raw little-endian-decoded uint64 as a
// FileEntry8.
func FileEntry8FromRaw(raw uint64) FileEntry8 { return FileEntry8{data: raw} }

// ToU64 returns the packed data as a uint64.
func (e FileEntry8) ToU64() uint64 { return e.data }

// DecompressedSize returns the decompressed size field.
func (e FileEntry8) DecompressedSize(fields Fef64Fields) uint64 {
	return (e.data >> fields.UsedBits()) & fields.decompressedSizeMask
}

// DecompressedBlockOffset returns the decompressed block offset field.
func (e FileEntry8) DecompressedBlockOffset(fields Fef64Fields) uint64 {
	return (e.data >> fields.decompressedBlockOffsetShift) & fields.decompressedBlockOffsetMask
}

// FilePathIndex returns the file path index field.
func (e FileEntry8) FilePathIndex(fields Fef64Fields) uint64 {
	return (e.data >> fields.fileCountShift) & fields.fileCountMask
}

// FirstBlockIndex returns the first block index field.
func (e FileEntry8) FirstBlockIndex(fields Fef64Fields) uint64 {
	return e.data & fields.blockCountMask
}

// FileEntry16 is a 16-byte FEF64 file entry carrying a 64-bit content hash
// alongside the same packed uint64 layout as FileEntry8.
type FileEntry16 struct {
	Hash uint64
	data uint64
}

// NewFileEntry16 packs the four fields and stores hash alongside them.
func NewFileEntry16(fields Fef64Fields, hash, decompressedSize, decompressedBlockOffset, filePathIndex, firstBlockIndex uint64) FileEntry16 {
	packed := NewFileEntry8(fields, decompressedSize, decompressedBlockOffset, filePathIndex, firstBlockIndex)

	return FileEntry16{Hash: hash, data: packed.data}
}

// FileEntry16FromRaw reinterprets a raw little-endian-decoded (hash, data)
// pair as a FileEntry16.
func FileEntry16FromRaw(hash, data uint64) FileEntry16 {
	return FileEntry16{Hash: hash, data: data}
}

// Data returns the packed data as a uint64.
func (e FileEntry16) Data() uint64 { return e.data }

// DecompressedSize returns the decompressed size field.
func (e FileEntry16) DecompressedSize(fields Fef64Fields) uint64 {
	return (e.data >> fields.UsedBits()) & fields.decompressedSizeMask
}

// DecompressedBlockOffset returns the decompressed block offset field.
func (e FileEntry16) DecompressedBlockOffset(fields Fef64Fields) uint64 {
	return (e.data >> fields.decompressedBlockOffsetShift) & fields.decompressedBlockOffsetMask
}

// FilePathIndex returns the file path index field.
func (e FileEntry16) FilePathIndex(fields Fef64Fields) uint64 {
	return (e.data >> fields.fileCountShift) & fields.fileCountMask
}

// FirstBlockIndex returns the first block index field.
func (e FileEntry16) FirstBlockIndex(fields Fef64Fields) uint64 {
	return e.data & fields.blockCountMask
}
