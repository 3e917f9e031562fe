// Package bitpack implements the fixed and flexible bit-packed tuples that
// every Nx ToC layout embeds inside its file entries: one 64-bit word
// partitioned into named fields, one getter/setter pair per field, masked
// on set so overflow truncates rather than panics. Callers validate bounds
// before calling; these types never fail.
package bitpack

// V1Tuple packs the three fields every V0/V1 legacy file entry carries:
// decompressed_block_offset (26 bits, high), file_path_index (20 bits),
// first_block_index (18 bits, low). All three share one uint64 word.
type V1Tuple uint64

const (
	v1FirstBlockIndexBits   = 18
	v1FilePathIndexBits     = 20
	v1BlockOffsetBits       = 26
	v1FirstBlockIndexShift  = 0
	v1FilePathIndexShift    = v1FirstBlockIndexShift + v1FirstBlockIndexBits // 18
	v1BlockOffsetShift      = v1FilePathIndexShift + v1FilePathIndexBits     // 38
	v1FirstBlockIndexMask   = (1 << v1FirstBlockIndexBits) - 1
	v1FilePathIndexMask     = (1 << v1FilePathIndexBits) - 1
	v1DecompressedBlockMask = (1 << v1BlockOffsetBits) - 1
)

// NewV1Tuple packs the three fields into a V1Tuple, masking each value to
// its field width so an out-of-range caller value truncates instead of
// corrupting neighboring fields.
func NewV1Tuple(decompressedBlockOffset, filePathIndex, firstBlockIndex uint32) V1Tuple {
	var t V1Tuple
	t.SetDecompressedBlockOffset(decompressedBlockOffset)
	t.SetFilePathIndex(filePathIndex)
	t.SetFirstBlockIndex(firstBlockIndex)

	return t
}

// V1TupleFromRaw reinterprets a raw little-endian-decoded uint64 as a
// V1Tuple; no validation is performed.
func V1TupleFromRaw(raw uint64) V1Tuple { return V1Tuple(raw) }

// IntoRaw returns the tuple's underlying uint64 representation.
func (t V1Tuple) IntoRaw() uint64 { return uint64(t) }

// DecompressedBlockOffset returns the 26-bit offset field.
func (t V1Tuple) DecompressedBlockOffset() uint32 {
	return uint32((uint64(t) >> v1BlockOffsetShift) & v1DecompressedBlockMask)
}

// SetDecompressedBlockOffset sets the 26-bit offset field, masking v to 26
// bits first.
func (t *V1Tuple) SetDecompressedBlockOffset(v uint32) {
	masked := uint64(v) & v1DecompressedBlockMask
	*t = V1Tuple((uint64(*t) &^ (uint64(v1DecompressedBlockMask) << v1BlockOffsetShift)) | (masked << v1BlockOffsetShift))
}

// FilePathIndex returns the 20-bit string pool index field.
func (t V1Tuple) FilePathIndex() uint32 {
	return uint32((uint64(t) >> v1FilePathIndexShift) & v1FilePathIndexMask)
}

// SetFilePathIndex sets the 20-bit string pool index field, masking v to 20
// bits first.
func (t *V1Tuple) SetFilePathIndex(v uint32) {
	masked := uint64(v) & v1FilePathIndexMask
	*t = V1Tuple((uint64(*t) &^ (uint64(v1FilePathIndexMask) << v1FilePathIndexShift)) | (masked << v1FilePathIndexShift))
}

// FirstBlockIndex returns the 18-bit first-block index field.
func (t V1Tuple) FirstBlockIndex() uint32 {
	return uint32(uint64(t) & v1FirstBlockIndexMask)
}

// SetFirstBlockIndex sets the 18-bit first-block index field, masking v to
// 18 bits first.
func (t *V1Tuple) SetFirstBlockIndex(v uint32) {
	masked := uint64(v) & v1FirstBlockIndexMask
	*t = V1Tuple((uint64(*t) &^ v1FirstBlockIndexMask) | masked)
}

// CopyTo fans the three packed fields out to caller-owned destinations in
// one pass over the single backing word, avoiding an intermediate struct
// copy.
func (t V1Tuple) CopyTo(decompressedBlockOffset, filePathIndex, firstBlockIndex *uint32) {
	raw := uint64(t)
	*firstBlockIndex = uint32(raw & v1FirstBlockIndexMask)
	*filePathIndex = uint32((raw >> v1FilePathIndexShift) & v1FilePathIndexMask)
	*decompressedBlockOffset = uint32((raw >> v1BlockOffsetShift) & v1DecompressedBlockMask)
}
