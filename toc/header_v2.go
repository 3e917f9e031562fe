package toc

// v2CommonHeader is the shared bit layout for V2 Preset 0/1/2:
// file_count(18, low) · block_count(22) · string_pool_size(21) ·
// preset(2) · is_flexible(1, high).
type v2CommonHeader struct {
	FileCount      uint32
	BlockCount     uint32
	StringPoolSize uint32
	Preset         Preset
}

const (
	v2FileCountBits      = 18
	v2BlockCountBits     = 22
	v2StringPoolBits     = 21
	v2PresetBits         = 2
	v2FileCountShift     = 0
	v2BlockCountShift    = v2FileCountShift + v2FileCountBits   // 18
	v2StringPoolShift    = v2BlockCountShift + v2BlockCountBits // 40
	v2PresetShift        = v2StringPoolShift + v2StringPoolBits // 61
	v2IsFlexibleShift    = v2PresetShift + v2PresetBits         // 63
	v2FileCountMask      = (1 << v2FileCountBits) - 1
	v2BlockCountMask     = (1 << v2BlockCountBits) - 1
	v2StringPoolSizeMask = (1 << v2StringPoolBits) - 1
	v2PresetMask         = (1 << v2PresetBits) - 1
)

func packV2CommonHeader(h v2CommonHeader) uint64 {
	raw := (uint64(h.FileCount) & v2FileCountMask) << v2FileCountShift
	raw |= (uint64(h.BlockCount) & v2BlockCountMask) << v2BlockCountShift
	raw |= (uint64(h.StringPoolSize) & v2StringPoolSizeMask) << v2StringPoolShift
	raw |= (uint64(h.Preset) & v2PresetMask) << v2PresetShift
	// is_flexible stays 0 for preset headers.
	return raw
}

func unpackV2CommonHeader(raw uint64) v2CommonHeader {
	return v2CommonHeader{
		FileCount:      uint32((raw >> v2FileCountShift) & v2FileCountMask),
		BlockCount:     uint32((raw >> v2BlockCountShift) & v2BlockCountMask),
		StringPoolSize: uint32((raw >> v2StringPoolShift) & v2StringPoolSizeMask),
		Preset:         Preset((raw >> v2PresetShift) & v2PresetMask),
	}
}

// v2Preset3Header is Preset 3's own layout: padding(8, low) ·
// file_count(16) · block_count(16) · string_pool_size(20) · has_hash(1) ·
// preset(2, =3) · is_flexible(1, high).
type v2Preset3Header struct {
	FileCount      uint32
	BlockCount     uint32
	StringPoolSize uint32
	HasHash        bool
}

const (
	p3PaddingBits        = 8
	p3FileCountBits      = 16
	p3BlockCountBits     = 16
	p3StringPoolBits     = 20
	p3FileCountShift     = p3PaddingBits                        // 8
	p3BlockCountShift    = p3FileCountShift + p3FileCountBits   // 24
	p3StringPoolShift    = p3BlockCountShift + p3BlockCountBits // 40
	p3HasHashShift       = p3StringPoolShift + p3StringPoolBits // 60
	p3PresetShift        = p3HasHashShift + 1                   // 61
	p3FileCountMask      = (1 << p3FileCountBits) - 1
	p3BlockCountMask     = (1 << p3BlockCountBits) - 1
	p3StringPoolSizeMask = (1 << p3StringPoolBits) - 1
)

func packV2Preset3Header(h v2Preset3Header) uint64 {
	raw := (uint64(h.FileCount) & p3FileCountMask) << p3FileCountShift
	raw |= (uint64(h.BlockCount) & p3BlockCountMask) << p3BlockCountShift
	raw |= (uint64(h.StringPoolSize) & p3StringPoolSizeMask) << p3StringPoolShift
	if h.HasHash {
		raw |= 1 << p3HasHashShift
	}
	raw |= uint64(Preset3) << p3PresetShift

	return raw
}

func unpackV2Preset3Header(raw uint64) v2Preset3Header {
	return v2Preset3Header{
		FileCount:      uint32((raw >> p3FileCountShift) & p3FileCountMask),
		BlockCount:     uint32((raw >> p3BlockCountShift) & p3BlockCountMask),
		StringPoolSize: uint32((raw >> p3StringPoolShift) & p3StringPoolSizeMask),
		HasHash:        (raw>>p3HasHashShift)&1 == 1,
	}
}

// v2BlockEntryBits is the V2 block entry layout: u32,
// compression(2, low) · compressed_block_size(30, high). One more size bit
// than V1's block entry, one fewer compression bit; V2 block entries
// cannot represent BZip3 (rejected at pack time by packV2BlockEntry with
// errs.ErrFormatLimitExceeded, see DESIGN.md).
const (
	v2BlockCompressionBits = 2
	v2BlockSizeBits        = 30
	v2BlockSizeShift       = v2BlockCompressionBits
	v2BlockCompressionMask = (1 << v2BlockCompressionBits) - 1
	v2BlockSizeMask        = (1 << v2BlockSizeBits) - 1
)
