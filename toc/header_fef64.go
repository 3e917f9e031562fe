package toc

import (
	"encoding/binary"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/errs"
)

// Fef64HeaderSize is FEF64's on-disk header size. Every other Nx layout
// fits its file_count/block_count/string_pool_size maxima inside one
// 8-byte word alongside its format tag; FEF64's caller-chosen bit budgets
// leave no room left in a single word for the archive's actual counts, so
// Nx spends a second control word on them, a deliberate deviation from
// the single-word header every other layout uses, recorded in DESIGN.md.
const Fef64HeaderSize = 16

const (
	fef64IsFlexibleShift = 63
	fef64HasHashShift    = 62
	fef64BlockBitsBits   = 5 // width of the "block_count_bits" field itself
	fef64FileBitsBits    = 5
	fef64OffsetBitsBits  = 5
	fef64BlockBitsShift  = fef64HasHashShift - fef64BlockBitsBits     // 57
	fef64FileBitsShift   = fef64BlockBitsShift - fef64FileBitsBits    // 52
	fef64OffsetBitsShift = fef64FileBitsShift - fef64OffsetBitsBits   // 47
	fef64SmallFieldMask  = (1 << 5) - 1
)

// fef64ControlHeader is FEF64's first 8-byte word: the is_flexible marker,
// a has_hash flag (mirroring Preset 3's convention), and the three
// caller-chosen bit-width parameters that bitpack.Fef64Fields derives
// masks and shifts from.
type fef64ControlHeader struct {
	HasHash                     bool
	BlockCountBits              uint8
	FileCountBits               uint8
	DecompressedBlockOffsetBits uint8
}

func packFef64ControlHeader(h fef64ControlHeader) uint64 {
	raw := uint64(1) << fef64IsFlexibleShift
	if h.HasHash {
		raw |= 1 << fef64HasHashShift
	}
	raw |= (uint64(h.BlockCountBits) & fef64SmallFieldMask) << fef64BlockBitsShift
	raw |= (uint64(h.FileCountBits) & fef64SmallFieldMask) << fef64FileBitsShift
	raw |= (uint64(h.DecompressedBlockOffsetBits) & fef64SmallFieldMask) << fef64OffsetBitsShift

	return raw
}

func unpackFef64ControlHeader(raw uint64) fef64ControlHeader {
	return fef64ControlHeader{
		HasHash:                     (raw>>fef64HasHashShift)&1 == 1,
		BlockCountBits:              uint8((raw >> fef64BlockBitsShift) & fef64SmallFieldMask),
		FileCountBits:               uint8((raw >> fef64FileBitsShift) & fef64SmallFieldMask),
		DecompressedBlockOffsetBits: uint8((raw >> fef64OffsetBitsShift) & fef64SmallFieldMask),
	}
}

// isFef64Header reports whether a raw leading header word carries FEF64's
// is_flexible marker bit.
func isFef64Header(raw uint64) bool {
	return raw>>fef64IsFlexibleShift == 1
}

// Fef64Header is the fully decoded FEF64 header: the control word's bit
// budgets plus the counts word's actual file/block/string-pool sizes
// (packed with the same layout as the V1 header in header_v1.go, since
// FEF64's second word has no version field to reclaim).
type Fef64Header struct {
	Fields         bitpack.Fef64Fields
	HasHash        bool
	FileCount      uint32
	BlockCount     uint32
	StringPoolSize uint32
}

// PackFef64Header serializes h as Fef64HeaderSize little-endian bytes.
func PackFef64Header(h Fef64Header) []byte {
	out := make([]byte, Fef64HeaderSize)
	control := packFef64ControlHeader(fef64ControlHeader{
		HasHash:                     h.HasHash,
		BlockCountBits:              h.Fields.BlockCountBits,
		FileCountBits:               h.Fields.FileCountBits,
		DecompressedBlockOffsetBits: h.Fields.DecompressedBlockOffsetBits,
	})
	counts := packNativeTocHeader(nativeTocHeader{
		FileCount:      h.FileCount,
		BlockCount:     h.BlockCount,
		StringPoolSize: h.StringPoolSize,
	})
	binary.LittleEndian.PutUint64(out[0:8], control)
	binary.LittleEndian.PutUint64(out[8:16], counts)

	return out
}

// UnpackFef64Header reads a Fef64Header from its leading Fef64HeaderSize
// bytes.
func UnpackFef64Header(data []byte) (Fef64Header, error) {
	if len(data) < Fef64HeaderSize {
		return Fef64Header{}, errs.NewInsufficientData(len(data), Fef64HeaderSize)
	}

	controlRaw := binary.LittleEndian.Uint64(data[0:8])
	countsRaw := binary.LittleEndian.Uint64(data[8:16])

	control := unpackFef64ControlHeader(controlRaw)
	counts := unpackNativeTocHeader(countsRaw)

	return Fef64Header{
		Fields:         bitpack.NewFef64Fields(control.BlockCountBits, control.FileCountBits, control.DecompressedBlockOffsetBits),
		HasHash:        control.HasHash,
		FileCount:      counts.FileCount,
		BlockCount:     counts.BlockCount,
		StringPoolSize: counts.StringPoolSize,
	}, nil
}
