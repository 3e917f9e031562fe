package toc

// Preset identifies which V2 fixed-width entry layout a ToC uses.
// It is meaningful only when Format selects a V2 preset format; FEF64
// archives carry their own runtime bit budgets instead (bitpack.Fef64Fields).
type Preset uint8

const (
	Preset0 Preset = 0 // 20B: hash + size(u32) + CommonTuple, general purpose
	Preset1 Preset = 1 // 12B: size(u32) + CommonTuple, no-hash variant
	Preset2 Preset = 2 // 24B: hash + size(u64) + CommonTuple, huge files
	Preset3 Preset = 3 // 16B/8B: size(u32) + path_idx(u16) + block_idx(u16), no SOLID offsets
)

// Format is the concrete on-disk layout chosen by the builder's format
// chooser, or supplied by the caller when unpacking: the outer archive
// framing names which ToC header family follows, so toc.Unpack takes the
// family as an explicit parameter rather than inferring it from header
// bits alone (see DESIGN.md "header discriminator").
type Format uint8

const (
	FormatV0 Format = iota
	FormatV1
	FormatV2Preset0
	FormatV2Preset1
	FormatV2Preset2
	FormatV2Preset3NoHash
	FormatV2Preset3Hash
	FormatV2FEF64_8
	FormatV2FEF64_16
)

// IsV2 reports whether f is any V2 layout (preset or flexible).
func (f Format) IsV2() bool { return f >= FormatV2Preset0 }

// IsFEF64 reports whether f is a flexible-entry-format layout.
func (f Format) IsFEF64() bool { return f == FormatV2FEF64_8 || f == FormatV2FEF64_16 }

// EntryBytes returns the fixed per-entry size in bytes for fixed-width
// formats. FEF64 entry size also depends on whether it carries a hash;
// callers use FormatV2FEF64_8/FormatV2FEF64_16 directly for that.
func (f Format) EntryBytes() int {
	switch f {
	case FormatV0:
		return 20
	case FormatV1:
		return 24
	case FormatV2Preset0:
		return 20
	case FormatV2Preset1:
		return 12
	case FormatV2Preset2:
		return 24
	case FormatV2Preset3Hash:
		return 16
	case FormatV2Preset3NoHash:
		return 8
	case FormatV2FEF64_8:
		return 8
	case FormatV2FEF64_16:
		return 16
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case FormatV0:
		return "V0"
	case FormatV1:
		return "V1"
	case FormatV2Preset0:
		return "V2Preset0"
	case FormatV2Preset1:
		return "V2Preset1"
	case FormatV2Preset2:
		return "V2Preset2"
	case FormatV2Preset3NoHash:
		return "V2Preset3NoHash"
	case FormatV2Preset3Hash:
		return "V2Preset3Hash"
	case FormatV2FEF64_8:
		return "V2FEF64-8"
	case FormatV2FEF64_16:
		return "V2FEF64-16"
	default:
		return "Unknown"
	}
}
