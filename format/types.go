// Package format defines the wire-level enums shared by every Nx layout:
// the compression kinds recorded in block entries, independent of which ToC
// version or preset wrote them.
package format

// CompressionKind identifies the algorithm used to compress a block.
// Values match the on-disk encoding exactly: Copy=0, ZStandard=1,
// LZ4=2, BZip3=3. V2 block entries only have two compression bits and
// cannot represent BZip3; the toc package rejects it when writing V2 block
// entries.
type CompressionKind uint8

const (
	Copy      CompressionKind = 0
	ZStandard CompressionKind = 1
	LZ4       CompressionKind = 2
	BZip3     CompressionKind = 3
)

func (k CompressionKind) String() string {
	switch k {
	case Copy:
		return "Copy"
	case ZStandard:
		return "ZStandard"
	case LZ4:
		return "LZ4"
	case BZip3:
		return "BZip3"
	default:
		return "Unknown"
	}
}

// SolidPreference expresses a file's eligibility for SOLID-block grouping
// during block assembly.
type SolidPreference uint8

const (
	SolidDefault SolidPreference = iota
	SolidNever
	SolidForced
)

func (p SolidPreference) String() string {
	switch p {
	case SolidDefault:
		return "Default"
	case SolidNever:
		return "NoSolid"
	case SolidForced:
		return "Solid"
	default:
		return "Unknown"
	}
}

// CompressionPreference is a per-file compression request. NoPreference is
// never serialized; it must be resolved to ZStandard at pack time.
type CompressionPreference uint8

const (
	NoPreference CompressionPreference = iota
	PreferCopy
	PreferZStandard
	PreferLZ4
	PreferBZip3
)

// Resolve maps NoPreference to ZStandard and otherwise returns the
// corresponding CompressionKind.
func (p CompressionPreference) Resolve() CompressionKind {
	switch p {
	case PreferCopy:
		return Copy
	case PreferLZ4:
		return LZ4
	case PreferBZip3:
		return BZip3
	case PreferZStandard, NoPreference:
		fallthrough
	default:
		return ZStandard
	}
}
