// Package toc implements the V1 and V2 table-of-contents layouts and the
// driver that chooses between them and serializes/deserializes a complete
// table of contents.
package toc

import (
	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/format"
)

// Version identifies which on-disk ToC layout a header encodes.
type Version uint8

const (
	// VersionV0 is the legacy 20-byte-entry layout (u32 decompressed size).
	VersionV0 Version = 0
	// VersionV1 is the legacy 24-byte-entry layout (u64 decompressed size).
	VersionV1 Version = 1
	// VersionV2 covers every V2 preset and FEF64; the top bits of the V2
	// header distinguish preset/flexible mode, so VersionV2 is a single
	// dispatch value for the driver, not a distinct on-disk version field.
	VersionV2 Version = 2
)

// FileEntry is the decoded, in-memory representation of one file's ToC
// entry, independent of which on-disk layout produced it.
type FileEntry struct {
	Hash                    uint64
	DecompressedSize        uint64
	DecompressedBlockOffset uint32
	FilePathIndex           uint32
	FirstBlockIndex         uint32
}

// BlockEntry is the decoded, in-memory representation of one block's ToC
// entry.
type BlockEntry struct {
	CompressedSize uint32
	Compression    format.CompressionKind
}

// TableOfContents is the fully assembled, decoded table of contents: every
// file entry, every block entry, the unpacked string pool, and (for V2
// archives that carry one) the raw dictionary section bytes, preserved
// uninterpreted.
type TableOfContents struct {
	Format  Format
	Version Version
	Preset  Preset
	Entries []FileEntry
	Blocks  []BlockEntry
	Paths   []string
	// Fef64Fields is populated only when Format is a FEF64 variant; it
	// carries the archive's runtime-chosen bit budgets so a re-pack can
	// reuse them for a byte-identical round trip.
	Fef64Fields bitpack.Fef64Fields
	// DictionaryBytes carries a V2 archive's optional dictionary section
	// verbatim; Nx does not interpret its contents (see DESIGN.md Open
	// Question decisions).
	DictionaryBytes []byte
}
