// Package packer ties the Nx subsystems together: it assembles a sorted
// file manifest into SOLID and chunked blocks, compresses them in
// parallel, reconciles duplicates, drives ToC serialization, and
// reads archives back through lazy block decompression.
package packer

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/nxfmt/nx/format"
	"github.com/nxfmt/nx/provider"
)

// File is one manifest entry handed to Pack: where the bytes come from, the
// path they will be stored under, and the per-file solid/compression
// preferences.
type File struct {
	// RelativePath is the archive-internal path, forward-slash separated.
	RelativePath string
	// Size is the file's decompressed size in bytes.
	Size uint64
	// Input supplies the file's bytes.
	Input provider.Input
	// SolidPreference controls SOLID-block eligibility. SolidDefault lets
	// size decide; SolidNever forces chunked blocks.
	SolidPreference format.SolidPreference
	// CompressionPreference picks the block compression. NoPreference
	// resolves to ZStandard.
	CompressionPreference format.CompressionPreference
}

// NewFileFromBytes builds a File over an in-memory payload.
func NewFileFromBytes(relativePath string, data []byte) *File {
	return &File{
		RelativePath: relativePath,
		Size:         uint64(len(data)),
		Input:        provider.FromBytes(data),
	}
}

// extensionOf returns the grouping key for a path: its filename extension,
// lower-cased so "A.PNG" and "b.png" land in the same bucket.
func extensionOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// sortManifest orders files lexicographically by path, the contract that
// makes string pool indices, grouping, and deduplication reproducible. The
// input slice is not modified.
func sortManifest(files []*File) []*File {
	sorted := make([]*File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RelativePath < sorted[j].RelativePath
	})

	return sorted
}
