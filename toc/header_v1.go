package toc

import (
	"encoding/binary"

	"github.com/nxfmt/nx/errs"
)

// HeaderSize is the fixed on-disk size of every Nx ToC header, V1 or V2,
// except FEF64's (Fef64HeaderSize).
const HeaderSize = 8

// nativeTocHeader is the V1 header bit layout: file_count(20, low) ·
// block_count(18) · string_pool_size(24) · version(2, high), one
// little-endian u64.
type nativeTocHeader struct {
	FileCount      uint32
	BlockCount     uint32
	StringPoolSize uint32
	Version        Version
}

const (
	v1FileCountBits      = 20
	v1BlockCountBits     = 18
	v1StringPoolBits     = 24
	v1VersionBits        = 2
	v1FileCountShift     = 0
	v1BlockCountShift    = v1FileCountShift + v1FileCountBits   // 20
	v1StringPoolShift    = v1BlockCountShift + v1BlockCountBits // 38
	v1VersionShift       = v1StringPoolShift + v1StringPoolBits // 62
	v1FileCountMask      = (1 << v1FileCountBits) - 1
	v1BlockCountMask     = (1 << v1BlockCountBits) - 1
	v1StringPoolSizeMask = (1 << v1StringPoolBits) - 1
	v1VersionMask        = (1 << v1VersionBits) - 1
)

// packNativeTocHeader packs h into its 8-byte little-endian wire form.
func packNativeTocHeader(h nativeTocHeader) uint64 {
	raw := (uint64(h.FileCount) & v1FileCountMask) << v1FileCountShift
	raw |= (uint64(h.BlockCount) & v1BlockCountMask) << v1BlockCountShift
	raw |= (uint64(h.StringPoolSize) & v1StringPoolSizeMask) << v1StringPoolShift
	raw |= (uint64(h.Version) & v1VersionMask) << v1VersionShift

	return raw
}

// unpackNativeTocHeader reverses packNativeTocHeader.
func unpackNativeTocHeader(raw uint64) nativeTocHeader {
	return nativeTocHeader{
		FileCount:      uint32((raw >> v1FileCountShift) & v1FileCountMask),
		BlockCount:     uint32((raw >> v1BlockCountShift) & v1BlockCountMask),
		StringPoolSize: uint32((raw >> v1StringPoolShift) & v1StringPoolSizeMask),
		Version:        Version((raw >> v1VersionShift) & v1VersionMask),
	}
}

// writeHeaderBytes writes raw as 8 little-endian bytes into dst, which must
// be at least HeaderSize long.
func writeHeaderBytes(dst []byte, raw uint64) {
	binary.LittleEndian.PutUint64(dst[:HeaderSize], raw)
}

// readHeaderRaw reads the leading 8-byte little-endian header word from
// data, failing if data is too short.
func readHeaderRaw(data []byte) (uint64, error) {
	if len(data) < HeaderSize {
		return 0, errs.NewInsufficientData(len(data), HeaderSize)
	}

	return binary.LittleEndian.Uint64(data[:HeaderSize]), nil
}
