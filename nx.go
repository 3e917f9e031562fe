// Package nx implements the Nx archive container format: large collections
// of small files packed into SOLID compressed blocks for ratio, large files
// split into chunked blocks for parallelism, indexed by a compact
// bit-packed table of contents with a ZStandard-compressed string pool.
//
// # Core Features
//
//   - SOLID block grouping: many small files share one compression
//     dictionary context
//   - Chunked blocks for large files, extracted without whole-archive reads
//   - A ToC layout family (legacy V0/V1, V2 presets, flexible FEF64) chosen
//     per archive to minimize index size
//   - Whole-file and chunked deduplication keyed by 64-bit XXH3 hashes
//   - Lazy SOLID block decompression, materialized once and shared across
//     extraction goroutines
//
// # Basic Usage
//
// Packing files into an archive:
//
//	files := []*packer.File{
//	    packer.NewFileFromBytes("textures/rock.dds", rockBytes),
//	    packer.NewFileFromBytes("meshes/rock.nif", meshBytes),
//	}
//	archive, err := nx.Pack(files)
//
// Unpacking everything:
//
//	extracted, err := nx.Unpack(archive)
//	rock := extracted["textures/rock.dds"]
//
// Partial extraction through an Unpacker:
//
//	u, err := nx.Open(archive)
//	for _, entry := range u.Toc().Entries {
//	    fmt.Println(u.Toc().Paths[entry.FilePathIndex], entry.DecompressedSize)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the packer
// package, simplifying the most common use cases. For fine-grained control
// (custom providers, individual ToC layouts, direct block access) use the
// packer, provider, toc, solidblock, and compress packages directly.
package nx

import (
	"github.com/nxfmt/nx/packer"
	"github.com/nxfmt/nx/provider"
)

// Pack builds an archive from the manifest. See packer.Pack.
func Pack(files []*packer.File, opts ...packer.Option) ([]byte, error) {
	return packer.Pack(files, opts...)
}

// Unpack extracts every file of an in-memory archive. See packer.Unpack.
func Unpack(archive []byte, opts ...packer.Option) (map[string][]byte, error) {
	return packer.Unpack(archive, opts...)
}

// Open reads an in-memory archive's table of contents and returns an
// Unpacker for selective extraction.
func Open(archive []byte, opts ...packer.Option) (*packer.Unpacker, error) {
	return packer.NewUnpacker(provider.FromSlice(archive), opts...)
}

// OpenFile memory-maps an archive on disk and returns an Unpacker for
// selective extraction. The caller closes the returned input when done with
// the Unpacker.
func OpenFile(path string, opts ...packer.Option) (*packer.Unpacker, *provider.FileInput, error) {
	input, err := provider.FromFile(path)
	if err != nil {
		return nil, nil, err
	}

	u, err := packer.NewUnpacker(input, opts...)
	if err != nil {
		input.Close()
		return nil, nil, err
	}

	return u, input, nil
}
