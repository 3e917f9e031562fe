package packer

import (
	"golang.org/x/sync/errgroup"

	"github.com/nxfmt/nx/bitpack"
	"github.com/nxfmt/nx/compress"
	"github.com/nxfmt/nx/dedup"
	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/format"
	"github.com/nxfmt/nx/internal/bufpool"
	"github.com/nxfmt/nx/internal/xxh"
	"github.com/nxfmt/nx/toc"
)

var facade = compress.NewFacade()

// Pack builds a complete Nx archive from the manifest: ToC first, block
// payloads after, as one byte slice. Files are sorted lexicographically,
// grouped and assembled into blocks, compressed in parallel, deduplicated,
// and indexed by the smallest ToC layout that fits.
func Pack(files []*File, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	if !cfg.Legacy {
		for _, f := range files {
			if f.CompressionPreference.Resolve() == format.BZip3 {
				// V2 block entries have no bit pattern for BZip3; refuse
				// rather than silently downgrade (DESIGN.md decision #1).
				return nil, errs.ErrFormatLimitExceeded
			}
		}
	}

	states, closeAll, err := loadManifest(files)
	if err != nil {
		closeAll()
		return nil, err
	}
	defer closeAll()

	solidD := dedup.NewSolidDedup()
	solidD.EnsureCapacity(len(states))
	chunkedD := dedup.NewChunkedDedup()

	plans, entryOrder := assemble(states, cfg, solidD, chunkedD)

	blocks, payloads, err := compressPlans(plans, cfg)
	if err != nil {
		return nil, err
	}

	entries := make([]toc.FileEntry, len(entryOrder))
	paths := make([]string, len(states))
	for _, fs := range states {
		paths[fs.pathIndex] = fs.file.RelativePath
	}
	for i, fs := range entryOrder {
		fs.entry.DecompressedSize = fs.file.Size
		fs.entry.FilePathIndex = fs.pathIndex
		if cfg.WithHashes {
			fs.entry.Hash = fs.hash
		}
		entries[i] = fs.entry
	}

	f, fields, err := chooseFormat(cfg, entries, blocks, paths, plans)
	if err != nil {
		return nil, err
	}

	tocBytes, err := toc.Pack(f, entries, blocks, paths, fields, cfg.PoolLevel, nil)
	if err != nil {
		return nil, err
	}

	total := len(tocBytes)
	for _, p := range payloads {
		total += len(p)
	}

	out := make([]byte, 0, total)
	out = append(out, tocBytes...)
	for _, p := range payloads {
		out = append(out, p...)
	}

	return out, nil
}

// loadManifest sorts the manifest, fetches every file's bytes, and hashes
// them. The returned closer releases the provider handles once the block
// payloads have been compressed.
func loadManifest(files []*File) ([]*fileState, func(), error) {
	sorted := sortManifest(files)

	handles := make([]func() error, 0, len(sorted))
	closeAll := func() {
		for _, close := range handles {
			close()
		}
	}

	states := make([]*fileState, len(sorted))
	for i, f := range sorted {
		handle, err := f.Input.GetFileData(0, f.Size)
		if err != nil {
			return nil, closeAll, err
		}
		handles = append(handles, handle.Close)

		data := handle.Bytes()
		states[i] = &fileState{
			file:      f,
			data:      data,
			hash:      xxh.Sum(data),
			pathIndex: uint32(i),
		}
	}

	return states, closeAll, nil
}

// compressPlans compresses every planned block concurrently and returns the
// block entries and compressed payloads in block-index order.
func compressPlans(plans []*blockPlan, cfg *Config) ([]toc.BlockEntry, [][]byte, error) {
	blocks := make([]toc.BlockEntry, len(plans))
	payloads := make([][]byte, len(plans))

	var group errgroup.Group
	group.SetLimit(cfg.Workers)

	for i, plan := range plans {
		i, plan := i, plan
		group.Go(func() error {
			var buf *bufpool.Buffer
			var payload []byte
			if plan.kind == blockChunk {
				payload = plan.chunkOf.data[plan.chunkOff : plan.chunkOff+uint64(plan.chunkLen)]
			} else {
				buf = bufpool.GetSolidBuffer()
				defer bufpool.PutSolidBuffer(buf)
				payload = plan.solidPayload(buf)
			}

			compressed, usedCopy, err := facade.Compress(plan.compression, cfg.BlockLevel, payload)
			if err != nil {
				return err
			}
			if len(compressed) > toc.MaxIndividualBlockSize {
				return errs.ErrBlockTooLarge
			}
			if usedCopy && buf != nil {
				// The Copy fallback aliases the pooled scratch buffer; copy
				// out before the deferred Put recycles it.
				compressed = append([]byte(nil), compressed...)
			}

			kind := plan.compression
			if usedCopy {
				kind = format.Copy
			}
			blocks[i] = toc.BlockEntry{CompressedSize: uint32(len(compressed)), Compression: kind}
			payloads[i] = compressed

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	return blocks, payloads, nil
}

// solidPayload concatenates the block's members into the pooled scratch
// buffer and returns the assembled bytes.
func (p *blockPlan) solidPayload(buf *bufpool.Buffer) []byte {
	var size uint64
	for _, fs := range p.files {
		size += fs.file.Size
	}
	buf.Grow(int(size))
	for _, fs := range p.files {
		buf.B = append(buf.B, fs.data...)
	}

	return buf.Bytes()
}

// chooseFormat computes the manifest maxima and runs the table-driven
// selector, honoring the legacy/flexible configuration.
func chooseFormat(cfg *Config, entries []toc.FileEntry, blocks []toc.BlockEntry, paths []string, plans []*blockPlan) (toc.Format, bitpack.Fef64Fields, error) {
	var m toc.Maxima
	m.FileCount = len(entries)
	m.BlockCount = len(blocks)
	m.HashRequired = cfg.WithHashes
	for i := range entries {
		if entries[i].DecompressedSize > m.MaxFileSize {
			m.MaxFileSize = entries[i].DecompressedSize
		}
		if entries[i].DecompressedBlockOffset > m.MaxBlockOffset {
			m.MaxBlockOffset = entries[i].DecompressedBlockOffset
		}
	}
	for _, plan := range plans {
		if plan.kind == blockSolid && len(plan.files) > 1 {
			m.HasSolidBlocks = true
			break
		}
	}

	// The chooser compares against the packed pool size; the uncompressed
	// concatenation stands in for it without compressing twice. It is not a
	// strict upper bound (ZStandard expands tiny path lists); toc.Pack
	// checks the real compressed size against the chosen header.
	for _, p := range paths {
		m.StringPoolSize += len(p) + 1
	}

	if cfg.Legacy {
		f, err := toc.ChooseLegacyFormat(m)
		return f, bitpack.Fef64Fields{}, err
	}

	f, err := toc.ChooseFormat(m, cfg.AllowFlexible)
	if err != nil {
		return 0, bitpack.Fef64Fields{}, err
	}

	var fields bitpack.Fef64Fields
	if f.IsFEF64() {
		fields, _ = toc.Fef64FieldsFor(m)
	}

	return f, fields, nil
}
