package packer

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nxfmt/nx/errs"
	"github.com/nxfmt/nx/provider"
	"github.com/nxfmt/nx/solidblock"
	"github.com/nxfmt/nx/toc"
)

// Unpacker reads one archive: it deserializes the ToC up front, locates
// each block's compressed bytes, and extracts files through lazy SOLID
// block decompression shared across extraction goroutines.
type Unpacker struct {
	cfg   *Config
	input provider.Input
	toc   *toc.TableOfContents

	// blockOffsets[i] is block i's absolute offset in the archive; blocks
	// are laid out back to back after the ToC in block-index order.
	blockOffsets []uint64

	// spans[firstBlockIndex] is how many consecutive blocks a file chain
	// starting there occupies: 1 for SOLID (and single-chunk) files, the
	// chunk count for chunked files. Derived from the gaps between distinct
	// first_block_index values, so it needs no chunk-size knowledge.
	spans map[uint32]uint32
}

// NewUnpacker reads and validates the ToC from input. The header family
// (V1 legacy vs V2) defaults to V2; archives packed with WithLegacyFormat
// need the same option here.
func NewUnpacker(input provider.Input, opts ...Option) (*Unpacker, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	tocData, err := readTocRegion(input, cfg.TocVersion)
	if err != nil {
		return nil, err
	}

	t, consumed, err := toc.Unpack(tocData, cfg.TocVersion)
	if err != nil {
		return nil, err
	}

	u := &Unpacker{cfg: cfg, input: input, toc: t}
	u.blockOffsets = make([]uint64, len(t.Blocks))
	offset := uint64(consumed)
	for i := range t.Blocks {
		u.blockOffsets[i] = offset
		offset += uint64(t.Blocks[i].CompressedSize)
	}
	u.spans = blockSpans(t)

	return u, nil
}

func readTocRegion(input provider.Input, v toc.Version) ([]byte, error) {
	peek, err := input.GetFileData(0, toc.Fef64HeaderSize)
	if err != nil {
		// The archive may be shorter than the large FEF64 header; the
		// 8-byte header families need less.
		peek, err = input.GetFileData(0, toc.HeaderSize)
		if err != nil {
			return nil, err
		}
	}
	defer peek.Close()

	size, err := toc.TocSizeFromHeader(peek.Bytes(), v)
	if err != nil {
		return nil, err
	}

	region, err := input.GetFileData(0, uint64(size))
	if err != nil {
		return nil, err
	}
	defer region.Close()

	// Copy out: the ToC's decoded form outlives the provider handle.
	return append([]byte(nil), region.Bytes()...), nil
}

func blockSpans(t *toc.TableOfContents) map[uint32]uint32 {
	distinct := make([]uint32, 0, len(t.Blocks))
	seen := make(map[uint32]struct{}, len(t.Blocks))
	for i := range t.Entries {
		idx := t.Entries[i].FirstBlockIndex
		if _, ok := seen[idx]; !ok {
			seen[idx] = struct{}{}
			distinct = append(distinct, idx)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })

	spans := make(map[uint32]uint32, len(distinct))
	for i, idx := range distinct {
		next := uint32(len(t.Blocks))
		if i+1 < len(distinct) {
			next = distinct[i+1]
		}
		spans[idx] = next - idx
	}

	return spans
}

// Toc exposes the archive's decoded table of contents.
func (u *Unpacker) Toc() *toc.TableOfContents { return u.toc }

// Extract writes the files identified by each output's descriptor. Lazy
// blocks are shared: every file is registered with its block before any
// decompression starts, then extraction fans out across workers.
func (u *Unpacker) Extract(outputs []provider.Output) error {
	lazies := make(map[uint32]*solidblock.Lazy)
	for _, out := range outputs {
		desc := out.Entry()
		if int(desc.FirstBlockIndex) >= len(u.toc.Blocks) {
			return errs.ErrMalformedToc
		}
		if u.spanOf(desc.FirstBlockIndex) > 1 {
			continue // chunked: no shared lazy state
		}
		lazy, ok := lazies[desc.FirstBlockIndex]
		if !ok {
			block := u.toc.Blocks[desc.FirstBlockIndex]
			lazy = solidblock.New(u.input, u.blockOffsets[desc.FirstBlockIndex], block.CompressedSize, block.Compression)
			lazies[desc.FirstBlockIndex] = lazy
		}
		err := lazy.ConsiderFile(toc.FileEntry{
			DecompressedSize:        desc.DecompressedSize,
			DecompressedBlockOffset: desc.DecompressedBlockOffset,
		})
		if err != nil {
			return err
		}
	}

	var group errgroup.Group
	group.SetLimit(u.cfg.Workers)

	for _, out := range outputs {
		out := out
		group.Go(func() error {
			desc := out.Entry()
			if u.spanOf(desc.FirstBlockIndex) > 1 {
				return u.extractChunked(out, desc)
			}

			return extractSolid(out, desc, lazies[desc.FirstBlockIndex])
		})
	}

	return group.Wait()
}

func (u *Unpacker) spanOf(firstBlockIndex uint32) uint32 {
	if span, ok := u.spans[firstBlockIndex]; ok {
		return span
	}

	return 1
}

func extractSolid(out provider.Output, desc provider.FileDescriptor, lazy *solidblock.Lazy) error {
	data, err := lazy.Data()
	if err != nil {
		return err
	}

	handle, err := out.GetFileData(0, desc.DecompressedSize)
	if err != nil {
		return err
	}
	defer handle.Close()

	base := uint64(desc.DecompressedBlockOffset)
	copy(handle.Bytes(), data[base:base+desc.DecompressedSize])

	return nil
}

// extractChunked decompresses a chunked file's blocks in order straight
// into the output's range, no intermediate whole-file buffer.
func (u *Unpacker) extractChunked(out provider.Output, desc provider.FileDescriptor) error {
	handle, err := out.GetFileData(0, desc.DecompressedSize)
	if err != nil {
		return err
	}
	defer handle.Close()

	dst := handle.Bytes()
	written := 0
	span := u.spanOf(desc.FirstBlockIndex)
	for b := desc.FirstBlockIndex; b < desc.FirstBlockIndex+span; b++ {
		block := u.toc.Blocks[b]
		src, err := u.input.GetFileData(u.blockOffsets[b], uint64(block.CompressedSize))
		if err != nil {
			return err
		}

		n, err := facade.DecompressPartial(block.Compression, src.Bytes(), dst[written:])
		src.Close()
		if err != nil {
			return err
		}
		written += n
	}

	if uint64(written) != desc.DecompressedSize {
		return errs.NewInsufficientData(written, int(desc.DecompressedSize))
	}

	return nil
}

// ExtractAll extracts every file into in-memory buffers and returns them
// keyed by archive path.
func (u *Unpacker) ExtractAll() (map[string][]byte, error) {
	outputs := make([]provider.Output, len(u.toc.Entries))
	buffers := make([]*provider.OutputBuffer, len(u.toc.Entries))
	for i := range u.toc.Entries {
		e := &u.toc.Entries[i]
		buffers[i] = provider.NewOutputBuffer(provider.FileDescriptor{
			DecompressedSize:        e.DecompressedSize,
			DecompressedBlockOffset: e.DecompressedBlockOffset,
			FirstBlockIndex:         e.FirstBlockIndex,
		})
		outputs[i] = buffers[i]
	}

	if err := u.Extract(outputs); err != nil {
		return nil, err
	}

	result := make(map[string][]byte, len(u.toc.Entries))
	for i := range u.toc.Entries {
		result[u.toc.Paths[u.toc.Entries[i].FilePathIndex]] = buffers[i].Data()
	}

	return result, nil
}

// Unpack is the one-call read path: deserialize the ToC and extract every
// file into memory.
func Unpack(archive []byte, opts ...Option) (map[string][]byte, error) {
	u, err := NewUnpacker(provider.FromSlice(archive), opts...)
	if err != nil {
		return nil, err
	}

	return u.ExtractAll()
}
