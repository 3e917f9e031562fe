package packer

import (
	"sort"

	"github.com/nxfmt/nx/dedup"
	"github.com/nxfmt/nx/format"
	"github.com/nxfmt/nx/internal/xxh"
	"github.com/nxfmt/nx/toc"
)

type blockKind uint8

const (
	blockSolid blockKind = iota
	blockChunk
)

// blockPlan describes one output block before compression: either the
// ordered SOLID members whose bytes concatenate into its payload, or one
// chunk window of one large file.
type blockPlan struct {
	kind        blockKind
	compression format.CompressionKind

	files []*fileState // SOLID members, in payload order

	chunkOf  *fileState // chunked: source file
	chunkOff uint64
	chunkLen uint32
}

// fileState is one manifest file's in-flight packing state: its loaded
// bytes, content hash, lexicographic path rank, and the ToC entry being
// assigned during assembly.
type fileState struct {
	file      *File
	data      []byte
	hash      uint64
	pathIndex uint32
	entry     toc.FileEntry
}

// pendingSolid is an open SOLID block accepting members. Its plan already
// occupies a slot in the plan list (block indexes are assigned at creation,
// so deduplication can record final indexes immediately); members keep
// arriving until the next one would overflow the size bound.
type pendingSolid struct {
	plan  *blockPlan
	index uint32
	size  uint64
}

// assemble walks the manifest: group by extension, size-ascending
// within each bucket, SOLID-pack small files and chunk large or never-solid
// ones, reconciling duplicates through the shared dedup state. It returns
// the block plans in block-index order and the file states in ToC entry
// order (SOLID members contiguous).
func assemble(states []*fileState, cfg *Config, solidD *dedup.SolidDedup, chunkedD *dedup.ChunkedDedup) ([]*blockPlan, []*fileState) {
	buckets := make(map[string][]*fileState)
	var extensions []string
	for _, fs := range states {
		ext := extensionOf(fs.file.RelativePath)
		if _, ok := buckets[ext]; !ok {
			extensions = append(extensions, ext)
		}
		buckets[ext] = append(buckets[ext], fs)
	}
	sort.Strings(extensions)

	var plans []*blockPlan
	entryOrder := make([]*fileState, 0, len(states))

	for _, ext := range extensions {
		bucket := buckets[ext]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].file.Size < bucket[j].file.Size
		})

		// SOLID blocks do not span extension buckets; one open block per
		// compression kind within the bucket.
		pending := make(map[format.CompressionKind]*pendingSolid)

		for _, fs := range bucket {
			kind := fs.file.CompressionPreference.Resolve()

			if fs.file.Size > uint64(cfg.SolidBlockSize) || fs.file.SolidPreference == format.SolidNever {
				plans = appendChunked(plans, fs, kind, cfg, chunkedD)
			} else {
				plans = appendSolid(plans, fs, kind, cfg, pending, solidD)
			}
			entryOrder = append(entryOrder, fs)
		}
	}

	return plans, entryOrder
}

func appendChunked(plans []*blockPlan, fs *fileState, kind format.CompressionKind, cfg *Config, chunkedD *dedup.ChunkedDedup) []*blockPlan {
	prefixHash := xxh.Prefix(fs.data, chunkedPrefixLen)
	if chunkedD.HasPrefix(prefixHash) {
		if idx, ok := chunkedD.FindFull(fs.hash); ok {
			fs.entry.FirstBlockIndex = idx
			return plans
		}
	}

	firstIndex := uint32(len(plans))
	fs.entry.FirstBlockIndex = firstIndex

	remaining := fs.file.Size
	var offset uint64
	for remaining > 0 {
		length := uint64(cfg.ChunkSize)
		if length > remaining {
			length = remaining
		}
		plans = append(plans, &blockPlan{
			kind:        blockChunk,
			compression: kind,
			chunkOf:     fs,
			chunkOff:    offset,
			chunkLen:    uint32(length),
		})
		offset += length
		remaining -= length
	}
	if fs.file.Size == 0 {
		// A zero-byte never-solid file still needs a block to reference.
		plans = append(plans, &blockPlan{kind: blockChunk, compression: kind, chunkOf: fs})
	}

	chunkedD.Insert(prefixHash, fs.hash, firstIndex)

	return plans
}

func appendSolid(plans []*blockPlan, fs *fileState, kind format.CompressionKind, cfg *Config, pending map[format.CompressionKind]*pendingSolid, solidD *dedup.SolidDedup) []*blockPlan {
	if details, ok := solidD.Find(fs.hash); ok {
		fs.entry.FirstBlockIndex = details.BlockIndex
		fs.entry.DecompressedBlockOffset = details.DecompressedBlockOffset

		return plans
	}

	p := pending[kind]
	if p == nil || p.size+fs.file.Size > uint64(cfg.SolidBlockSize) {
		plan := &blockPlan{kind: blockSolid, compression: kind}
		p = &pendingSolid{plan: plan, index: uint32(len(plans))}
		plans = append(plans, plan)
		pending[kind] = p
	}

	offset := uint32(p.size)
	fs.entry.FirstBlockIndex = p.index
	fs.entry.DecompressedBlockOffset = offset
	p.plan.files = append(p.plan.files, fs)
	p.size += fs.file.Size

	solidD.Insert(fs.hash, dedup.SolidDetails{BlockIndex: p.index, DecompressedBlockOffset: offset})

	return plans
}
