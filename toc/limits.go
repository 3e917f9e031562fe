package toc

// Limits of each on-disk layout. The file count, block count and string
// pool size limits are checked at pack time and exceeding them is
// ErrFormatLimitExceeded; the block size limits below are not checked by
// toc.Pack.
const (
	// MaxSolidBlockSizeV1 is the largest a SOLID block may be under the
	// V1/V0 and V1/V1 layouts. It bounds the packer's SOLID block size
	// option and the lazy SOLID block's high-water mark.
	MaxSolidBlockSizeV1 = 64 * 1024 * 1024
	// MaxSolidBlockSizeV2 is the SOLID block size limit of V2 Preset 0/1/2
	// (Preset 3 has no SOLID blocks at all). The packer uses it as its
	// default SOLID block size; when a caller raises that size, SOLID
	// blocks larger than this are written under a V2 preset without error.
	MaxSolidBlockSizeV2 = 16 * 1024 * 1024
	// MaxIndividualBlockSize bounds any single compressed block, SOLID or
	// chunked, across every layout; the packer rejects a larger block with
	// ErrBlockTooLarge.
	MaxIndividualBlockSize = 512 * 1024 * 1024

	maxFileCountV1  = 1 << 20
	maxBlockCountV1 = 1 << 18

	maxFileCountV2P012  = 1 << 18
	maxBlockCountV2P012 = 1 << 22

	maxFileCountV2P3  = 1 << 16
	maxBlockCountV2P3 = 1 << 16

	maxStringPoolSizeV1     = 1 << 24
	maxStringPoolSizeV2P012 = 1 << 21
	maxStringPoolSizeV2P3   = 1 << 20

	maxFileSizeV0 = 1 << 32 // 4 GiB, exclusive upper bound
)
