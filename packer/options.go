package packer

import (
	"fmt"
	"runtime"

	"github.com/nxfmt/nx/internal/options"
	"github.com/nxfmt/nx/toc"
)

// Defaults for block assembly and compression.
const (
	// DefaultSolidBlockSize bounds a SOLID block's decompressed size. The
	// default matches the tightest layout still in the default chooser's
	// search (V2 Preset 0-2); callers targeting legacy output may raise it
	// to the V1 ceiling.
	DefaultSolidBlockSize = toc.MaxSolidBlockSizeV2
	// DefaultChunkSize is the decompressed size of each chunk of a chunked
	// (large or never-solid) file.
	DefaultChunkSize = 1024 * 1024
	// DefaultBlockLevel is the ZStandard level blocks compress at.
	DefaultBlockLevel = 9
	// DefaultPoolLevel is the ZStandard level the string pool compresses at.
	DefaultPoolLevel = 16
	// chunkedPrefixLen is how many leading bytes feed the chunked-dedup
	// prefix filter.
	chunkedPrefixLen = 4096
)

// Config carries every tunable the packer and unpacker honor. Zero value is
// not usable; newConfig applies defaults before options run.
type Config struct {
	SolidBlockSize uint32
	ChunkSize      uint32
	BlockLevel     int
	PoolLevel      int
	WithHashes     bool
	Legacy         bool
	AllowFlexible  bool
	Workers        int
	TocVersion     toc.Version
}

// Option configures a pack or unpack operation.
type Option = options.Option[*Config]

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		SolidBlockSize: DefaultSolidBlockSize,
		ChunkSize:      DefaultChunkSize,
		BlockLevel:     DefaultBlockLevel,
		PoolLevel:      DefaultPoolLevel,
		WithHashes:     true,
		Workers:        runtime.GOMAXPROCS(0),
		TocVersion:     toc.VersionV2,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithSolidBlockSize overrides the SOLID block size bound. The value may
// not exceed the V1 layout ceiling.
func WithSolidBlockSize(size uint32) Option {
	return options.New(func(c *Config) error {
		if size == 0 || size > toc.MaxSolidBlockSizeV1 {
			return fmt.Errorf("packer: invalid solid block size %d", size)
		}
		c.SolidBlockSize = size

		return nil
	})
}

// WithChunkSize overrides the chunked-block piece size.
func WithChunkSize(size uint32) Option {
	return options.New(func(c *Config) error {
		if size == 0 {
			return fmt.Errorf("packer: invalid chunk size %d", size)
		}
		c.ChunkSize = size

		return nil
	})
}

// WithBlockCompressionLevel sets the ZStandard level for block payloads.
func WithBlockCompressionLevel(level int) Option {
	return options.NoError(func(c *Config) {
		c.BlockLevel = level
	})
}

// WithStringPoolLevel sets the ZStandard level for the string pool.
func WithStringPoolLevel(level int) Option {
	return options.NoError(func(c *Config) {
		c.PoolLevel = level
	})
}

// WithoutHashes drops content hashes from the ToC, letting the chooser pick
// the hashless entry layouts. Deduplication still hashes internally; the
// hashes are just not serialized.
func WithoutHashes() Option {
	return options.NoError(func(c *Config) {
		c.WithHashes = false
	})
}

// WithLegacyFormat targets the V1 header family (V0/V1 entry widths)
// instead of V2. Unpacking an archive packed this way needs the same
// option.
func WithLegacyFormat() Option {
	return options.NoError(func(c *Config) {
		c.Legacy = true
		c.TocVersion = toc.VersionV1
	})
}

// WithFlexibleFormat lets the chooser consider the FEF64 layouts, which are
// opt-in (see toc.ChooseFormat).
func WithFlexibleFormat() Option {
	return options.NoError(func(c *Config) {
		c.AllowFlexible = true
	})
}

// WithWorkers bounds the number of concurrent block compression and
// extraction goroutines.
func WithWorkers(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("packer: invalid worker count %d", n)
		}
		c.Workers = n

		return nil
	})
}

// WithTocVersion names the header family an unpacker should expect, for
// archives whose outer framing recorded it separately.
func WithTocVersion(v toc.Version) Option {
	return options.NoError(func(c *Config) {
		c.TocVersion = v
	})
}
