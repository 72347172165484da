// Package mgz implements a block-parallel gzip codec with random-access
// read support.
//
// A buffer is split into fixed-size blocks, each block is compressed as an
// independent RFC 1952 gzip member, and the members are concatenated into a
// single archive. Because gzip permits stream concatenation, the archive
// remains a valid gzip file that any standard decoder can read end to end.
// Alongside the archive, mgz can produce a lookup table that records the
// byte offset of every member within the archive, so a reader can jump to
// any uncompressed offset and decode only the block(s) that range touches.
//
// See more at https://github.com/robertyishi/mgz
package mgz

import (
	"errors"

	"github.com/sirupsen/logrus"
)

const (
	// chunkSize is the staging buffer size used while streaming data
	// through the DEFLATE engine.
	chunkSize = 16384

	// MinBlockSize is the smallest block size accepted by the
	// partitioner. Smaller requested sizes are floored up to this value.
	MinBlockSize = chunkSize

	// DefaultBlockSize is used when no block size is requested (0).
	DefaultBlockSize = 1 << 20 // 1 MiB
)

// Level aliases the compression levels accepted throughout the package:
// -1 selects the DEFLATE engine's default, 0 disables compression, 1 is
// fastest, and 9 is smallest.
const (
	DefaultCompression = -1
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
)

var log = logrus.StandardLogger()

// SetLogger overrides the logger mgz uses for its non-fatal diagnostics
// (block-size normalization, empty compressed members). Passing nil restores
// the standard logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		log = logrus.StandardLogger()
		return
	}
	log = l
}

// Config holds the tunable parameters of a parallel compression run. Build
// one with options rather than constructing it directly so future fields
// have sane zero-value defaults.
type Config struct {
	// Level is the DEFLATE compression level, -1..9.
	Level int
	// BlockSize is the requested block size in bytes; 0 means
	// DefaultBlockSize, and anything below MinBlockSize is floored up to
	// it (with a warning logged).
	BlockSize int64
	// Lookup requests that ParallelDeflate populate Result.Lookup.
	Lookup bool
	// Workers bounds the number of blocks compressed concurrently; 0
	// means GOMAXPROCS.
	Workers int
}

// Option mutates a Config. See WithLevel, WithBlockSize, WithLookup, and
// WithWorkers.
type Option func(*Config)

// WithLevel sets the DEFLATE compression level.
func WithLevel(level int) Option {
	return func(c *Config) { c.Level = level }
}

// WithBlockSize sets the requested block size in bytes.
func WithBlockSize(size int64) Option {
	return func(c *Config) { c.BlockSize = size }
}

// WithLookup requests that the lookup table be produced.
func WithLookup(want bool) Option {
	return func(c *Config) { c.Lookup = want }
}

// WithWorkers bounds the number of blocks compressed concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

func newConfig(opts ...Option) Config {
	cfg := Config{Level: DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

var (
	// ErrChecksum is returned when a decoded member's CRC-32 or ISIZE
	// trailer does not match the decompressed data.
	ErrChecksum = errors.New("mgz: invalid checksum")
	// ErrHeader is returned when a gzip member header is malformed.
	ErrHeader = errors.New("mgz: invalid header")
	// ErrAllocation is returned when the codec cannot obtain the memory
	// it needs to carry out a request.
	ErrAllocation = errors.New("mgz: allocation failure")
	// ErrCodec is returned when the underlying DEFLATE engine reports a
	// recoverable error while compressing a block. The whole parallel
	// operation is failed when this occurs.
	ErrCodec = errors.New("mgz: codec failure")
	// ErrShortWrite is returned when persisting the archive or sidecar
	// writes fewer bytes than requested.
	ErrShortWrite = errors.New("mgz: short write")
	// ErrRange is returned by ReadAt when skipping to or reading the
	// requested range from the decoded data fails, for example because the
	// range runs past the end of the input. An offset beyond the last block
	// fails earlier, with ErrIO, because its sidecar entry cannot be read.
	ErrRange = errors.New("mgz: read out of range")
	// ErrIO is returned when a seek/read/write against a caller-supplied
	// stream fails.
	ErrIO = errors.New("mgz: i/o failure")
)
