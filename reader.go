package mgz

import (
	"fmt"
	"io"
	"math"
)

// ReadAt reads len(buf) bytes of uncompressed data starting at uncompressed
// byte offset, using sidecar to locate the gzip member that contains it.
// archive and sidecar are borrowed, non-mutating accessors (an *os.File or
// a bytes.Reader both satisfy io.ReaderAt) — ReadAt never perturbs the
// caller's file position and never duplicates a descriptor, unlike the C
// original's mgz_read (see DESIGN.md).
//
// It returns len(buf) on success. A request that crosses a block boundary
// is satisfied by a single Reader instance, which advances transparently
// into the next concatenated member. A request that runs past the end of
// the archive fails rather than being silently truncated.
func ReadAt(buf []byte, offset int64, archive io.ReaderAt, sidecar io.ReaderAt) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	blockSize, err := readSidecarBlockSize(sidecar)
	if err != nil {
		return 0, err
	}
	if blockSize <= 0 {
		return 0, fmt.Errorf("%w: sidecar blockSize %d", ErrHeader, blockSize)
	}

	block := offset / blockSize
	into := offset % blockSize

	memberStart, err := readSidecarOffset(sidecar, block)
	if err != nil {
		return 0, err
	}

	// The section is opened without an upper bound on length (bar the
	// int64 ceiling): the Reader attached to it will stop on its own at
	// whatever member/trailer boundaries the data actually contains, and
	// gzip concatenation lets it walk across as many blocks as the
	// request needs.
	section := io.NewSectionReader(archive, int64(memberStart), math.MaxInt64-int64(memberStart))

	zr, err := NewReader(section)
	if err != nil {
		return 0, fmt.Errorf("%w: opening member at block %d: %v", ErrIO, block, err)
	}
	defer zr.Close()

	if into > 0 {
		if _, err := io.CopyN(io.Discard, zr, into); err != nil {
			return 0, fmt.Errorf("%w: skipping %d bytes into block %d: %v", ErrRange, into, block, err)
		}
	}

	n, err := io.ReadFull(zr, buf)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %d bytes at offset %d: %v", ErrRange, len(buf), offset, err)
	}
	return n, nil
}
