package mgz

import (
	"fmt"
	"io"
)

// Create compresses p with ParallelDeflate and writes the resulting
// archive to w. If lookupw is non-nil, the lookup sidecar (effective block
// size header + per-block offsets) is written to it as well. It returns
// the number of archive bytes written. For empty input nothing is written
// to either writer and Create returns 0.
func Create(w io.Writer, lookupw io.Writer, p []byte, opts ...Option) (int64, error) {
	cfg := newConfig(opts...)
	if lookupw != nil {
		cfg.Lookup = true
	}
	blockSize := effectiveBlockSize(cfg.BlockSize)

	res, err := parallelDeflate(p, cfg)
	if err != nil {
		return 0, err
	}
	if len(res.Archive) == 0 {
		return 0, nil
	}

	n, err := w.Write(res.Archive)
	if err != nil {
		return int64(n), fmt.Errorf("%w: writing archive: %v", ErrIO, err)
	}
	if n != len(res.Archive) {
		return int64(n), fmt.Errorf("%w: archive", ErrShortWrite)
	}

	if lookupw != nil {
		if err := WriteSidecar(lookupw, blockSize, res.Lookup); err != nil {
			return int64(n), err
		}
	}
	return int64(n), nil
}
