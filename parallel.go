package mgz

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is what ParallelDeflate returns: the concatenated archive, the
// lookup table (nil unless requested), and the block count. A zero Result
// with a nil error means the input was empty; a non-nil error means the
// operation failed and Result is the zero value.
type Result struct {
	Archive   []byte
	Lookup    LookupTable
	NumBlocks int
}

// ParallelDeflate splits p into blocks, compresses each block as an
// independent gzip member using up to cfg.Workers goroutines, and
// concatenates the members into one archive in original block order. The
// lookup table is populated only when cfg.Lookup is set.
func ParallelDeflate(p []byte, opts ...Option) (Result, error) {
	return parallelDeflate(p, newConfig(opts...))
}

func parallelDeflate(p []byte, cfg Config) (Result, error) {
	blockSize := effectiveBlockSize(cfg.BlockSize)
	cfg.BlockSize = blockSize
	ranges := blockRanges(int64(len(p)), blockSize)
	if len(ranges) == 0 {
		return Result{}, nil
	}

	members := make([][]byte, len(ranges))
	if err := compressBlocks(p, ranges, cfg, members); err != nil {
		return Result{}, err
	}

	archive, lookup := concatenate(members, cfg.Lookup)
	return Result{Archive: archive, Lookup: lookup, NumBlocks: len(ranges)}, nil
}

// compressBlocks runs Deflate over every range concurrently, writing each
// result into its own disjoint slot of members. Workers only ever read the
// shared input buffer and write to their own index of members, so no
// synchronization is needed beyond errgroup.Group.Wait blocking until every
// goroutine finishes before the first error is observed.
func compressBlocks(p []byte, ranges []blockRange, cfg Config, members [][]byte) error {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ranges) {
		workers = len(ranges)
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			member, err := Deflate(p[r.Lo:r.Hi], cfg.Level)
			if err != nil {
				return fmt.Errorf("block %d: %w", i, err)
			}
			if len(member) == 0 {
				log.Warnf("mgz: block %d produced an empty member for %d input bytes", i, r.Len())
				return fmt.Errorf("block %d: %w", i, ErrAllocation)
			}
			members[i] = member
			return nil
		})
	}
	return g.Wait()
}

// concatenate computes the prefix-sum lookup table and copies every
// member's bytes into one archive buffer at its prefix-sum offset. Each
// member is released (its slot in members is cleared) as soon as its copy
// completes; destination regions are disjoint, so the copy loop needs no
// synchronization.
func concatenate(members [][]byte, wantLookup bool) ([]byte, LookupTable) {
	nBlocks := len(members)
	offsets := make([]uint64, nBlocks+1)
	for i, m := range members {
		offsets[i+1] = offsets[i] + uint64(len(m))
	}

	archive := make([]byte, offsets[nBlocks])
	var wg errgroup.Group
	for i, m := range members {
		i, m := i, m
		wg.Go(func() error {
			copy(archive[offsets[i]:offsets[i+1]], m)
			members[i] = nil
			return nil
		})
	}
	_ = wg.Wait()

	if !wantLookup {
		return archive, nil
	}
	return archive, LookupTable(offsets)
}
