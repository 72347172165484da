package mgz

// blockRange is the input range of a single block: bytes [Lo, Hi) of the
// uncompressed buffer.
type blockRange struct {
	Lo, Hi int64
}

// Len reports the number of uncompressed bytes the range covers.
func (r blockRange) Len() int64 { return r.Hi - r.Lo }

// effectiveBlockSize normalizes a requested block size: 0 becomes
// DefaultBlockSize, and anything below MinBlockSize is floored up to it
// (with a warning, since that silently changes the caller's archive
// layout).
func effectiveBlockSize(requested int64) int64 {
	switch {
	case requested == 0:
		return DefaultBlockSize
	case requested < MinBlockSize:
		log.Warnf("mgz: block size %d is below the minimum of %d; using %d instead",
			requested, MinBlockSize, MinBlockSize)
		return MinBlockSize
	default:
		return requested
	}
}

// blockRanges partitions n bytes into ceil(n/blockSize) contiguous ranges,
// all of size blockSize except possibly the last. It returns nil for n==0.
func blockRanges(n, blockSize int64) []blockRange {
	if n == 0 {
		return nil
	}
	nBlocks := (n + blockSize - 1) / blockSize
	ranges := make([]blockRange, nBlocks)
	for i := int64(0); i < nBlocks; i++ {
		lo := i * blockSize
		hi := lo + blockSize
		if hi > n {
			hi = n
		}
		ranges[i] = blockRange{Lo: lo, Hi: hi}
	}
	return ranges
}
