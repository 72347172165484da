package mgz

import (
	"encoding/binary"
	"fmt"
	"io"
)

// LookupTable maps block index to the byte offset of that block's gzip
// member within an archive. L[0] is always 0, L is strictly non-decreasing
// for non-empty blocks, and L[len(L)-1] equals the archive's total size.
type LookupTable []uint64

// NumBlocks reports the number of blocks the table describes.
func (l LookupTable) NumBlocks() int {
	if len(l) == 0 {
		return 0
	}
	return len(l) - 1
}

// WriteSidecar persists the lookup sidecar: an 8-byte little-endian
// blockSize header followed by the block offsets L[0..nBlocks-1], one 8-byte
// little-endian value each. The terminal entry L[nBlocks] (the archive size)
// is not written.
func WriteSidecar(w io.Writer, blockSize int64, lookup LookupTable) error {
	nBlocks := lookup.NumBlocks()
	buf := make([]byte, 8*(1+nBlocks))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(blockSize))
	for i := 0; i < nBlocks; i++ {
		binary.LittleEndian.PutUint64(buf[8*(1+i):8*(2+i)], lookup[i])
	}
	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: writing sidecar: %v", ErrIO, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: sidecar", ErrShortWrite)
	}
	return nil
}

// readSidecarBlockSize reads the blockSize header at the start of the
// sidecar.
func readSidecarBlockSize(r io.ReaderAt) (int64, error) {
	var buf [8]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return 0, fmt.Errorf("%w: reading sidecar block size: %v", ErrIO, err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}

// readSidecarOffset reads L[block] from the sidecar, which stores
// blockSize at offset 0 followed by L[0..nBlocks-1].
func readSidecarOffset(r io.ReaderAt, block int64) (uint64, error) {
	var buf [8]byte
	pos := 8 * (1 + block)
	if _, err := r.ReadAt(buf[:], pos); err != nil {
		return 0, fmt.Errorf("%w: reading sidecar offset: %v", ErrIO, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}
