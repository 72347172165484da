package mgz

import (
	"bytes"
	"compress/gzip"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParallelDeflateEmpty(t *testing.T) {
	res, err := ParallelDeflate(nil, WithLevel(BestCompression), WithBlockSize(16384))
	require.NoError(t, err)
	require.Equal(t, Result{}, res)

	var archive, sidecar bytes.Buffer
	n, err := Create(&archive, &sidecar, nil, WithLevel(BestCompression), WithBlockSize(16384))
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, archive.Len())
}

func TestParallelDeflateSingleTinyBlock(t *testing.T) {
	data := []byte("abcdefg\x00")
	res, err := ParallelDeflate(data, WithLevel(BestCompression), WithBlockSize(16384), WithLookup(true))
	require.NoError(t, err)
	require.Equal(t, 1, res.NumBlocks)
	require.Equal(t, LookupTable{0, uint64(len(res.Archive))}, res.Lookup)

	zr, err := NewReader(bytes.NewReader(res.Archive))
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

// Reads 1 byte exactly at a block boundary offset.
func TestParallelDeflateExactBlockBoundary(t *testing.T) {
	data := make([]byte, 32768)
	for i := range data {
		data[i] = byte(i)
	}
	res, err := ParallelDeflate(data, WithBlockSize(16384), WithLookup(true))
	require.NoError(t, err)
	require.Equal(t, 2, res.NumBlocks)

	var sidecar bytes.Buffer
	require.NoError(t, WriteSidecar(&sidecar, 16384, res.Lookup))

	buf := make([]byte, 1)
	n, err := ReadAt(buf, 16384, bytes.NewReader(res.Archive), bytes.NewReader(sidecar.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, data[16384], buf[0])
}

// A requested block size below MinBlockSize is normalized up to it.
func TestParallelDeflateSubMinimumBlockSizeNormalized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 1<<20)
	rng.Read(data)

	small, err := ParallelDeflate(data, WithBlockSize(4096), WithLookup(true))
	require.NoError(t, err)
	floor, err := ParallelDeflate(data, WithBlockSize(MinBlockSize), WithLookup(true))
	require.NoError(t, err)

	require.Equal(t, floor.NumBlocks, small.NumBlocks)
	require.Equal(t, 64, small.NumBlocks)
	require.Equal(t, floor.Archive, small.Archive)
	require.Equal(t, floor.Lookup, small.Lookup)
}

// Archive layout and lookup table are deterministic regardless of worker count.
func TestParallelDeflateLayoutDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := make([]byte, 200000)
	rng.Read(data)

	one, err := ParallelDeflate(data, WithBlockSize(16384), WithWorkers(1), WithLookup(true))
	require.NoError(t, err)
	many, err := ParallelDeflate(data, WithBlockSize(16384), WithWorkers(32), WithLookup(true))
	require.NoError(t, err)

	require.Equal(t, one.Archive, many.Archive)
	require.Equal(t, one.Lookup, many.Lookup)
}

func TestLookupMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	data := make([]byte, 500000)
	rng.Read(data)

	res, err := ParallelDeflate(data, WithBlockSize(16384), WithLookup(true))
	require.NoError(t, err)

	require.EqualValues(t, 0, res.Lookup[0])
	for i := 0; i < res.NumBlocks; i++ {
		require.Greater(t, res.Lookup[i+1], res.Lookup[i])
	}
	require.EqualValues(t, len(res.Archive), res.Lookup[res.NumBlocks])
}

func TestCreateAndReadBackArchiveRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := make([]byte, 65537)
	rng.Read(data)

	var archive, sidecar bytes.Buffer
	n, err := Create(&archive, &sidecar, data, WithBlockSize(16384))
	require.NoError(t, err)
	require.EqualValues(t, archive.Len(), n)

	zr, err := NewReader(bytes.NewReader(archive.Bytes()))
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
}

// A multi-block archive remains a single standard gzip file end to end:
// Go's own compress/gzip, which shares no code with this package's
// encoder or decoder, must read it back byte for byte.
func TestParallelDeflateArchiveDecodesWithStandardLibraryGzip(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	data := make([]byte, 200001)
	rng.Read(data)

	res, err := ParallelDeflate(data, WithBlockSize(16384))
	require.NoError(t, err)
	require.Greater(t, res.NumBlocks, 1)

	gr, err := gzip.NewReader(bytes.NewReader(res.Archive))
	require.NoError(t, err)
	got, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
	require.NoError(t, gr.Close())
}
