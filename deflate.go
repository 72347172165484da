package mgz

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"

	"github.com/klauspost/compress/flate"
)

// osUnknown is the RFC 1952 OS byte meaning "unknown", the same default
// ianlewis/go-dictzip uses for header bytes it doesn't otherwise set.
const osUnknown = 0xff

// Deflate compresses p into a single, self-contained gzip member at the
// given compression level (-1 selects the engine default). The returned
// slice's decoded contents equal p exactly. Deflate returns (nil, nil) for
// empty input.
func Deflate(p []byte, level int) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	buf.Grow(2 * chunkSize)
	writeMemberHeader(&buf, level)

	fw, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("%w: flate.NewWriter: %v", ErrCodec, err)
	}

	digest := crc32.NewIEEE()
	if err := streamThroughEncoder(fw, digest, p); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("%w: flate.Writer.Close: %v", ErrCodec, err)
	}

	writeMemberTrailer(&buf, digest, uint32(len(p)))
	return buf.Bytes(), nil
}

// streamThroughEncoder feeds p through fw in chunkSize-sized pieces,
// updating digest alongside, mirroring the staged-buffer feed the original
// C implementation drives explicitly; bytes.Buffer's own doubling growth
// gives us the same amortized allocation cost without a hand-rolled output
// buffer, so only the input side is chunked here.
func streamThroughEncoder(fw *flate.Writer, digest hash.Hash32, p []byte) error {
	for off := 0; off < len(p); off += chunkSize {
		end := off + chunkSize
		if end > len(p) {
			end = len(p)
		}
		chunk := p[off:end]
		if _, err := fw.Write(chunk); err != nil {
			return fmt.Errorf("%w: flate.Writer.Write: %v", ErrCodec, err)
		}
		digest.Write(chunk)
	}
	return nil
}

// writeMemberHeader writes the 10-byte fixed gzip header. mgz never sets
// FNAME/FCOMMENT/FEXTRA/FHCRC on members it produces itself; decoder.go
// still understands all of those flags so it can read archives written by
// any other standards-compliant encoder.
func writeMemberHeader(buf *bytes.Buffer, level int) {
	var hdr [10]byte
	hdr[0] = gzipID1
	hdr[1] = gzipID2
	hdr[2] = gzipDeflate
	// hdr[3] flags left as 0.
	// hdr[4:8] mtime left as 0 (not set).
	switch level {
	case BestCompression:
		hdr[8] = 2
	case BestSpeed:
		hdr[8] = 4
	}
	hdr[9] = osUnknown
	buf.Write(hdr[:])
}

// writeMemberTrailer appends the CRC-32 and ISIZE trailer, little-endian
// per RFC 1952.
func writeMemberTrailer(buf *bytes.Buffer, digest hash.Hash32, isize uint32) {
	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], digest.Sum32())
	binary.LittleEndian.PutUint32(trailer[4:8], isize)
	buf.Write(trailer[:])
}
