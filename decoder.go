// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mgz

import (
	"bufio"
	"hash"
	"hash/crc32"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
)

// RFC 1952 constants.
const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

func makeFlateReader(r io.Reader) flate.Reader {
	if rr, ok := r.(flate.Reader); ok {
		return rr
	}
	return bufio.NewReader(r)
}

// Header exposes the metadata fields of a gzip member, mirroring RFC 1952.
type Header struct {
	Comment string
	Extra   []byte
	ModTime time.Time
	Name    string
	OS      byte
}

// Reader is an io.Reader that decodes a gzip archive: one member, or (per
// RFC 1952's concatenation rule) several members back to back. This is
// what ParallelDeflate's output decodes with, and what ReadAt attaches at a
// member's start offset to perform a random-access read.
//
// Reader decodes synchronously on the caller's goroutine: mgz only ever
// attaches to one bounded range at a time, so there is no benefit to an
// asynchronous read-ahead pipeline (see DESIGN.md).
type Reader struct {
	Header
	r            flate.Reader
	decompressor io.ReadCloser
	digest       hash.Hash32
	size         uint32
	flg          byte
	buf          [512]byte
	err          error
}

// NewReader creates a Reader that decodes the gzip stream r. The first
// member's header is parsed immediately; it is the caller's responsibility
// to Close the Reader when done.
func NewReader(r io.Reader) (*Reader, error) {
	z := &Reader{r: makeFlateReader(r), digest: crc32.NewIEEE()}
	if err := z.readHeader(true); err != nil {
		return nil, err
	}
	return z, nil
}

// Reset discards z's state and makes it equivalent to the result of
// NewReader, but reading from r instead.
func (z *Reader) Reset(r io.Reader) error {
	if z.decompressor != nil {
		z.decompressor.Close()
	}
	z.Header = Header{}
	z.r = makeFlateReader(r)
	z.digest = crc32.NewIEEE()
	z.size = 0
	z.err = nil
	return z.readHeader(true)
}

// get4 reads a little-endian uint32, per RFC 1952 (gzip is little-endian,
// unlike zlib).
func get4(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func (z *Reader) readString() (string, error) {
	var err error
	needconv := false
	for i := 0; ; i++ {
		if i >= len(z.buf) {
			return "", ErrHeader
		}
		z.buf[i], err = z.r.ReadByte()
		if err != nil {
			return "", err
		}
		if z.buf[i] > 0x7f {
			needconv = true
		}
		if z.buf[i] == 0 {
			// RFC 1952 strings are NUL-terminated ISO 8859-1 (Latin-1).
			if needconv {
				s := make([]rune, 0, i)
				for _, v := range z.buf[0:i] {
					s = append(s, rune(v))
				}
				return string(s), nil
			}
			return string(z.buf[0:i]), nil
		}
	}
}

func (z *Reader) read2() (uint32, error) {
	_, err := io.ReadFull(z.r, z.buf[0:2])
	if err != nil {
		return 0, err
	}
	return uint32(z.buf[0]) | uint32(z.buf[1])<<8, nil
}

func (z *Reader) readHeader(save bool) error {
	_, err := io.ReadFull(z.r, z.buf[0:10])
	if err != nil {
		return err
	}
	if z.buf[0] != gzipID1 || z.buf[1] != gzipID2 || z.buf[2] != gzipDeflate {
		return ErrHeader
	}
	z.flg = z.buf[3]
	if save {
		z.ModTime = time.Unix(int64(get4(z.buf[4:8])), 0)
		// z.buf[8] is XFL, ignored.
		z.OS = z.buf[9]
	}
	z.digest.Reset()
	z.digest.Write(z.buf[0:10])

	if z.flg&flagExtra != 0 {
		n, err := z.read2()
		if err != nil {
			return err
		}
		data := make([]byte, n)
		if _, err = io.ReadFull(z.r, data); err != nil {
			return err
		}
		if save {
			z.Extra = data
		}
	}

	var s string
	if z.flg&flagName != 0 {
		if s, err = z.readString(); err != nil {
			return err
		}
		if save {
			z.Name = s
		}
	}

	if z.flg&flagComment != 0 {
		if s, err = z.readString(); err != nil {
			return err
		}
		if save {
			z.Comment = s
		}
	}

	if z.flg&flagHdrCrc != 0 {
		n, err := z.read2()
		if err != nil {
			return err
		}
		sum := z.digest.Sum32() & 0xFFFF
		if n != sum {
			return ErrHeader
		}
	}

	z.digest.Reset()
	z.decompressor = flate.NewReader(z.r)
	return nil
}

// Read implements io.Reader. On exhausting one member it transparently
// advances into the next concatenated member, which is the mechanism
// ReadAt relies on to satisfy requests that cross a block boundary with a
// single Reader instance.
func (z *Reader) Read(p []byte) (n int, err error) {
	if z.err != nil {
		return 0, z.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	for n == 0 {
		n, z.err = z.decompressor.Read(p)
		z.digest.Write(p[:n])
		z.size += uint32(n)
		if z.err != io.EOF {
			return n, z.err
		}

		// Member exhausted: verify its trailer.
		if _, err := io.ReadFull(z.r, z.buf[0:8]); err != nil {
			z.err = err
			return n, err
		}
		crc, isize := get4(z.buf[0:4]), get4(z.buf[4:8])
		if crc != z.digest.Sum32() || isize != z.size {
			z.err = ErrChecksum
			return n, z.err
		}
		z.decompressor.Close()
		z.digest.Reset()
		z.size = 0

		// Gzip permits concatenated members; try to read the next one.
		// An io.EOF here (no more bytes at all) ends the stream cleanly.
		if z.err = z.readHeader(false); z.err != nil {
			if z.err == io.EOF {
				return n, io.EOF
			}
			return n, z.err
		}
	}
	return n, nil
}

// Close closes the Reader. It does not close the underlying io.Reader.
func (z *Reader) Close() error {
	if z.decompressor == nil {
		return nil
	}
	return z.decompressor.Close()
}

