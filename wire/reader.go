// Package wire decodes (and, for the host side, encodes) the binary value
// stream used to synchronise a value tree: zero-terminated strings,
// compressed integers, little-endian fixed-width numbers and tagged variants.
package wire

import (
	"encoding/binary"
	"math"
	"strings"
)

// Reader is a forward-only cursor over an immutable byte buffer.
//
// Reads never fail. The cursor is clamped to the last byte of the buffer, and
// once a read runs past the end the reader is exhausted: every further read
// yields zero bytes (fixed-width values are zero-filled, strings come back
// empty). A node decoded from a short stream is therefore usable but possibly
// incomplete.
type Reader struct {
	data []byte
	pos  int
	eof  bool
}

// NewReader returns a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, eof: len(data) == 0}
}

// Position returns the current cursor offset.
func (r *Reader) Position() int {
	return r.pos
}

// EOF reports whether a read has run past the end of the buffer.
func (r *Reader) EOF() bool {
	return r.eof
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.eof {
		return 0
	}
	return len(r.data) - r.pos
}

// advance moves the cursor forward by n, clamping it to the last byte.
func (r *Reader) advance(n int) {
	if n <= 0 {
		return
	}

	next := r.pos + n
	if next >= len(r.data) {
		r.eof = true
		next = len(r.data) - 1
		if next < 0 {
			next = 0
		}
	}
	r.pos = next
}

// NextByte returns the byte at the cursor and advances by one. It returns 0
// once the buffer is exhausted.
func (r *Reader) NextByte() byte {
	if r.eof {
		return 0
	}

	b := r.data[r.pos]
	r.advance(1)
	return b
}

// Next returns up to n bytes from the cursor and advances by n. Near the end of
// the buffer the returned slice is shorter than n. The slice aliases the
// reader's buffer.
func (r *Reader) Next(n int) []byte {
	if n <= 0 || r.eof {
		return nil
	}

	start := r.pos
	end := start + n
	if end > len(r.data) {
		end = len(r.data)
	}
	r.advance(n)
	return r.data[start:end]
}

// ReadString reads single-byte characters up to a zero byte or the end of the
// buffer. The terminator is consumed but not returned.
func (r *Reader) ReadString() string {
	var sb strings.Builder
	for {
		c := r.NextByte()
		if c == 0 {
			return sb.String()
		}
		sb.WriteRune(rune(c))
	}
}

// ReadInt reads a little-endian signed 32-bit integer.
func (r *Reader) ReadInt() int32 {
	var b [4]byte
	copy(b[:], r.Next(4))
	return int32(binary.LittleEndian.Uint32(b[:]))
}

// ReadInt64 reads a little-endian signed 64-bit integer.
func (r *Reader) ReadInt64() int64 {
	var b [8]byte
	copy(b[:], r.Next(8))
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// ReadDouble reads a little-endian IEEE-754 binary64 value.
func (r *Reader) ReadDouble() float64 {
	var b [8]byte
	copy(b[:], r.Next(8))
	return math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
}

// ReadCompressedInt reads a variable-length integer: one size byte whose low
// seven bits give the number of magnitude bytes (0 to 4) and whose high bit is
// the sign, followed by the magnitude in little-endian order.
func (r *Reader) ReadCompressedInt() int {
	size := r.NextByte()
	if size == 0 {
		return 0
	}

	n := int(size & 0x7f)
	if n > 4 {
		logger.Warnf("compressed int with %d magnitude bytes at offset %d, data is corrupted", n, r.pos)
		return 0
	}

	var b [4]byte
	for i := 0; i < n; i++ {
		b[i] = r.NextByte()
	}

	v := int64(binary.LittleEndian.Uint32(b[:]))
	if size&0x80 != 0 {
		v = -v
	}
	return int(v)
}
