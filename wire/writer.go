package wire

import (
	"encoding/binary"
	"math"
)

// Writer encodes values in the host's stream format. The replica never writes
// to the host; Writer exists for the simulated host and for fixtures.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) PutByte(b byte) {
	w.buf = append(w.buf, b)
}

// PutString writes s followed by a zero terminator. s must not contain zero
// bytes, and only single-byte characters survive a round trip through
// ReadString.
func (w *Writer) PutString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *Writer) PutInt(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) PutInt64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

func (w *Writer) PutDouble(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// PutCompressedInt writes v using the fewest magnitude bytes. The magnitude
// must fit in 32 bits.
func (w *Writer) PutCompressedInt(v int) {
	neg := v < 0
	mag := uint32(v)
	if neg {
		mag = uint32(-int64(v))
	}

	var data [5]byte
	n := 0
	for mag > 0 {
		n++
		data[n] = byte(mag)
		mag >>= 8
	}

	data[0] = byte(n)
	if neg {
		data[0] |= 0x80
	}
	w.buf = append(w.buf, data[:n+1]...)
}

// PutVar writes a variant with its total-length prefix.
func (w *Writer) PutVar(v Var) {
	switch v.kind {
	case KindInt:
		w.PutCompressedInt(5)
		w.PutByte(markerInt)
		w.PutInt(int32(v.num))

	case KindInt64:
		w.PutCompressedInt(9)
		w.PutByte(markerInt64)
		w.PutInt64(v.num)

	case KindDouble:
		w.PutCompressedInt(9)
		w.PutByte(markerDouble)
		w.PutDouble(v.dbl)

	case KindBool:
		w.PutCompressedInt(1)
		if v.num != 0 {
			w.PutByte(markerBoolTrue)
		} else {
			w.PutByte(markerBoolFalse)
		}

	case KindString:
		w.PutCompressedInt(len(v.str) + 2)
		w.PutByte(markerString)
		w.PutString(v.str)

	case KindArray:
		body := NewWriter()
		body.PutCompressedInt(len(v.arr))
		for _, e := range v.arr {
			body.PutVar(e)
		}
		w.PutCompressedInt(1 + body.Len())
		w.PutByte(markerArray)
		w.buf = append(w.buf, body.buf...)

	default:
		w.PutCompressedInt(1)
		w.PutByte(markerUndefined)
	}
}
