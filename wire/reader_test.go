package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadString(t *testing.T) {
	r := NewReader([]byte("1test1\x002test2\x00"))

	got := []string{r.ReadString(), r.ReadString(), r.ReadString()}
	want := []string{"1test1", "2test2", ""}

	if !cmp.Equal(got, want) {
		t.Errorf("got != want; diff = %v\n", cmp.Diff(got, want))
	}
}

func TestReadStringUnterminated(t *testing.T) {
	r := NewReader([]byte("abc"))

	if got := r.ReadString(); got != "abc" {
		t.Errorf("got = %q, want %q", got, "abc")
	}
	if !r.EOF() {
		t.Errorf("reader should be exhausted")
	}
}

func TestReadStringLatin1(t *testing.T) {
	r := NewReader([]byte{0x63, 0x61, 0x66, 0xe9, 0x00})

	if got := r.ReadString(); got != "café" {
		t.Errorf("got = %q, want %q", got, "café")
	}
}

func TestReadInt(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
		expected    int32
	}{
		{description: "1 byte", data: []byte{0x7b}, expected: 123},
		{description: "2 bytes", data: []byte{0xd2, 0x04}, expected: 1234},
		{description: "3 bytes", data: []byte{0x87, 0xd6, 0x12}, expected: 1234567},
		{description: "4 bytes", data: []byte{0x15, 0xcd, 0x5b, 0x07}, expected: 123456789},
		{description: "negative", data: []byte{0xff, 0xff, 0xff, 0xff}, expected: -1},
	}

	for _, tc := range tests {
		got := NewReader(tc.data).ReadInt()
		if got != tc.expected {
			t.Errorf("(%s) got = %v, expected = %v", tc.description, got, tc.expected)
		}
	}
}

func TestReadInt64(t *testing.T) {
	r := NewReader([]byte{0xf8, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f})

	got := r.ReadInt64()
	var want int64 = 9223372036854775800

	if got != want {
		t.Errorf("got = %v, want = %v", got, want)
	}
}

func TestReadDouble(t *testing.T) {
	r := NewReader([]byte{0x72, 0xda, 0xf8, 0xb8, 0xdb, 0x9a, 0xbf, 0x3f})

	if got := r.ReadDouble(); got != 0.1234567 {
		t.Errorf("got = %v, want = %v", got, 0.1234567)
	}
}

func TestReadCompressedInt(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
		expected    int
		consumed    int
	}{
		{description: "zero", data: []byte{0x00, 0xff}, expected: 0, consumed: 1},
		{description: "1 byte", data: []byte{0x01, 0x7b}, expected: 123, consumed: 2},
		{description: "2 bytes", data: []byte{0x02, 0xd2, 0x04}, expected: 1234, consumed: 3},
		{description: "3 bytes", data: []byte{0x03, 0x87, 0xd6, 0x12}, expected: 1234567, consumed: 4},
		{description: "4 bytes", data: []byte{0x04, 0x15, 0xcd, 0x5b, 0x07}, expected: 123456789, consumed: 5},
		{description: "negative", data: []byte{0x81, 0x7b}, expected: -123, consumed: 2},
		{description: "negative 4 bytes", data: []byte{0x84, 0x00, 0x00, 0x00, 0x80}, expected: -2147483648, consumed: 5},
		{description: "corrupt size", data: []byte{0x05, 0x01, 0x02}, expected: 0, consumed: 1},
	}

	for _, tc := range tests {
		// Pad so the cursor can move past the value without clamping.
		r := NewReader(append(tc.data, 0xee))
		got := r.ReadCompressedInt()

		if got != tc.expected {
			t.Errorf("(%s) got = %v, expected = %v", tc.description, got, tc.expected)
		}
		if r.Position() != tc.consumed {
			t.Errorf("(%s) consumed %d bytes, expected %d", tc.description, r.Position(), tc.consumed)
		}
	}
}

func TestReadPastEnd(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})

	if got := r.Next(5); !cmp.Equal(got, []byte{0x01, 0x02}) {
		t.Errorf("got = %v, want the remaining two bytes", got)
	}

	// The cursor stays on the last byte.
	if r.Position() != 1 {
		t.Errorf("position = %d, want 1", r.Position())
	}
	if !r.EOF() || r.Remaining() != 0 {
		t.Errorf("reader should be exhausted")
	}

	if got := r.NextByte(); got != 0 {
		t.Errorf("NextByte past end = %v, want 0", got)
	}
	if got := r.ReadInt(); got != 0 {
		t.Errorf("ReadInt past end = %v, want 0", got)
	}
	if got := r.ReadDouble(); got != 0 {
		t.Errorf("ReadDouble past end = %v, want 0", got)
	}
	if got := r.ReadString(); got != "" {
		t.Errorf("ReadString past end = %q, want empty", got)
	}
}

func TestReadIntTruncated(t *testing.T) {
	// Missing high bytes are zero-filled.
	r := NewReader([]byte{0xd2, 0x04})

	if got := r.ReadInt(); got != 1234 {
		t.Errorf("got = %v, want 1234", got)
	}
}

func TestEmptyBuffer(t *testing.T) {
	r := NewReader(nil)

	if r.NextByte() != 0 || r.ReadCompressedInt() != 0 || r.ReadString() != "" {
		t.Errorf("reads from an empty buffer should yield zero values")
	}
	if r.Position() != 0 {
		t.Errorf("position = %d, want 0", r.Position())
	}
}
