package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the payload held by a Var.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInt
	KindInt64
	KindDouble
	KindBool
	KindString
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Variant stream markers.
const (
	markerInt       byte = 1
	markerBoolTrue  byte = 2
	markerBoolFalse byte = 3
	markerDouble    byte = 4
	markerString    byte = 5
	markerInt64     byte = 6
	markerArray     byte = 7
	markerBinary    byte = 8
	markerUndefined byte = 9
)

// Var is a self-describing tagged value: absent, int32, int64, float64, bool,
// string or an ordered array of Vars. The zero value is absent.
type Var struct {
	kind Kind
	num  int64
	dbl  float64
	str  string
	arr  []Var
}

// Void is the absent value.
var Void = Var{}

func IntVar(v int32) Var { return Var{kind: KindInt, num: int64(v)} }
func Int64Var(v int64) Var { return Var{kind: KindInt64, num: v} }
func DoubleVar(v float64) Var { return Var{kind: KindDouble, dbl: v} }
func StringVar(v string) Var { return Var{kind: KindString, str: v} }

func BoolVar(v bool) Var {
	if v {
		return Var{kind: KindBool, num: 1}
	}
	return Var{kind: KindBool}
}

func ArrayVar(elems ...Var) Var {
	if elems == nil {
		elems = []Var{}
	}
	return Var{kind: KindArray, arr: elems}
}

// Kind returns the payload kind.
func (v Var) Kind() Kind { return v.kind }

// IsVoid reports whether v is absent.
func (v Var) IsVoid() bool { return v.kind == KindVoid }

func (v Var) AsInt() (int32, bool) { return int32(v.num), v.kind == KindInt }
func (v Var) AsInt64() (int64, bool) { return v.num, v.kind == KindInt64 }
func (v Var) AsDouble() (float64, bool) { return v.dbl, v.kind == KindDouble }
func (v Var) AsBool() (bool, bool) { return v.num != 0, v.kind == KindBool }
func (v Var) AsString() (string, bool) { return v.str, v.kind == KindString }

// Array returns the elements of an array value, or nil for any other kind.
func (v Var) Array() []Var {
	return v.arr
}

// Float converts any numeric kind to float64. Int64 values beyond 2^53 lose
// precision here; use AsInt64 for exact access.
func (v Var) Float() (float64, bool) {
	switch v.kind {
	case KindInt, KindInt64:
		return float64(v.num), true
	case KindDouble:
		return v.dbl, true
	}
	return 0, false
}

// Equal reports deep equality. Int and Int64 are distinct kinds even when the
// numbers match.
func (v Var) Equal(o Var) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindInt, KindInt64, KindBool:
		return v.num == o.num
	case KindDouble:
		return v.dbl == o.dbl
	case KindString:
		return v.str == o.str
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
	}
	return true
}

// Interface returns the payload as a plain Go value: nil, int32, int64,
// float64, bool, string or []interface{}.
func (v Var) Interface() interface{} {
	switch v.kind {
	case KindInt:
		return int32(v.num)
	case KindInt64:
		return v.num
	case KindDouble:
		return v.dbl
	case KindBool:
		return v.num != 0
	case KindString:
		return v.str
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

func (v Var) String() string {
	switch v.kind {
	case KindVoid:
		return "<void>"
	case KindString:
		return strconv.Quote(v.str)
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v.Interface())
}

func (v Var) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON maps JSON onto a Var. Numbers become doubles, since that is
// what parameter values are on the host.
func (v *Var) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out, err := fromInterface(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func fromInterface(raw interface{}) (Var, error) {
	switch x := raw.(type) {
	case nil:
		return Void, nil
	case float64:
		return DoubleVar(x), nil
	case bool:
		return BoolVar(x), nil
	case string:
		return StringVar(x), nil
	case []interface{}:
		elems := make([]Var, len(x))
		for i, e := range x {
			ev, err := fromInterface(e)
			if err != nil {
				return Void, err
			}
			elems[i] = ev
		}
		return ArrayVar(elems...), nil
	}
	return Void, fmt.Errorf("cannot represent %T as a variant", raw)
}

// ReadVar decodes one variant: a compressed-int total length, a marker byte
// and the payload. Unknown markers are skipped using the total length so the
// cursor stays aligned. The only error is ErrBinaryUnsupported.
func (r *Reader) ReadVar() (Var, error) {
	offset := r.pos
	total := r.ReadCompressedInt()
	if total == 0 {
		logger.Warnf("variant at offset %d has zero length, data is corrupted", offset)
		return Void, nil
	}

	marker := r.NextByte()
	switch marker {
	case markerInt:
		return IntVar(r.ReadInt()), nil

	case markerInt64:
		return Int64Var(r.ReadInt64()), nil

	case markerBoolTrue:
		return BoolVar(true), nil

	case markerBoolFalse:
		return BoolVar(false), nil

	case markerDouble:
		return DoubleVar(r.ReadDouble()), nil

	case markerString:
		s := string(r.Next(total - 2))
		// Skip the zero terminator.
		r.advance(1)
		return StringVar(strings.ToValidUTF8(s, "\uFFFD")), nil

	case markerArray:
		count := r.ReadCompressedInt()
		elems := make([]Var, 0, clampCap(count, r.Remaining()))
		for i := 0; i < count; i++ {
			if r.EOF() {
				logger.Warnf("array at offset %d truncated after %d of %d elements", offset, i, count)
				break
			}
			e, err := r.ReadVar()
			if err != nil {
				return Void, err
			}
			elems = append(elems, e)
		}
		return ArrayVar(elems...), nil

	case markerBinary:
		return Void, fmt.Errorf("variant at offset %d: %w", offset, ErrBinaryUnsupported)

	default:
		r.advance(total - 1)
		return Void, nil
	}
}

// clampCap bounds a capacity hint taken from the stream.
func clampCap(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
