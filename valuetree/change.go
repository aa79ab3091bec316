package valuetree

import (
	"strconv"

	"github.com/burntcarrot/treesync/wire"
)

// ChangeKind is the first byte of a change record.
type ChangeKind byte

const (
	PropertyChanged ChangeKind = 1
	FullSync        ChangeKind = 2
	ChildAdded      ChangeKind = 3
	ChildRemoved    ChangeKind = 4
	ChildMoved      ChangeKind = 5
	PropertyRemoved ChangeKind = 6
)

func (k ChangeKind) String() string {
	switch k {
	case PropertyChanged:
		return "propertyChanged"
	case FullSync:
		return "fullSync"
	case ChildAdded:
		return "childAdded"
	case ChildRemoved:
		return "childRemoved"
	case ChildMoved:
		return "childMoved"
	case PropertyRemoved:
		return "propertyRemoved"
	}
	return "unknown(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the known change kinds.
func (k ChangeKind) Valid() bool {
	return k >= PropertyChanged && k <= PropertyRemoved
}

// The encoders below produce records byte-compatible with the host. path
// lists child indices from the root to the tree the change applies to; for
// child changes that is the parent.

func writeHeader(w *wire.Writer, kind ChangeKind, path []int) {
	w.PutByte(byte(kind))
	w.PutCompressedInt(len(path))
	for _, index := range path {
		w.PutCompressedInt(index)
	}
}

// EncodeFullSync encodes a record that replaces the whole replica with t.
func EncodeFullSync(t *Tree) []byte {
	w := wire.NewWriter()
	w.PutByte(byte(FullSync))
	t.WriteToStream(w)
	return w.Bytes()
}

func EncodePropertyChanged(path []int, name string, v wire.Var) []byte {
	w := wire.NewWriter()
	writeHeader(w, PropertyChanged, path)
	w.PutString(name)
	w.PutVar(v)
	return w.Bytes()
}

func EncodePropertyRemoved(path []int, name string) []byte {
	w := wire.NewWriter()
	writeHeader(w, PropertyRemoved, path)
	w.PutString(name)
	return w.Bytes()
}

func EncodeChildAdded(path []int, index int, child *Tree) []byte {
	w := wire.NewWriter()
	writeHeader(w, ChildAdded, path)
	w.PutCompressedInt(index)
	child.WriteToStream(w)
	return w.Bytes()
}

func EncodeChildRemoved(path []int, index int) []byte {
	w := wire.NewWriter()
	writeHeader(w, ChildRemoved, path)
	w.PutCompressedInt(index)
	return w.Bytes()
}

func EncodeChildMoved(path []int, oldIndex, newIndex int) []byte {
	w := wire.NewWriter()
	writeHeader(w, ChildMoved, path)
	w.PutCompressedInt(oldIndex)
	w.PutCompressedInt(newIndex)
	return w.Bytes()
}
