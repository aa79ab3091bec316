package valuetree

import "github.com/burntcarrot/treesync/wire"

// ReadFromStream decodes one tree: a type string, a property count, name and
// variant pairs, a child count and the children.
//
// An empty type yields the invalid sentinel, which is also how a truncated
// stream ends the recursion. Corrupt counts and names stop decoding and
// return the tree built so far. The only error is a variant the reader
// cannot represent (wire.ErrBinaryUnsupported).
func ReadFromStream(r *wire.Reader) (*Tree, error) {
	typ := r.ReadString()
	if typ == "" {
		return Invalid(), nil
	}

	t := New(typ)

	numProps := r.ReadCompressedInt()
	if numProps < 0 {
		logger.Warnf("tree %q has %d properties, data is corrupted", typ, numProps)
		return t, nil
	}

	for i := 0; i < numProps; i++ {
		name := r.ReadString()
		if name == "" {
			logger.Warnf("tree %q property %d has no name, data is corrupted", typ, i)
			return t, nil
		}

		v, err := r.ReadVar()
		if err != nil {
			return t, err
		}
		t.props.Set(name, v)
	}

	numChildren := r.ReadCompressedInt()
	for i := 0; i < numChildren; i++ {
		child, err := ReadFromStream(r)
		if err != nil {
			return t, err
		}

		// Stream ended early.
		if !child.IsValid() {
			return t, nil
		}

		t.children = append(t.children, child)
		child.parent = t
	}

	return t, nil
}

// WriteToStream encodes t the way the host does. The invalid sentinel is
// written as an empty type.
func (t *Tree) WriteToStream(w *wire.Writer) {
	if !t.IsValid() {
		w.PutString("")
		return
	}

	w.PutString(t.typ)
	w.PutCompressedInt(t.props.Len())
	t.props.Range(func(name string, v wire.Var) bool {
		w.PutString(name)
		w.PutVar(v)
		return true
	})

	w.PutCompressedInt(len(t.children))
	for _, c := range t.children {
		c.WriteToStream(w)
	}
}
