package valuetree

import (
	"errors"
	"fmt"

	"github.com/burntcarrot/treesync/wire"
)

// maxPathLevels bounds the depth a change record may address.
const maxPathLevels = 65536

// ApplyChange decodes one change record and applies it to root.
//
// A full-sync record replaces root's contents in place, so root keeps its
// identity, and then calls onFullSync if it is not nil. Every other record
// addresses a subtree by path and performs exactly one mutation on it.
//
// A nil error means the change was applied. On error the tree is left as it
// was; the error wraps ErrCorrupt, ErrOutOfSync or wire.ErrBinaryUnsupported.
func ApplyChange(root *Tree, data []byte, onFullSync func()) error {
	r := wire.NewReader(data)
	kind := ChangeKind(r.NextByte())

	if kind == FullSync {
		t, err := ReadFromStream(r)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}

		root.ReplaceWith(t)
		if onFullSync != nil {
			onFullSync()
		}
		return nil
	}

	if !kind.Valid() {
		return fmt.Errorf("%w: invalid operation %s", ErrCorrupt, kind)
	}

	subtree, err := readSubtreeLocation(root, r)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}

	switch kind {
	case PropertyChanged:
		name := r.ReadString()
		if name == "" {
			return fmt.Errorf("%s: %w: empty property name", kind, ErrCorrupt)
		}
		v, err := r.ReadVar()
		if err != nil {
			return fmt.Errorf("%s %q: %w", kind, name, err)
		}
		subtree.SetProperty(name, v)

	case PropertyRemoved:
		subtree.RemoveProperty(r.ReadString())

	case ChildAdded:
		index := r.ReadCompressedInt()
		child, err := ReadFromStream(r)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		if err := subtree.InsertChild(index, child); err != nil {
			return fmt.Errorf("%s: %w", kind, wrapIndexError(err))
		}

	case ChildRemoved:
		index := r.ReadCompressedInt()
		if _, err := subtree.RemoveChild(index); err != nil {
			return fmt.Errorf("%s: %w", kind, wrapIndexError(err))
		}

	case ChildMoved:
		oldIndex := r.ReadCompressedInt()
		newIndex := r.ReadCompressedInt()
		if err := subtree.SwapChildren(oldIndex, newIndex); err != nil {
			return fmt.Errorf("%s: %w", kind, wrapIndexError(err))
		}
	}

	logger.Debugf("applied %s at %v", kind, subtree.Path())
	return nil
}

// readSubtreeLocation follows the record's path from root.
func readSubtreeLocation(root *Tree, r *wire.Reader) (*Tree, error) {
	levels := r.ReadCompressedInt()
	if levels < 0 || levels > maxPathLevels {
		return nil, fmt.Errorf("%w: path of %d levels", ErrCorrupt, levels)
	}

	t := root
	for depth := 0; depth < levels; depth++ {
		index := r.ReadCompressedInt()
		if index < 0 || index >= len(t.children) {
			return nil, fmt.Errorf("%w: no child %d at depth %d", ErrOutOfSync, index, depth)
		}
		t = t.children[index]
	}

	if !t.IsValid() {
		return nil, fmt.Errorf("%w: path leads to an invalid tree", ErrOutOfSync)
	}
	return t, nil
}

// wrapIndexError classifies an error from a tree mutation. A bad index means
// the trees diverged; an invalid child means the record was cut short.
func wrapIndexError(err error) error {
	switch {
	case errors.Is(err, ErrIndexOutOfRange):
		return fmt.Errorf("%w: %w", ErrOutOfSync, err)
	case errors.Is(err, ErrInvalidTree):
		return fmt.Errorf("%w: truncated child", ErrCorrupt)
	}
	return err
}
