// Package valuetree holds the client replica of the host's value tree and the
// synchroniser that keeps it up to date from a stream of change records.
package valuetree

import (
	"fmt"
	"strings"

	"github.com/burntcarrot/treesync/wire"
)

// Tree is a node of the replica: a type name, ordered properties and ordered
// children. A Tree with an empty type is the invalid sentinel.
//
// Children are owned by their parent. The parent link is a plain back-pointer
// and never keeps a subtree alive on its own.
type Tree struct {
	typ      string
	props    Properties
	children []*Tree
	parent   *Tree
}

// New returns a detached tree of the given type.
func New(typ string) *Tree {
	return &Tree{typ: typ}
}

// Invalid returns a fresh invalid sentinel.
func Invalid() *Tree {
	return &Tree{}
}

func (t *Tree) Type() string {
	return t.typ
}

// IsValid reports whether t has a type.
func (t *Tree) IsValid() bool {
	return t != nil && t.typ != ""
}

// Parent returns the enclosing tree, or nil for a root.
func (t *Tree) Parent() *Tree {
	return t.parent
}

// Properties returns the property map of t.
func (t *Tree) Properties() *Properties {
	return &t.props
}

// Property returns the value of name, or wire.Void when it is not set.
func (t *Tree) Property(name string) wire.Var {
	v, _ := t.props.Get(name)
	return v
}

func (t *Tree) SetProperty(name string, v wire.Var) {
	t.props.Set(name, v)
}

// RemoveProperty deletes name. Removing an absent name does nothing.
func (t *Tree) RemoveProperty(name string) bool {
	return t.props.Remove(name)
}

func (t *Tree) NumChildren() int {
	return len(t.children)
}

// Child returns the child at index, or nil when index is out of range.
func (t *Tree) Child(index int) *Tree {
	if index < 0 || index >= len(t.children) {
		return nil
	}
	return t.children[index]
}

// Children returns the children in order. The slice must not be modified.
func (t *Tree) Children() []*Tree {
	return t.children
}

// ChildWithType returns the first child of the given type, or nil.
func (t *Tree) ChildWithType(typ string) *Tree {
	for _, c := range t.children {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// ChildWithProperty returns the first child whose property name equals v, or nil.
func (t *Tree) ChildWithProperty(name string, v wire.Var) *Tree {
	for _, c := range t.children {
		if got, ok := c.props.Get(name); ok && got.Equal(v) {
			return c
		}
	}
	return nil
}

// IndexOf returns the position of child among t's children, or -1.
func (t *Tree) IndexOf(child *Tree) int {
	for i, c := range t.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Root returns the topmost ancestor of t.
func (t *Tree) Root() *Tree {
	for t.parent != nil {
		t = t.parent
	}
	return t
}

// Path returns the child indices leading from the root to t.
func (t *Tree) Path() []int {
	var path []int
	for n := t; n.parent != nil; n = n.parent {
		path = append(path, n.parent.IndexOf(n))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// InsertChild inserts child at index, shifting later children right. index
// may equal NumChildren to append. child must not be attached elsewhere.
func (t *Tree) InsertChild(index int, child *Tree) error {
	if !child.IsValid() {
		return ErrInvalidTree
	}
	if index < 0 || index > len(t.children) {
		return fmt.Errorf("insert at %d of %d: %w", index, len(t.children), ErrIndexOutOfRange)
	}

	t.children = append(t.children, nil)
	copy(t.children[index+1:], t.children[index:])
	t.children[index] = child
	child.parent = t
	return nil
}

// AppendChild adds child after the existing children.
func (t *Tree) AppendChild(child *Tree) error {
	return t.InsertChild(len(t.children), child)
}

// RemoveChild detaches and returns the child at index.
func (t *Tree) RemoveChild(index int) (*Tree, error) {
	if index < 0 || index >= len(t.children) {
		return nil, fmt.Errorf("remove %d of %d: %w", index, len(t.children), ErrIndexOutOfRange)
	}

	child := t.children[index]
	copy(t.children[index:], t.children[index+1:])
	t.children[len(t.children)-1] = nil
	t.children = t.children[:len(t.children)-1]
	child.parent = nil
	return child, nil
}

// SwapChildren exchanges the children at a and b. This is what the host's
// move record means; the other children keep their positions.
func (t *Tree) SwapChildren(a, b int) error {
	n := len(t.children)
	if a < 0 || a >= n || b < 0 || b >= n {
		return fmt.Errorf("swap %d and %d of %d: %w", a, b, n, ErrIndexOutOfRange)
	}

	t.children[a], t.children[b] = t.children[b], t.children[a]
	return nil
}

// ReplaceWith moves the contents of other into t, keeping t's identity so
// holders of t see the new state. other must not be used afterwards.
func (t *Tree) ReplaceWith(other *Tree) {
	t.typ = other.typ
	t.props = other.props
	t.children = other.children
	t.parent = other.parent
	for _, c := range t.children {
		c.parent = t
	}
}

// Clone returns a detached deep copy of t.
func (t *Tree) Clone() *Tree {
	out := &Tree{typ: t.typ, props: t.props.clone()}
	if len(t.children) > 0 {
		out.children = make([]*Tree, len(t.children))
		for i, c := range t.children {
			cc := c.Clone()
			cc.parent = out
			out.children[i] = cc
		}
	}
	return out
}

// Equal reports structural equality: type, properties and children, ignoring parents.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.typ != o.typ || !t.props.Equal(&o.props) || len(t.children) != len(o.children) {
		return false
	}
	for i := range t.children {
		if !t.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// String renders t and its descendants, one node per line.
func (t *Tree) String() string {
	var sb strings.Builder
	t.dump(&sb, 0)
	return sb.String()
}

func (t *Tree) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if !t.IsValid() {
		sb.WriteString("<invalid>\n")
		return
	}

	sb.WriteString(t.typ)
	if t.props.Len() > 0 {
		sb.WriteString(" {")
		first := true
		t.props.Range(func(name string, v wire.Var) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(name)
			sb.WriteString("=")
			sb.WriteString(v.String())
			return true
		})
		sb.WriteString("}")
	}
	sb.WriteString("\n")

	for _, c := range t.children {
		c.dump(sb, depth+1)
	}
}
