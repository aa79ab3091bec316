package valuetree

import (
	"testing"

	"github.com/burntcarrot/treesync/wire"
)

// newTestTree builds the tree the host test suite serialises: six typed
// properties on the root, two children, and one grandchild under the first.
func newTestTree() *Tree {
	root := New("TestTree")
	root.SetProperty("stringProperty", wire.StringVar("Test"))
	root.SetProperty("intProperty", wire.IntVar(1234))
	root.SetProperty("int64Property", wire.Int64Var(9223372036854775800))
	root.SetProperty("doubleProperty", wire.DoubleVar(0.1234567))
	root.SetProperty("boolProperty", wire.BoolVar(true))
	root.SetProperty("arrayProperty", wire.ArrayVar(wire.StringVar("Test"), wire.IntVar(1234), wire.BoolVar(true)))

	child1 := New("TestChild1")
	child1.SetProperty("stringProperty", wire.StringVar("TestChildProperty"))
	nested := New("TestNestedChild1")
	nested.SetProperty("stringProperty", wire.StringVar("TestNestedChildProperty"))
	mustAppend(child1, nested)

	mustAppend(root, child1)
	mustAppend(root, New("TestChild2"))
	return root
}

func mustAppend(parent, child *Tree) {
	if err := parent.AppendChild(child); err != nil {
		panic(err)
	}
}

func encodeTree(t *Tree) []byte {
	w := wire.NewWriter()
	t.WriteToStream(w)
	return w.Bytes()
}

// decodedTestTree returns the fixture after a trip through the wire format.
func decodedTestTree(t *testing.T) *Tree {
	t.Helper()

	tree, err := ReadFromStream(wire.NewReader(encodeTree(newTestTree())))
	if err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return tree
}

func childTypes(t *Tree) []string {
	types := make([]string, 0, t.NumChildren())
	for _, c := range t.Children() {
		types = append(types, c.Type())
	}
	return types
}
