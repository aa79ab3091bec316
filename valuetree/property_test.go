package valuetree

import (
	"testing"

	"github.com/burntcarrot/treesync/wire"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestReplicaProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("stream round trip", prop.ForAll(
		func(types []string, values []int32) bool {
			root := New("Root")
			for i, typ := range types {
				child := New(typ)
				if i < len(values) {
					child.SetProperty("value", wire.IntVar(values[i]))
				}
				mustAppend(root, child)
			}

			decoded, err := ReadFromStream(wire.NewReader(encodeTree(root)))
			return err == nil && decoded.Equal(root)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Int32()),
	))

	properties.Property("replayed property changes converge", prop.ForAll(
		func(names []string, values []int32) bool {
			host := newTestTree()
			replica := newTestTree()

			for i, name := range names {
				// Alternate between the root and the nested child.
				target := host
				if i%2 == 1 {
					target = host.Child(0).Child(0)
				}
				v := wire.IntVar(0)
				if i < len(values) {
					v = wire.IntVar(values[i])
				}
				target.SetProperty(name, v)

				if err := ApplyChange(replica, EncodePropertyChanged(target.Path(), name, v), nil); err != nil {
					return false
				}
			}
			return replica.Equal(host)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Int32()),
	))

	properties.Property("child insertions converge", prop.ForAll(
		func(positions []uint8) bool {
			host := New("Root")
			replica := New("Root")

			for i, p := range positions {
				index := int(p) % (host.NumChildren() + 1)
				child := New("Child")
				child.SetProperty("n", wire.IntVar(int32(i)))

				record := EncodeChildAdded(nil, index, child)
				if err := host.InsertChild(index, child); err != nil {
					return false
				}
				if err := ApplyChange(replica, record, nil); err != nil {
					return false
				}
			}
			return replica.Equal(host)
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}

func TestRandomBytesNeverPanic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("apply", prop.ForAll(
		func(data []byte) bool {
			tree := newTestTree()
			before := tree.Clone()
			if err := ApplyChange(tree, data, nil); err != nil {
				// Rejected records leave the tree alone.
				return tree.Equal(before)
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)

	tree, err := ReadFromStream(wire.NewReader([]byte{0xff, 0xff}))
	require.NoError(t, err)
	require.Equal(t, 0, tree.NumChildren())
}
