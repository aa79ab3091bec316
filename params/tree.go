package params

import (
	"math"

	"github.com/burntcarrot/treesync/valuetree"
	"github.com/burntcarrot/treesync/wire"
)

const (
	ParameterType = "PARAM"
	VertexType    = "VERTEX"
)

var defaultValues = map[string]float64{
	Density:   0.5,
	Stiffness: 0.5,
	PRatio:    0.3,
	Alpha:     0.01,
	Beta:      0.001,
	XPos:      0,
	YPos:      0,
}

// NewTree builds a parameters tree the way the host lays it out: one PARAM
// child per default id and a polygon of regular vertices on the
// unit circle.
func NewTree(typ string, vertices int) *valuetree.Tree {
	root := valuetree.New(typ)

	for _, id := range DefaultIDs {
		p := valuetree.New(ParameterType)
		p.SetProperty(IDProperty, wire.StringVar(id))
		p.SetProperty(ValueProperty, wire.DoubleVar(defaultValues[id]))
		_ = root.AppendChild(p)
	}

	polygon := valuetree.New(PolygonType)
	for i := 0; i < vertices; i++ {
		angle := 2 * math.Pi * float64(i) / float64(vertices)
		v := valuetree.New(VertexType)
		v.SetProperty("x", wire.DoubleVar(math.Cos(angle)))
		v.SetProperty("y", wire.DoubleVar(math.Sin(angle)))
		_ = polygon.AppendChild(v)
	}
	_ = root.AppendChild(polygon)

	return root
}
