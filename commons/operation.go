package commons

import "github.com/burntcarrot/treesync/wire"

// ParameterChange represents an out-of-band request to change a host parameter.
// It never touches the replica directly; the host answers with a regular state change.
type ParameterChange struct {
	// ID is the parameter identifier, for example "density".
	ID string `json:"id"`

	// Value is the requested value. Sliders send numbers.
	Value wire.Var `json:"value"`
}

// Vertex is one corner of the polygon, in the range [-1, 1] on both axes.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeChange asks the host to move the polygon's vertices. The host only
// accepts a shape with as many vertices as the polygon already has.
type ShapeChange struct {
	Shape []Vertex `json:"shape"`
}
