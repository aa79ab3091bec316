// Package params exposes the host's parameters tree as a small model with
// fixed parameter identifiers.
package params

import (
	"errors"
	"fmt"
	"sync"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/valuetree"
	"github.com/burntcarrot/treesync/wire"
)

var (
	ErrMissingParameter = errors.New("parameter not found in tree")
	ErrNotNumeric       = errors.New("parameter value is not numeric")
)

// Parameter identifiers known to the host.
const (
	Density   = "density"
	Stiffness = "stiffness"
	PRatio    = "pratio"
	Alpha     = "alpha"
	Beta      = "beta"
	XPos      = "xpos"
	YPos      = "ypos"
)

// DefaultIDs are the parameters every host tree carries.
var DefaultIDs = []string{Density, Stiffness, PRatio, Alpha, Beta, XPos, YPos}

const (
	// IDProperty names the property that identifies a parameter node.
	IDProperty = "id"
	// ValueProperty holds a parameter's current value.
	ValueProperty = "value"
	// PolygonType is the type of the node holding the shape's vertices.
	PolygonType = "polygon"
)

// Viewer gives read access to a replica. *valuetree.Synchroniser is one.
type Viewer interface {
	View(fn func(root *valuetree.Tree))
}

// Sender delivers a message to the host. *websocket.Conn is one.
type Sender interface {
	WriteJSON(v interface{}) error
}

// Model reads parameters from a replica and sends change requests to the
// host. It never writes to the replica: the host's answer arrives as an
// ordinary state change.
type Model struct {
	view Viewer
	ids  []string

	sendMu sync.Mutex
	sender Sender
}

// New checks that every id exists in the replica and returns a model over
// them. With no ids, DefaultIDs are used. Call it after the initial sync.
func New(view Viewer, sender Sender, ids ...string) (*Model, error) {
	if len(ids) == 0 {
		ids = DefaultIDs
	}

	var missing []string
	view.View(func(root *valuetree.Tree) {
		for _, id := range ids {
			if lookup(root, id) == nil {
				missing = append(missing, id)
			}
		}
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingParameter, missing)
	}

	return &Model{
		view:   view,
		ids:    append([]string(nil), ids...),
		sender: sender,
	}, nil
}

func lookup(root *valuetree.Tree, id string) *valuetree.Tree {
	return root.ChildWithProperty(IDProperty, wire.StringVar(id))
}

// IDs returns the parameter identifiers of the model, in order.
func (m *Model) IDs() []string {
	return append([]string(nil), m.ids...)
}

// Value returns the current value of a parameter. Nodes are looked up on
// every call, since a full sync replaces them.
func (m *Model) Value(id string) (wire.Var, error) {
	var (
		v     wire.Var
		found bool
	)
	m.view.View(func(root *valuetree.Tree) {
		if node := lookup(root, id); node != nil {
			v, found = node.Property(ValueProperty), true
		}
	})
	if !found {
		return wire.Void, fmt.Errorf("%w: %s", ErrMissingParameter, id)
	}
	return v, nil
}

// Float returns a numeric parameter as float64.
func (m *Model) Float(id string) (float64, error) {
	v, err := m.Value(id)
	if err != nil {
		return 0, err
	}

	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("%w: %s is %s", ErrNotNumeric, id, v.Kind())
	}
	return f, nil
}

// Values returns every parameter value keyed by id.
func (m *Model) Values() map[string]wire.Var {
	out := make(map[string]wire.Var, len(m.ids))
	m.view.View(func(root *valuetree.Tree) {
		for _, id := range m.ids {
			if node := lookup(root, id); node != nil {
				out[id] = node.Property(ValueProperty)
			}
		}
	})
	return out
}

// Vertices returns the polygon's vertices, skipping children without both
// coordinates. It returns nil when the tree has no polygon.
func (m *Model) Vertices() []commons.Vertex {
	var out []commons.Vertex
	m.view.View(func(root *valuetree.Tree) {
		polygon := root.ChildWithType(PolygonType)
		if polygon == nil {
			return
		}
		for _, child := range polygon.Children() {
			x, okX := child.Property("x").Float()
			y, okY := child.Property("y").Float()
			if okX && okY {
				out = append(out, commons.Vertex{X: x, Y: y})
			}
		}
	})
	return out
}

// Set asks the host to change a parameter.
func (m *Model) Set(id string, value float64) error {
	return m.send(commons.NewParameterEvent, commons.ParameterChange{ID: id, Value: wire.DoubleVar(value)})
}

// SetShape asks the host to move the polygon's vertices.
func (m *Model) SetShape(shape []commons.Vertex) error {
	return m.send(commons.NewShapeEvent, commons.ShapeChange{Shape: shape})
}

// RequestSync asks the host for a full sync.
func (m *Model) RequestSync() error {
	return m.send(commons.InitEvent, nil)
}

func (m *Model) send(eventType commons.EventType, data interface{}) error {
	msg, err := commons.NewMessage(eventType, data)
	if err != nil {
		return err
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	if err := m.sender.WriteJSON(msg); err != nil {
		return fmt.Errorf("sending %s: %w", eventType, err)
	}
	return nil
}
