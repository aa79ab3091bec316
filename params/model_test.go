package params

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/valuetree"
	"github.com/burntcarrot/treesync/wire"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type recorder struct {
	msgs []commons.Message
	err  error
}

func (r *recorder) WriteJSON(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, v.(commons.Message))
	return nil
}

func syncedReplica(t *testing.T, tree *valuetree.Tree) *valuetree.Synchroniser {
	t.Helper()

	s := valuetree.NewSynchroniser("PARAMETERS", valuetree.Invalid())
	apply(t, s, valuetree.EncodeFullSync(tree))
	return s
}

func apply(t *testing.T, s *valuetree.Synchroniser, changes ...[]byte) {
	t.Helper()

	batch := commons.StateChange{TreeID: s.TreeID()}
	for _, c := range changes {
		batch.Changes = append(batch.Changes, base64.StdEncoding.EncodeToString(c))
	}
	if _, err := s.HandleStateChange(batch); err != nil {
		t.Fatalf("applying batch: %v", err)
	}
}

func TestNewResolvesDefaultIDs(t *testing.T) {
	m, err := New(syncedReplica(t, NewTree("PARAMETERS", 3)), &recorder{})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if !cmp.Equal(m.IDs(), DefaultIDs) {
		t.Errorf("ids = %v", m.IDs())
	}

	got, err := m.Float(Density)
	if err != nil || got != 0.5 {
		t.Errorf("density = %v, err = %v", got, err)
	}
}

func TestNewMissingParameter(t *testing.T) {
	_, err := New(syncedReplica(t, NewTree("PARAMETERS", 3)), &recorder{}, Density, "gain", "pan")
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("err = %v, want ErrMissingParameter", err)
	}

	// Before the initial sync nothing can be resolved.
	_, err = New(valuetree.NewSynchroniser("PARAMETERS", valuetree.Invalid()), &recorder{})
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("err = %v, want ErrMissingParameter", err)
	}
}

func TestValueFollowsReplica(t *testing.T) {
	s := syncedReplica(t, NewTree("PARAMETERS", 3))
	m, err := New(s, &recorder{}, Stiffness)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	// stiffness is the second PARAM child.
	apply(t, s, valuetree.EncodePropertyChanged([]int{1}, ValueProperty, wire.DoubleVar(0.9)))
	if got, _ := m.Float(Stiffness); got != 0.9 {
		t.Errorf("stiffness = %v after change, want 0.9", got)
	}

	// A full sync replaces the nodes; the model looks them up again.
	fresh := NewTree("PARAMETERS", 3)
	fresh.ChildWithProperty(IDProperty, wire.StringVar(Stiffness)).SetProperty(ValueProperty, wire.DoubleVar(0.1))
	apply(t, s, valuetree.EncodeFullSync(fresh))
	if got, _ := m.Float(Stiffness); got != 0.1 {
		t.Errorf("stiffness = %v after full sync, want 0.1", got)
	}
}

func TestFloatErrors(t *testing.T) {
	tree := NewTree("PARAMETERS", 3)
	tree.ChildWithProperty(IDProperty, wire.StringVar(Alpha)).SetProperty(ValueProperty, wire.StringVar("loud"))
	m, err := New(syncedReplica(t, tree), &recorder{})
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	tests := []struct {
		description string
		id          string
		wantErr     error
	}{
		{description: "string value", id: Alpha, wantErr: ErrNotNumeric},
		{description: "unknown id", id: "gain", wantErr: ErrMissingParameter},
	}
	for _, tc := range tests {
		if _, err := m.Float(tc.id); !errors.Is(err, tc.wantErr) {
			t.Errorf("(%s) err = %v, want %v", tc.description, err, tc.wantErr)
		}
	}
}

func TestValues(t *testing.T) {
	m, err := New(syncedReplica(t, NewTree("PARAMETERS", 3)), &recorder{}, Alpha, Beta)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	want := map[string]wire.Var{Alpha: wire.DoubleVar(0.01), Beta: wire.DoubleVar(0.001)}
	if got := m.Values(); !cmp.Equal(got, want) {
		t.Errorf("got != want, diff: %v", cmp.Diff(got, want))
	}
}

func TestVertices(t *testing.T) {
	tree := NewTree("PARAMETERS", 4)
	polygon := tree.ChildWithType(PolygonType)
	incomplete := valuetree.New(VertexType)
	incomplete.SetProperty("x", wire.DoubleVar(1))
	if err := polygon.AppendChild(incomplete); err != nil {
		t.Fatalf("error: %v", err)
	}

	m, err := New(syncedReplica(t, tree), &recorder{})
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	want := []commons.Vertex{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 0, Y: -1}}
	approx := cmpopts.EquateApprox(0, 1e-9)
	if got := m.Vertices(); !cmp.Equal(got, want, approx) {
		t.Errorf("got != want, diff: %v", cmp.Diff(got, want, approx))
	}
}

func TestVerticesWithoutPolygon(t *testing.T) {
	tree := valuetree.New("PARAMETERS")
	p := valuetree.New(ParameterType)
	p.SetProperty(IDProperty, wire.StringVar(Density))
	if err := tree.AppendChild(p); err != nil {
		t.Fatalf("error: %v", err)
	}

	m, err := New(syncedReplica(t, tree), &recorder{}, Density)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got := m.Vertices(); got != nil {
		t.Errorf("vertices = %v, want nil", got)
	}
}

func TestSetSendsRequestOnly(t *testing.T) {
	s := syncedReplica(t, NewTree("PARAMETERS", 3))
	rec := &recorder{}
	m, err := New(s, rec)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	if err := m.Set(Density, 0.75); err != nil {
		t.Fatalf("error: %v", err)
	}
	if err := m.SetShape([]commons.Vertex{{X: 0.5, Y: -0.5}}); err != nil {
		t.Fatalf("error: %v", err)
	}
	if err := m.RequestSync(); err != nil {
		t.Fatalf("error: %v", err)
	}

	// The replica only changes when the host answers.
	if got, _ := m.Float(Density); got != 0.5 {
		t.Errorf("density = %v, replica was modified locally", got)
	}

	if len(rec.msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(rec.msgs))
	}

	wantEvents := []commons.EventType{commons.NewParameterEvent, commons.NewShapeEvent, commons.InitEvent}
	for i, msg := range rec.msgs {
		if msg.EventType != wantEvents[i] {
			t.Errorf("message %d event = %q, want %q", i, msg.EventType, wantEvents[i])
		}
	}

	var change commons.ParameterChange
	if err := json.Unmarshal(rec.msgs[0].Data, &change); err != nil {
		t.Fatalf("decoding parameter change: %v", err)
	}
	if change.ID != Density || !change.Value.Equal(wire.DoubleVar(0.75)) {
		t.Errorf("change = %+v", change)
	}
	if string(rec.msgs[0].Data) != `{"id":"density","value":0.75}` {
		t.Errorf("body = %s", rec.msgs[0].Data)
	}
	if rec.msgs[2].Data != nil {
		t.Errorf("init body = %s, want empty", rec.msgs[2].Data)
	}
}

func TestSetReportsSendFailure(t *testing.T) {
	sendErr := errors.New("connection closed")
	m, err := New(syncedReplica(t, NewTree("PARAMETERS", 3)), &recorder{err: sendErr})
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	if err := m.Set(Beta, 1); !errors.Is(err, sendErr) {
		t.Errorf("err = %v, want %v", err, sendErr)
	}
}

func TestNewTreeLayout(t *testing.T) {
	tree := NewTree("PARAMETERS", 5)

	if tree.NumChildren() != len(DefaultIDs)+1 {
		t.Fatalf("children = %d", tree.NumChildren())
	}
	for i, id := range DefaultIDs {
		got, _ := tree.Child(i).Property(IDProperty).AsString()
		if got != id || tree.Child(i).Type() != ParameterType {
			t.Errorf("child %d = %v", i, tree.Child(i))
		}
	}

	polygon := tree.ChildWithType(PolygonType)
	if polygon == nil || polygon.NumChildren() != 5 {
		t.Fatalf("polygon = %v", polygon)
	}
	for _, v := range polygon.Children() {
		x, _ := v.Property("x").Float()
		y, _ := v.Property("y").Float()
		if r := math.Hypot(x, y); math.Abs(r-1) > 1e-9 {
			t.Errorf("vertex (%v, %v) is off the unit circle", x, y)
		}
	}
}
