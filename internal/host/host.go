// Package host implements a simulated plugin host: it owns the authoritative
// parameters tree and streams its changes to every connected client over
// WebSocket.
package host

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/dispatch"
	"github.com/burntcarrot/treesync/internal/telemetry"
	"github.com/burntcarrot/treesync/params"
	"github.com/burntcarrot/treesync/valuetree"
	"github.com/burntcarrot/treesync/wire"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the host's logger.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}

type eventKind int

const (
	joined eventKind = iota
	left
	received
)

// event is everything a connection reports to the run loop.
type event struct {
	kind eventKind
	id   uuid.UUID
	conn *websocket.Conn
	msg  commons.Message
}

// Host serves WebSocket clients. All writes to client connections happen on
// the goroutine running Run.
type Host struct {
	treeID   string
	upgrader websocket.Upgrader
	registry *dispatch.Registry

	mu   sync.Mutex
	tree *valuetree.Tree

	clientsMu sync.Mutex
	clients   map[uuid.UUID]*websocket.Conn

	events  chan event
	done    chan struct{}
	pending [][]byte
}

// New returns a host for tree, announced to clients as treeID.
func New(treeID string, tree *valuetree.Tree) *Host {
	h := &Host{
		treeID:   treeID,
		registry: dispatch.New(),
		tree:     tree,
		clients:  make(map[uuid.UUID]*websocket.Conn),
		events:   make(chan event),
		done:     make(chan struct{}),
	}

	h.registry.Register(commons.NewParameterEvent, h.handleParameter)
	h.registry.Register(commons.NewShapeEvent, h.handleShape)

	return h
}

func (h *Host) TreeID() string {
	return h.treeID
}

// Snapshot returns a copy of the authoritative tree.
func (h *Host) Snapshot() *valuetree.Tree {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tree.Clone()
}

// Clients returns the number of connected clients.
func (h *Host) Clients() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and forwards its messages to the run
// loop until the client goes away. Run must be running.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("upgrading connection to websocket: %v", err)
		return
	}

	id := uuid.New()
	if !h.post(event{kind: joined, id: id, conn: conn}) {
		conn.Close()
		return
	}

	for {
		var msg commons.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithField("client", id).Warnf("websocket error: %v", err)
			}
			h.post(event{kind: left, id: id})
			return
		}

		if !h.post(event{kind: received, id: id, conn: conn, msg: msg}) {
			return
		}
	}
}

func (h *Host) post(ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Run handles connection events until ctx is cancelled, then closes every
// client connection.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case ev := <-h.events:
			h.handle(ev)
		}
	}
}

func (h *Host) handle(ev event) {
	switch ev.kind {
	case joined:
		h.clientsMu.Lock()
		h.clients[ev.id] = ev.conn
		h.clientsMu.Unlock()
		telemetry.ConnectedClients.Inc()

		logger.WithField("client", ev.id).Info("client connected")
		h.sendFullSync(ev.id, ev.conn)

	case left:
		logger.WithField("client", ev.id).Info("client disconnected")
		h.drop(ev.id)

	case received:
		if ev.msg.EventType == commons.InitEvent {
			logger.WithField("client", ev.id).Debug("full sync requested")
			h.sendFullSync(ev.id, ev.conn)
			return
		}

		h.registry.Dispatch(ev.msg)
		h.flush()
	}
}

func (h *Host) sendFullSync(id uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	record := valuetree.EncodeFullSync(h.tree)
	h.mu.Unlock()

	if err := conn.WriteJSON(h.stateChange(record)); err != nil {
		logger.WithField("client", id).Errorf("sending full sync: %v", err)
		h.drop(id)
	}
}

// flush broadcasts the records queued by the handlers as one batch.
func (h *Host) flush() {
	if len(h.pending) == 0 {
		return
	}
	msg := h.stateChange(h.pending...)
	h.pending = nil

	h.clientsMu.Lock()
	clients := make(map[uuid.UUID]*websocket.Conn, len(h.clients))
	for id, conn := range h.clients {
		clients[id] = conn
	}
	h.clientsMu.Unlock()

	for id, conn := range clients {
		if err := conn.WriteJSON(msg); err != nil {
			logger.WithField("client", id).Errorf("sending state change: %v", err)
			h.drop(id)
		}
	}
}

func (h *Host) stateChange(records ...[]byte) commons.Message {
	change := commons.StateChange{TreeID: h.treeID, Changes: make([]string, 0, len(records))}
	for _, r := range records {
		change.Changes = append(change.Changes, base64.StdEncoding.EncodeToString(r))
	}

	// A StateChange always encodes.
	msg, _ := commons.NewMessage(commons.StateChangeEvent, change)
	return msg
}

func (h *Host) drop(id uuid.UUID) {
	h.clientsMu.Lock()
	conn, ok := h.clients[id]
	delete(h.clients, id)
	h.clientsMu.Unlock()

	if ok {
		telemetry.ConnectedClients.Dec()
		conn.Close()
	}
}

func (h *Host) closeAll() {
	h.clientsMu.Lock()
	ids := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.clientsMu.Unlock()

	for _, id := range ids {
		h.drop(id)
	}
}

func (h *Host) handleParameter(data json.RawMessage) error {
	var change commons.ParameterChange
	if err := json.Unmarshal(data, &change); err != nil {
		return fmt.Errorf("decoding parameter change: %w", err)
	}

	record, err := h.setParameter(change.ID, change.Value)
	if err != nil {
		return err
	}
	h.pending = append(h.pending, record)
	return nil
}

func (h *Host) setParameter(id string, v wire.Var) ([]byte, error) {
	if v.IsVoid() {
		return nil, fmt.Errorf("%w: %s", ErrMissingValue, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	node := h.tree.ChildWithProperty(params.IDProperty, wire.StringVar(id))
	if node == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}

	node.SetProperty(params.ValueProperty, v)
	logger.Debugf("parameter %s = %v", id, v)
	return valuetree.EncodePropertyChanged(node.Path(), params.ValueProperty, v), nil
}

func (h *Host) handleShape(data json.RawMessage) error {
	var change commons.ShapeChange
	if err := json.Unmarshal(data, &change); err != nil {
		return fmt.Errorf("decoding shape change: %w", err)
	}

	records, err := h.setShape(change.Shape)
	if err != nil {
		return err
	}
	h.pending = append(h.pending, records...)
	return nil
}

func (h *Host) setShape(shape []commons.Vertex) ([][]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	polygon := h.tree.ChildWithType(params.PolygonType)
	if polygon == nil {
		return nil, ErrNoPolygon
	}
	if len(shape) != polygon.NumChildren() {
		return nil, fmt.Errorf("%w: got %d vertices, have %d", ErrShapeMismatch, len(shape), polygon.NumChildren())
	}

	records := make([][]byte, 0, 2*len(shape))
	for i, vertex := range shape {
		node := polygon.Child(i)
		x, y := wire.DoubleVar(vertex.X), wire.DoubleVar(vertex.Y)
		node.SetProperty("x", x)
		node.SetProperty("y", y)

		path := node.Path()
		records = append(records,
			valuetree.EncodePropertyChanged(path, "x", x),
			valuetree.EncodePropertyChanged(path, "y", y),
		)
	}
	return records, nil
}
