package main

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/dispatch"
	"github.com/burntcarrot/treesync/params"
	"github.com/burntcarrot/treesync/valuetree"
	"github.com/gorilla/websocket"
)

var errNotSynced = errors.New("no initial sync yet")

// lockedWriter serialises writes to a connection shared by the dispatch loop
// and the inspector.
type lockedWriter struct {
	mu   sync.Mutex
	conn params.Sender
}

func (w *lockedWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// engine ties a replica to a host connection.
type engine struct {
	out      *lockedWriter
	replica  *valuetree.Synchroniser
	registry *dispatch.Registry
	model    atomic.Pointer[params.Model]

	// resyncRequested is only touched on the dispatch goroutine.
	resyncRequested bool
}

func newEngine(conn params.Sender, treeID string) *engine {
	e := &engine{
		out:      &lockedWriter{conn: conn},
		registry: dispatch.New(),
	}
	e.replica = valuetree.NewSynchroniser(treeID, valuetree.Invalid(), valuetree.WithInitialSync(e.onInitialSync))

	e.registry.Register(commons.StateChangeEvent, e.replica.HandleMessage)
	e.registry.Register(commons.StateChangeEvent, e.checkSync)

	return e
}

func (e *engine) onInitialSync() {
	model, err := params.New(e.replica, e.out)
	if err != nil {
		logger.Warnf("parameters unavailable: %v", err)
		return
	}

	e.model.Store(model)
	logger.Infof("initial sync received, parameters: %v", model.Values())
}

// checkSync asks for a full sync once whenever the replica falls out of sync.
func (e *engine) checkSync(json.RawMessage) error {
	if !e.replica.OutOfSync() {
		e.resyncRequested = false
		return nil
	}
	if e.resyncRequested {
		return nil
	}

	logger.Warn("replica out of sync, requesting a full sync")
	e.resyncRequested = true
	return e.requestSync()
}

func (e *engine) requestSync() error {
	msg, err := commons.NewMessage(commons.InitEvent, nil)
	if err != nil {
		return err
	}
	return e.out.WriteJSON(msg)
}

func (e *engine) set(id string, value float64) error {
	model := e.model.Load()
	if model == nil {
		return errNotSynced
	}
	return model.Set(id, value)
}

// run dispatches messages until the channel closes.
func (e *engine) run(msgs <-chan commons.Message) {
	for msg := range msgs {
		e.registry.Dispatch(msg)
	}
}

// getMsgChan returns a message channel that repeatedly reads from a websocket
// connection. The channel is closed when the connection fails.
func getMsgChan(conn *websocket.Conn) chan commons.Message {
	messageChan := make(chan commons.Message)
	go func() {
		defer close(messageChan)
		for {
			var msg commons.Message

			err := conn.ReadJSON(&msg)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("websocket error: %v", err)
				}
				return
			}

			logger.Debugf("message received: %s", msg.EventType)

			messageChan <- msg
		}
	}()
	return messageChan
}
