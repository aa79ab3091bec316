// Package dispatch routes inbound messages to the handlers registered for
// their event type.
package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/burntcarrot/treesync/commons"
	"github.com/burntcarrot/treesync/internal/telemetry"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for dispatch diagnostics.
func SetLogger(l logrus.FieldLogger) {
	logger = l
}

// Handler consumes the raw body of a message.
type Handler func(data json.RawMessage) error

// Registry maps event types to ordered lists of handlers.
// The zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[commons.EventType][]Handler
}

func New() *Registry {
	return &Registry{}
}

// Register appends handler to the list for eventType. Handlers run in the
// order they were registered.
func (r *Registry) Register(eventType commons.EventType, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handlers == nil {
		r.handlers = make(map[commons.EventType][]Handler)
	}
	r.handlers[eventType] = append(r.handlers[eventType], handler)
}

// Handlers returns how many handlers are registered for eventType.
func (r *Registry) Handlers(eventType commons.EventType) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[eventType])
}

// Dispatch invokes every handler registered for msg's event type with its
// body and reports whether any handler existed. A failing or panicking
// handler is logged and does not stop the handlers after it.
func (r *Registry) Dispatch(msg commons.Message) bool {
	r.mu.RLock()
	handlers := r.handlers[msg.EventType]
	r.mu.RUnlock()

	handled := len(handlers) > 0
	telemetry.MessagesDispatched.WithLabelValues(string(msg.EventType), strconv.FormatBool(handled)).Inc()

	if !handled {
		logger.Debugf("no handler for event %q", msg.EventType)
		return false
	}

	for i, h := range handlers {
		if err := call(h, msg.Data); err != nil {
			logger.WithFields(logrus.Fields{
				"event":   msg.EventType,
				"handler": i,
			}).Errorf("handler failed: %v", err)
		}
	}
	return true
}

func call(h Handler, data json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(data)
}
