package commons

import (
	"encoding/json"
	"fmt"
)

// Message represents the envelope sent over the wire in both directions.
type Message struct {
	// EventType selects the handlers that receive Data.
	EventType EventType `json:"eventType"`

	// Data is the event-specific body, decoded by whichever handler is registered for EventType.
	Data json.RawMessage `json:"data,omitempty"`
}

// EventType represents the type of the message.
type EventType string

// Currently, treesync supports 4 event types:
// - valueTreeStateChange (host to client, a batch of encoded tree changes)
// - new_parameter (client to host, a parameter change request)
// - new_shape (client to host, new positions for the polygon vertices)
// - init (client to host, asks for a full sync)

const (
	StateChangeEvent  EventType = "valueTreeStateChange"
	NewParameterEvent EventType = "new_parameter"
	NewShapeEvent     EventType = "new_shape"
	InitEvent         EventType = "init"
)

// StateChange is the body of a StateChangeEvent.
type StateChange struct {
	// TreeID names the synchronised tree the changes belong to.
	TreeID string `json:"treeId"`

	// Changes holds base64-encoded change records, to be applied in order.
	Changes []string `json:"changes"`
}

// NewMessage builds a message with data encoded as JSON. A nil data leaves the body empty.
func NewMessage(eventType EventType, data interface{}) (Message, error) {
	msg := Message{EventType: eventType}
	if data == nil {
		return msg, nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return msg, fmt.Errorf("encoding %s body: %w", eventType, err)
	}
	msg.Data = body
	return msg, nil
}
