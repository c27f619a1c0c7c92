// Package broadcast fans classification and status events out to every
// connected websocket subscriber.
package broadcast

import "encoding/json"

// Event is one message pushed to subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Publisher accepts events for fan-out. Implementations must not block.
type Publisher interface {
	Publish(ev Event)
}

// Mirror receives a copy of every published event, serialized.
type Mirror interface {
	Mirror(payload []byte) error
}

// Encode serializes an event the way it goes over the wire.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
