package events

import (
	"encoding/json"
	"fmt"
)

// Event is one named message on the channel. Seq is stamped by the producer
// per session; zero means unsequenced.
type Event struct {
	Name    Name            `json:"event"`
	Session string          `json:"session,omitempty"`
	Seq     uint64          `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Command is an event the admin sends to the backend.
type Command = Event

func New(name Name, session string, payload interface{}) (Event, error) {
	ev := Event{Name: name, Session: session}
	if payload == nil {
		return ev, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ev, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	ev.Payload = raw
	return ev, nil
}

// Decode parses a wire event and rejects names outside the vocabulary.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode event: %w", err)
	}
	if _, err := ParseName(string(ev.Name)); err != nil {
		return ev, err
	}
	return ev, nil
}

func (e Event) Bind(v interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Name, err)
	}
	return nil
}
