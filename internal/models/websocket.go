package models

import "encoding/json"

type Event string

const (
	EventUserCount  Event = "user:count"
	EventMessage    Event = "chat:message"
	EventTyping     Event = "chat:typing"
	EventStopTyping Event = "chat:stop-typing"
)

// Envelope is the frame exchanged over the socket in both directions.
type Envelope struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type TypingPayload struct {
	User string `json:"user"`
}

// NewEnvelope marshals data and wraps it under event.
func NewEnvelope(event Event, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Encode marshals event and data into a ready-to-write frame.
func Encode(event Event, data any) ([]byte, error) {
	env, err := NewEnvelope(event, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// EncodeRaw wraps an already-encoded payload without re-marshaling it.
func EncodeRaw(event Event, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}
