package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusConfirmed MessageStatus = "confirmed"
)

// ChatMessage is the client-side view of a relayed message.
//
// ID and ServerTimestamp are authoritative only once Status is confirmed;
// a pending message carries the provisional values of its optimistic echo.
// ClientID correlates the echo with the server broadcast.
type ChatMessage struct {
	ID              int64         `json:"id"`
	User            string        `json:"user"`
	Text            string        `json:"text"`
	Timestamp       string        `json:"timestamp,omitempty"`
	ServerTimestamp string        `json:"serverTimestamp,omitempty"`
	ClientID        string        `json:"clientId,omitempty"`
	Status          MessageStatus `json:"status,omitempty"`
}

func (m ChatMessage) Pending() bool {
	return m.Status == StatusPending
}

// UnmarshalJSON accepts whatever a sender put in the display fields. The relay
// forwards payloads untouched, so user, text and the timestamps may arrive as
// numbers or objects; they are kept as their JSON text. A non-numeric id
// decodes as 0.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type plain ChatMessage
	var raw struct {
		plain
		ID              json.RawMessage `json:"id"`
		User            json.RawMessage `json:"user"`
		Text            json.RawMessage `json:"text"`
		Timestamp       json.RawMessage `json:"timestamp"`
		ServerTimestamp json.RawMessage `json:"serverTimestamp"`
		ClientID        json.RawMessage `json:"clientId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = ChatMessage(raw.plain)
	m.ID = looseID(raw.ID)
	m.User = looseText(raw.User)
	m.Text = looseText(raw.Text)
	m.Timestamp = looseText(raw.Timestamp)
	m.ServerTimestamp = looseText(raw.ServerTimestamp)
	m.ClientID = looseText(raw.ClientID)
	return nil
}

func looseText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var compact bytes.Buffer
	if json.Compact(&compact, raw) != nil {
		return string(raw)
	}
	return compact.String()
}

func looseID(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	if n, err := strconv.ParseInt(looseText(raw), 10, 64); err == nil {
		return n
	}
	return 0
}
