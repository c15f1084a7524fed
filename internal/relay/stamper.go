// Package relay enriches inbound chat messages with server-assigned identity.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	fieldID              = "id"
	fieldServerTimestamp = "serverTimestamp"
)

// Stamper assigns ids and timestamps. Ids are wall-clock milliseconds, bumped
// forward when the clock repeats or steps back, so they are unique per process
// but only as monotonic as the clock allows across restarts.
type Stamper struct {
	mu     sync.Mutex
	now    func() time.Time
	lastID int64
}

type Option func(*Stamper)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Stamper) {
		s.now = now
	}
}

func NewStamper(opts ...Option) *Stamper {
	s := &Stamper{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stamp returns payload with id and serverTimestamp overwritten. Every other
// field is passed through byte for byte. A payload that is not a JSON object
// is stamped onto an empty one.
func (s *Stamper) Stamp(payload json.RawMessage) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
			fields = map[string]json.RawMessage{}
		}
	}

	clientID, hasClientID := parseClientID(fields[fieldID])
	var clientTS string
	if raw, ok := fields[fieldServerTimestamp]; ok {
		_ = json.Unmarshal(raw, &clientTS)
	}

	id, ts := s.next(func(id int64, ts string) bool {
		return (hasClientID && id == clientID) || (clientTS != "" && ts == clientTS)
	})

	fields[fieldID] = json.RawMessage(strconv.FormatInt(id, 10))
	tsRaw, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("encode server timestamp: %w", err)
	}
	fields[fieldServerTimestamp] = tsRaw

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode stamped message: %w", err)
	}
	return out, nil
}

// next reserves the following id, skipping values rejected by collides.
func (s *Stamper) next(collides func(id int64, ts string) bool) (int64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	ts := Format(id)
	for collides(id, ts) {
		id++
		ts = Format(id)
	}
	s.lastID = id
	return id, ts
}

// Format renders a millisecond id as its ISO-8601 timestamp.
func Format(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(TimestampLayout)
}

func parseClientID(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	if id, err := n.Int64(); err == nil {
		return id, true
	}
	if f, err := n.Float64(); err == nil {
		return int64(f), true
	}
	return 0, false
}
