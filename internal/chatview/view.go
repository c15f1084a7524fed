package chatview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"groupchat/internal/models"
	"groupchat/pkg/logger"
)

// View is the headless chat screen: transcript, typing line, online count and
// connection state for one local user.
type View struct {
	self       string
	transcript *Transcript
	typing     *TypingSet

	mu        sync.Mutex
	count     int
	connected bool

	updates chan struct{}
	logger  *slog.Logger
}

func NewView(self string, transcript *Transcript, typing *TypingSet) *View {
	return &View{
		self:       self,
		transcript: transcript,
		typing:     typing,
		updates:    make(chan struct{}, 1),
		logger:     logger.With("component", "chatview", "user", self),
	}
}

func (v *View) Self() string {
	return v.self
}

func (v *View) Transcript() *Transcript {
	return v.transcript
}

func (v *View) Typing() *TypingSet {
	return v.typing
}

// Updates signals that something visible changed. Signals coalesce.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

func (v *View) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.count
}

func (v *View) Connected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

func (v *View) SetConnected(connected bool) {
	v.mu.Lock()
	changed := v.connected != connected
	v.connected = connected
	v.mu.Unlock()

	if changed {
		v.Refresh()
	}
}

// Status is the banner line above the transcript.
func (v *View) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.connected {
		return "Disconnected from chat server"
	}
	return fmt.Sprintf("%d online", v.count)
}

func (v *View) Indicator() string {
	return v.typing.Indicator(v.self)
}

// Handle applies one server event to the view.
func (v *View) Handle(ctx context.Context, env models.Envelope) error {
	switch env.Event {
	case models.EventUserCount:
		var count int
		if err := json.Unmarshal(env.Data, &count); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		v.mu.Lock()
		v.count = count
		v.mu.Unlock()

	case models.EventMessage:
		var msg models.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		v.transcript.Receive(ctx, msg)

	case models.EventTyping:
		var payload models.TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		v.typing.Start(payload.User)

	case models.EventStopTyping:
		var payload models.TypingPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		v.typing.Stop(payload.User)

	default:
		v.logger.Debug("Ignoring unknown event", "event", env.Event)
		return nil
	}

	v.Refresh()
	return nil
}

// SweepTyping expires stale typers and reports whether any were removed.
func (v *View) SweepTyping() bool {
	if len(v.typing.Sweep()) == 0 {
		return false
	}
	v.Refresh()
	return true
}

// Refresh queues a redraw.
func (v *View) Refresh() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}
