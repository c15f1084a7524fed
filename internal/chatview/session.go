package chatview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"groupchat/internal/models"

	"github.com/gorilla/websocket"
)

// DefaultStopTypingDelay is how long after the last keystroke the sender
// announces it stopped typing.
const DefaultStopTypingDelay = 2 * time.Second

// Session connects a View to the chat server.
type Session struct {
	conn   *websocket.Conn
	view   *View
	logger *slog.Logger

	stopTypingDelay time.Duration
	sweepEvery      time.Duration
	writeWait       time.Duration

	writeMu sync.Mutex

	timerMu    sync.Mutex
	stopTyping *time.Timer
}

type SessionOption func(*Session)

func WithStopTypingDelay(d time.Duration) SessionOption {
	return func(s *Session) {
		s.stopTypingDelay = d
	}
}

func WithSweepInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		s.sweepEvery = d
	}
}

func WithWriteWait(d time.Duration) SessionOption {
	return func(s *Session) {
		s.writeWait = d
	}
}

// Dial opens the socket and marks the view connected.
func Dial(ctx context.Context, url string, view *View, opts ...SessionOption) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	s := &Session{
		conn:            conn,
		view:            view,
		logger:          view.logger.With("component", "session"),
		stopTypingDelay: DefaultStopTypingDelay,
		sweepEvery:      250 * time.Millisecond,
		writeWait:       10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	view.SetConnected(true)
	return s, nil
}

// Run feeds server events into the view until the connection ends or ctx is
// done. The view is marked disconnected on return.
func (s *Session) Run(ctx context.Context) error {
	defer s.view.SetConnected(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.conn.Close()
				return
			case <-ticker.C:
				s.view.SweepTyping()
			}
		}
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.logger.Debug("Dropping malformed frame", "error", err)
			continue
		}
		if err := s.view.Handle(ctx, env); err != nil {
			s.logger.Debug("Dropping event", "event", env.Event, "error", err)
		}
	}
}

// Send echoes text into the transcript as pending and emits it. Blank input
// is ignored.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.cancelStopTyping()
	if err := s.emit(models.EventStopTyping, models.TypingPayload{User: s.view.Self()}); err != nil {
		return err
	}

	msg := s.view.Transcript().AddPending(ctx, s.view.Self(), text)
	msg.Status = ""
	return s.emit(models.EventMessage, msg)
}

// InputChanged reports the current contents of the input line. Non-blank
// input announces typing and re-arms the stop-typing timer.
func (s *Session) InputChanged(input string) error {
	user := models.TypingPayload{User: s.view.Self()}
	if strings.TrimSpace(input) == "" {
		s.cancelStopTyping()
		return s.emit(models.EventStopTyping, user)
	}

	if err := s.emit(models.EventTyping, user); err != nil {
		return err
	}

	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.stopTyping != nil {
		s.stopTyping.Stop()
	}
	s.stopTyping = time.AfterFunc(s.stopTypingDelay, func() {
		if err := s.emit(models.EventStopTyping, user); err != nil {
			s.logger.Debug("Stop-typing not sent", "error", err)
		}
	})
	return nil
}

// Close sends a close frame and releases the connection.
func (s *Session) Close() error {
	s.cancelStopTyping()

	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}

func (s *Session) emit(event models.Event, data any) error {
	frame, err := models.Encode(event, data)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

func (s *Session) cancelStopTyping() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.stopTyping != nil {
		s.stopTyping.Stop()
		s.stopTyping = nil
	}
}
