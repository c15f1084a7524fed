package chatview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"groupchat/internal/models"
	"groupchat/internal/storage"
	"groupchat/pkg/logger"

	"github.com/google/uuid"
)

// LocalTimeLayout formats the provisional timestamp of an optimistic echo.
const LocalTimeLayout = "03:04 PM"

// Transcript is the locally persisted chat history of one view.
//
// Every mutation is written back to the store and announced on the notifier.
// Other views sharing the store re-read it when they hear the announcement.
type Transcript struct {
	mu       sync.Mutex
	id       string
	store    storage.Store
	notifier Notifier
	messages []models.ChatMessage
	now      func() time.Time
	onChange func([]models.ChatMessage)
	logger   *slog.Logger
}

type TranscriptOption func(*Transcript)

func WithTranscriptClock(now func() time.Time) TranscriptOption {
	return func(t *Transcript) {
		t.now = now
	}
}

// WithOnChange registers fn to receive a copy of the transcript after every
// change, local or reloaded.
func WithOnChange(fn func([]models.ChatMessage)) TranscriptOption {
	return func(t *Transcript) {
		t.onChange = fn
	}
}

// NewTranscript restores the stored transcript, or starts from seed when the
// store has never held one.
func NewTranscript(ctx context.Context, store storage.Store, notifier Notifier, seed []models.ChatMessage, opts ...TranscriptOption) *Transcript {
	t := &Transcript{
		id:       uuid.NewString(),
		store:    store,
		notifier: notifier,
		now:      time.Now,
		logger:   logger.With("component", "transcript"),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.messages = t.restore(ctx, seed)
	return t
}

// restore falls back to seed only when nothing was ever stored. An unreadable
// store or a corrupt value yields an empty transcript.
func (t *Transcript) restore(ctx context.Context, seed []models.ChatMessage) []models.ChatMessage {
	data, err := t.store.Get(ctx, storage.TranscriptKey)
	if errors.Is(err, storage.ErrNotFound) {
		return append([]models.ChatMessage{}, seed...)
	}
	if err != nil {
		t.logger.Debug("Transcript unreadable", "error", err)
		return []models.ChatMessage{}
	}

	var stored []models.ChatMessage
	if err := json.Unmarshal(data, &stored); err != nil || stored == nil {
		t.logger.Debug("Stored transcript is not a message list", "error", err)
		return []models.ChatMessage{}
	}
	return stored
}

// ID identifies this view on the notifier.
func (t *Transcript) ID() string {
	return t.id
}

func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// AddPending appends the optimistic echo of a message about to be sent.
func (t *Transcript) AddPending(ctx context.Context, user, text string) models.ChatMessage {
	now := t.now()
	msg := models.ChatMessage{
		ID:        now.UnixMilli(),
		User:      user,
		Text:      text,
		Timestamp: now.Format(LocalTimeLayout),
		ClientID:  uuid.NewString(),
		Status:    models.StatusPending,
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	snapshot := t.persist(ctx)
	t.mu.Unlock()

	t.announce(ctx, snapshot)
	return msg
}

// Receive merges a relayed message. A broadcast carrying the ClientID of a
// pending echo replaces that echo in place; anything else is appended.
func (t *Transcript) Receive(ctx context.Context, msg models.ChatMessage) {
	msg.Status = models.StatusConfirmed

	t.mu.Lock()
	merged := false
	if msg.ClientID != "" {
		for i := range t.messages {
			if t.messages[i].Pending() && t.messages[i].ClientID == msg.ClientID {
				if msg.Timestamp == "" {
					msg.Timestamp = t.messages[i].Timestamp
				}
				t.messages[i] = msg
				merged = true
				break
			}
		}
	}
	if !merged {
		t.messages = append(t.messages, msg)
	}
	snapshot := t.persist(ctx)
	t.mu.Unlock()

	t.announce(ctx, snapshot)
}

// Reload replaces the in-memory transcript with the stored one and reports
// whether anything changed. A missing or unreadable value leaves the transcript
// as it is.
//
// The read happens under the same lock as local mutations, so a reload never
// overwrites a message appended while it was reading.
func (t *Transcript) Reload(ctx context.Context) bool {
	t.mu.Lock()
	var stored []models.ChatMessage
	if !storage.LoadJSON(ctx, t.store, storage.TranscriptKey, &stored) || stored == nil ||
		reflect.DeepEqual(stored, t.messages) {
		t.mu.Unlock()
		return false
	}
	t.messages = stored
	snapshot := t.snapshot()
	t.mu.Unlock()

	t.changed(snapshot)
	return true
}

// Listen reloads the transcript whenever another view announces a change.
// It returns once the subscription is established.
func (t *Transcript) Listen(ctx context.Context) error {
	if t.notifier == nil {
		return nil
	}
	origins, err := t.notifier.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for origin := range origins {
			if origin == t.id {
				continue
			}
			t.logger.Debug("Transcript changed elsewhere", "origin", origin)
			t.Reload(ctx)
		}
	}()
	return nil
}

// persist writes the transcript back to the store. t.mu must be held.
func (t *Transcript) persist(ctx context.Context) []models.ChatMessage {
	snapshot := t.snapshot()
	storage.SaveJSON(ctx, t.store, storage.TranscriptKey, snapshot)
	return snapshot
}

// announce tells the other views and the local listener about a change.
func (t *Transcript) announce(ctx context.Context, snapshot []models.ChatMessage) {
	if t.notifier != nil {
		if err := t.notifier.Notify(ctx, t.id); err != nil {
			t.logger.Debug("Transcript notification failed", "error", err)
		}
	}
	t.changed(snapshot)
}

func (t *Transcript) changed(snapshot []models.ChatMessage) {
	if t.onChange != nil {
		t.onChange(snapshot)
	}
}

func (t *Transcript) snapshot() []models.ChatMessage {
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}
