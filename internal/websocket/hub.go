package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"groupchat/internal/models"
	"groupchat/internal/presence"
	"groupchat/internal/relay"
	"groupchat/pkg/logger"
)

type Options struct {
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	SendBuffer      int
	TypingTimeout   time.Duration
	TypingSweep     time.Duration
	MaxMessageBytes int64
}

func DefaultOptions() Options {
	return Options{
		PingPeriod:    54 * time.Second,
		PongWait:      60 * time.Second,
		WriteWait:     10 * time.Second,
		SendBuffer:    256,
		TypingTimeout: 5 * time.Second,
		TypingSweep:   time.Second,
	}
}

type inbound struct {
	client *Client
	env    models.Envelope
}

// Hub is the single owner of the connection set. Connection pumps talk to it
// only through its channels, so every registry change and every fan-out is
// serialized in Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	done       chan struct{}

	registry *presence.Registry
	typing   *presence.TypingTracker
	stamper  *relay.Stamper
	opts     Options
	now      func() time.Time
	logger   *slog.Logger

	// clients whose send buffer overflowed during the current step
	evicted []*Client
}

func NewHub(opts Options) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, opts.SendBuffer),
		done:       make(chan struct{}),
		registry:   presence.NewRegistry(),
		typing:     presence.NewTypingTracker(opts.TypingTimeout),
		stamper:    relay.NewStamper(),
		opts:       opts,
		now:        time.Now,
		logger:     logger.With("component", "hub"),
	}
}

// Run processes hub events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	sweep := time.NewTicker(h.opts.TypingSweep)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			close(h.done)
			h.logger.Info("Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			count := h.registry.Connect()
			h.logger.Info("Client connected", "client_id", client.ID, "connected", count)
			h.broadcastCount(count)

		case client := <-h.unregister:
			h.drop(client, "disconnect")

		case in := <-h.inbound:
			if _, ok := h.clients[in.client]; !ok {
				continue
			}
			h.handle(in.client, in.env)

		case <-sweep.C:
			for _, typer := range h.typing.Expire(h.now()) {
				h.logger.Debug("Typing expired", "client_id", typer.ConnID, "user", typer.User)
				h.broadcastStopTyping(typer.ConnID, typer.User)
			}
		}

		h.settle()
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Count reports the registry value. Clients only ever learn it by broadcast.
func (h *Hub) Count() int {
	return h.registry.Count()
}

// Register hands client to the hub. It reports false when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) dispatch(client *Client, env models.Envelope) {
	select {
	case h.inbound <- inbound{client: client, env: env}:
	case <-h.done:
	}
}

func (h *Hub) handle(sender *Client, env models.Envelope) {
	switch env.Event {
	case models.EventMessage:
		stamped, err := h.stamper.Stamp(env.Data)
		if err != nil {
			h.logger.Error("Error stamping message", "client_id", sender.ID, "error", err)
			return
		}
		h.broadcastAll(models.EventMessage, stamped)

	case models.EventTyping:
		if user, ok := typingUser(env.Data); ok {
			h.typing.Touch(sender.ID, user, h.now())
		}
		h.broadcastOthers(sender.ID, models.EventTyping, env.Data)

	case models.EventStopTyping:
		if user, ok := typingUser(env.Data); ok {
			h.typing.Clear(sender.ID, user)
		}
		h.broadcastOthers(sender.ID, models.EventStopTyping, env.Data)

	default:
		h.logger.Debug("Dropping unknown event", "client_id", sender.ID, "event", env.Event)
	}
}

// drop removes client exactly once, whichever of disconnect or eviction
// reaches the hub first.
func (h *Hub) drop(client *Client, reason string) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	count := h.registry.Disconnect()
	h.logger.Info("Client disconnected", "client_id", client.ID, "reason", reason, "connected", count)
	h.broadcastCount(count)

	for _, user := range h.typing.Forget(client.ID) {
		h.broadcastStopTyping(client.ID, user)
	}
}

func (h *Hub) settle() {
	for len(h.evicted) > 0 {
		client := h.evicted[0]
		h.evicted = h.evicted[1:]
		h.drop(client, "send buffer full")
	}
}

func (h *Hub) broadcastCount(count int) {
	frame, err := models.Encode(models.EventUserCount, count)
	if err != nil {
		h.logger.Error("Error marshaling user count", "error", err)
		return
	}
	for client := range h.clients {
		h.send(client, frame)
	}
}

func (h *Hub) broadcastStopTyping(senderID, user string) {
	data, err := json.Marshal(models.TypingPayload{User: user})
	if err != nil {
		h.logger.Error("Error marshaling stop-typing", "error", err)
		return
	}
	h.broadcastOthers(senderID, models.EventStopTyping, data)
}

func (h *Hub) broadcastAll(event models.Event, data json.RawMessage) {
	frame, err := models.EncodeRaw(event, data)
	if err != nil {
		h.logger.Error("Error marshaling broadcast", "event", event, "error", err)
		return
	}
	for client := range h.clients {
		h.send(client, frame)
	}
}

func (h *Hub) broadcastOthers(senderID string, event models.Event, data json.RawMessage) {
	frame, err := models.EncodeRaw(event, data)
	if err != nil {
		h.logger.Error("Error marshaling broadcast", "event", event, "error", err)
		return
	}
	for client := range h.clients {
		if client.ID == senderID {
			continue
		}
		h.send(client, frame)
	}
}

func (h *Hub) send(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		h.evicted = append(h.evicted, client)
	}
}

func typingUser(data json.RawMessage) (string, bool) {
	var payload struct {
		User *string `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.User == nil {
		return "", false
	}
	return *payload.User, true
}
