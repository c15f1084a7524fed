package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"groupchat/internal/models"
	ws "groupchat/internal/websocket"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *ws.Hub) {
	t.Helper()

	opts := ws.DefaultOptions()
	opts.TypingTimeout = time.Minute
	hub := ws.NewHub(opts)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(NewRouter(NewWebSocketHandlers(hub)))
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		srv.Close()
	})
	return srv, hub
}

type peer struct {
	t      *testing.T
	conn   *websocket.Conn
	frames chan models.Envelope
}

func connect(t *testing.T, srv *httptest.Server) *peer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	p := &peer{t: t, conn: conn, frames: make(chan models.Envelope, 64)}
	go func() {
		defer close(p.frames)
		for {
			var env models.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			p.frames <- env
		}
	}()
	t.Cleanup(func() { conn.Close() })
	return p
}

func (p *peer) emit(event models.Event, data any) {
	p.t.Helper()
	frame, err := models.Encode(event, data)
	require.NoError(p.t, err)
	require.NoError(p.t, p.conn.WriteMessage(websocket.TextMessage, frame))
}

func (p *peer) next() models.Envelope {
	p.t.Helper()
	select {
	case env, ok := <-p.frames:
		require.True(p.t, ok, "connection closed")
		return env
	case <-time.After(3 * time.Second):
		p.t.Fatal("timed out waiting for a frame")
		return models.Envelope{}
	}
}

// nextOf skips frames of other kinds until one with event arrives.
func (p *peer) nextOf(event models.Event) models.Envelope {
	p.t.Helper()
	for {
		if env := p.next(); env.Event == event {
			return env
		}
	}
}

func (p *peer) count() int {
	p.t.Helper()
	var n int
	require.NoError(p.t, json.Unmarshal(p.nextOf(models.EventUserCount).Data, &n))
	return n
}

func (p *peer) silent(wait time.Duration) {
	p.t.Helper()
	select {
	case env, ok := <-p.frames:
		if ok {
			p.t.Fatalf("unexpected %s frame: %s", env.Event, env.Data)
		}
	case <-time.After(wait):
	}
}

func TestWebSocket_PresenceCount(t *testing.T) {
	srv, hub := newTestServer(t)

	a := connect(t, srv)
	assert.Equal(t, 1, a.count())

	b := connect(t, srv)
	assert.Equal(t, 2, a.count())
	assert.Equal(t, 2, b.count())
	assert.Equal(t, 2, hub.Count())

	require.NoError(t, a.conn.Close())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, hub.Count())
}

func TestWebSocket_MessageEcho(t *testing.T) {
	srv, _ := newTestServer(t)
	a := connect(t, srv)
	a.count()
	b := connect(t, srv)
	a.count()
	b.count()

	a.emit(models.EventMessage, map[string]any{"user": "alice", "text": "hi"})

	for _, p := range []*peer{a, b} {
		env := p.nextOf(models.EventMessage)

		var msg map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		assert.Equal(t, "alice", msg["user"])
		assert.Equal(t, "hi", msg["text"])
		assert.IsType(t, float64(0), msg["id"])

		stamp, ok := msg["serverTimestamp"].(string)
		require.True(t, ok)
		_, err := time.Parse("2006-01-02T15:04:05.000Z", stamp)
		assert.NoError(t, err)
	}
}

func TestWebSocket_TypingRelay(t *testing.T) {
	srv, _ := newTestServer(t)
	a := connect(t, srv)
	a.count()
	b := connect(t, srv)
	a.count()
	b.count()

	a.emit(models.EventTyping, models.TypingPayload{User: "alice"})
	env := b.next()
	assert.Equal(t, models.EventTyping, env.Event)
	assert.JSONEq(t, `{"user":"alice"}`, string(env.Data))

	a.emit(models.EventStopTyping, models.TypingPayload{User: "alice"})
	env = b.next()
	assert.Equal(t, models.EventStopTyping, env.Event)
	assert.JSONEq(t, `{"user":"alice"}`, string(env.Data))

	a.silent(100 * time.Millisecond)
}

func TestWebSocket_AbruptDisconnectClearsTyping(t *testing.T) {
	srv, _ := newTestServer(t)
	a := connect(t, srv)
	a.count()
	b := connect(t, srv)
	a.count()
	b.count()

	a.emit(models.EventTyping, models.TypingPayload{User: "alice"})
	assert.Equal(t, models.EventTyping, b.next().Event)

	// drop the TCP connection without a close handshake
	require.NoError(t, a.conn.NetConn().Close())

	assert.Equal(t, 1, b.count())
	env := b.nextOf(models.EventStopTyping)
	assert.JSONEq(t, `{"user":"alice"}`, string(env.Data))
}

func TestWebSocket_MalformedFramesIgnored(t *testing.T) {
	srv, _ := newTestServer(t)
	a := connect(t, srv)
	a.count()

	require.NoError(t, a.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	a.emit(models.EventMessage, "just a string")

	env := a.nextOf(models.EventMessage)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Len(t, msg, 2)
	assert.Contains(t, msg, "id")
	assert.Contains(t, msg, "serverTimestamp")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	a := connect(t, srv)
	a.count()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Connections)
}

func TestPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ws", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
