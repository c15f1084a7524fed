package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ws "groupchat/internal/websocket"
	"groupchat/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWebSocketHandlers(hub *ws.Hub) *WebSocketHandlers {
	return &WebSocketHandlers{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "websocket_handlers"),
	}
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Upgrade error", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	if !h.hub.Register(client) {
		h.logger.Warn("Hub stopped, refusing connection", "remote_addr", r.RemoteAddr)
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

func (h *WebSocketHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:      "ok",
		Connections: h.hub.Count(),
	})
}
