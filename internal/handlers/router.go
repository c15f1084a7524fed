package handlers

import (
	"net/http"

	"groupchat/internal/middleware"
	"groupchat/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(wsHandlers *WebSocketHandlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger.With("component", "http")))
	r.Use(middleware.CORS)

	r.Get("/ws", wsHandlers.HandleWebSocket)
	r.Get("/healthz", wsHandlers.HandleHealth)

	return r
}
