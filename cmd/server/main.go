package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"groupchat/internal/config"
	"groupchat/internal/handlers"
	"groupchat/internal/websocket"
	"groupchat/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "error", err)
	}
	logger.Init(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize WebSocket hub
	hub := websocket.NewHub(websocket.Options{
		PingPeriod:      cfg.WebSocket.PingPeriod,
		PongWait:        cfg.WebSocket.PongWait,
		WriteWait:       cfg.WebSocket.WriteWait,
		SendBuffer:      cfg.WebSocket.SendBuffer,
		TypingTimeout:   cfg.WebSocket.TypingTimeout,
		TypingSweep:     cfg.WebSocket.TypingSweep,
		MaxMessageBytes: cfg.WebSocket.MaxMessageBytes,
	})
	go hub.Run(ctx)

	// Initialize handlers
	wsHandlers := handlers.NewWebSocketHandlers(hub)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handlers.NewRouter(wsHandlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server started", "addr", cfg.Server.Port, "websocket", "/ws", "health", "/healthz")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Server shutting down...")

	// The hub closes every socket on the same signal; wait for it before
	// draining plain HTTP requests.
	<-hub.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
		return
	}
	logger.Info("Server stopped")
}
