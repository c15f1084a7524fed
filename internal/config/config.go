package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"groupchat/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Client    ClientConfig
	Session   SessionConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type WebSocketConfig struct {
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	SendBuffer      int
	TypingTimeout   time.Duration
	TypingSweep     time.Duration
	MaxMessageBytes int64
}

type ClientConfig struct {
	ServerURL   string
	DataDir     string
	Store       string
	DatabaseURL string
	User        string
	Token       string
}

type SessionConfig struct {
	Secret []byte
}

type LogConfig struct {
	Format string
	Level  string
}

// Load reads the environment, after merging an optional .env file.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}

	l := &loader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", ":5000"),
			ReadTimeout:     l.duration("READ_TIMEOUT", "15s"),
			WriteTimeout:    l.duration("WRITE_TIMEOUT", "15s"),
			ShutdownTimeout: l.duration("SHUTDOWN_TIMEOUT", "10s"),
		},
		WebSocket: WebSocketConfig{
			PingPeriod:      l.duration("PING_PERIOD", "54s"),
			PongWait:        l.duration("PONG_WAIT", "60s"),
			WriteWait:       l.duration("WRITE_WAIT", "10s"),
			SendBuffer:      l.integer("SEND_BUFFER", 256),
			TypingTimeout:   l.duration("TYPING_TIMEOUT", "5s"),
			TypingSweep:     l.duration("TYPING_SWEEP", "1s"),
			MaxMessageBytes: int64(l.integer("MAX_MESSAGE_BYTES", 0)),
		},
		Client: ClientConfig{
			ServerURL:   getEnvOrDefault("CHAT_SERVER_URL", "ws://localhost:5000/ws"),
			DataDir:     getEnvOrDefault("CHAT_DATA_DIR", ".groupchat"),
			Store:       getEnvOrDefault("CHAT_STORE", "file"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			User:        os.Getenv("CHAT_USER"),
			Token:       os.Getenv("SESSION_TOKEN"),
		},
		Session: SessionConfig{
			Secret: []byte(os.Getenv("JWT_SECRET")),
		},
		Log: LogConfig{
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}

	if l.err != nil {
		return nil, l.err
	}
	if cfg.WebSocket.PingPeriod >= cfg.WebSocket.PongWait {
		return nil, fmt.Errorf("PING_PERIOD (%s) must be shorter than PONG_WAIT (%s)",
			cfg.WebSocket.PingPeriod, cfg.WebSocket.PongWait)
	}
	if cfg.WebSocket.SendBuffer <= 0 {
		return nil, fmt.Errorf("SEND_BUFFER must be positive, got %d", cfg.WebSocket.SendBuffer)
	}
	return cfg, nil
}

// loader keeps the first parse error so Load can report it once.
type loader struct {
	err error
}

func (l *loader) duration(key, defaultValue string) time.Duration {
	d, err := getDurationOrDefault(key, defaultValue)
	if err != nil && l.err == nil {
		l.err = err
	}
	return d
}

func (l *loader) integer(key string, defaultValue int) int {
	n, err := getIntOrDefault(key, defaultValue)
	if err != nil && l.err == nil {
		l.err = err
	}
	return n
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return duration, nil
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return intValue, nil
}
