package chatview

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"groupchat/internal/models"
)

//go:embed seed/chat.json
var seedJSON []byte

type seedFile struct {
	Messages []struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	} `json:"messages"`
}

// ParseSeed converts a seed document into confirmed transcript entries.
func ParseSeed(data []byte) ([]models.ChatMessage, error) {
	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	messages := make([]models.ChatMessage, 0, len(file.Messages))
	for _, m := range file.Messages {
		messages = append(messages, models.ChatMessage{
			ID:        m.ID,
			User:      m.Username,
			Text:      m.Message,
			Timestamp: m.Timestamp,
		})
	}
	return messages, nil
}

// Seed is the built-in transcript shown before anything has been stored.
func Seed() []models.ChatMessage {
	messages, err := ParseSeed(seedJSON)
	if err != nil {
		return []models.ChatMessage{}
	}
	return messages
}
