package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"groupchat/pkg/logger"
)

func storageLogger() *slog.Logger {
	return logger.With("component", "storage")
}

// LoadJSON decodes key into v. It reports false, leaving v untouched, when the
// key is missing or unreadable; callers fall back to their own default.
func LoadJSON(ctx context.Context, store Store, key string, v any) bool {
	data, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			storageLogger().Debug("Storage read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		storageLogger().Debug("Stored value is not valid JSON", "key", key, "error", err)
		return false
	}
	return true
}

// SaveJSON stores v under key. Failures are logged and swallowed.
func SaveJSON(ctx context.Context, store Store, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		storageLogger().Debug("Storage encode failed", "key", key, "error", err)
		return false
	}
	if err := store.Set(ctx, key, data); err != nil {
		storageLogger().Debug("Storage write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Favorites returns the favorited records, or an empty list when none can be read.
func Favorites(ctx context.Context, store Store) []json.RawMessage {
	var favorites []json.RawMessage
	if !LoadJSON(ctx, store, FavoritesKey, &favorites) || favorites == nil {
		return []json.RawMessage{}
	}
	return favorites
}

// ToggleFavorite adds item when absent and removes it otherwise. It reports
// whether item is a favorite afterwards.
func ToggleFavorite(ctx context.Context, store Store, item json.RawMessage) (bool, error) {
	var want bytes.Buffer
	if err := json.Compact(&want, item); err != nil {
		return false, err
	}

	current := Favorites(ctx, store)
	next := make([]json.RawMessage, 0, len(current)+1)
	found := false
	for _, fav := range current {
		var got bytes.Buffer
		if json.Compact(&got, fav) == nil && bytes.Equal(got.Bytes(), want.Bytes()) {
			found = true
			continue
		}
		next = append(next, fav)
	}
	if !found {
		next = append(next, json.RawMessage(want.Bytes()))
	}

	SaveJSON(ctx, store, FavoritesKey, next)
	return !found, nil
}
