package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"groupchat/internal/chatview"
	"groupchat/internal/models"
	"groupchat/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	historyLimit, historyJSON, historyClear = 0, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Contains(t, run(t, "version"), "chatclient v")
}

func TestHistory_SeedWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	out := run(t, "history", "--data-dir", dir, "--store", "file", "--json", "--limit", "0")

	var got []models.ChatMessage
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, chatview.Seed(), got)
}

func TestHistory_StoredTranscript(t *testing.T) {
	dir := t.TempDir()
	stored := []models.ChatMessage{
		{ID: 1, User: "alice", Text: "first", Timestamp: "10:00 AM"},
		{ID: 2, User: "bob", Text: "second", Timestamp: "10:01 AM"},
		{ID: 3, User: "alice", Text: "third", Timestamp: "10:02 AM"},
	}
	require.True(t, storage.SaveJSON(context.Background(), storage.NewOSFileStore(dir), storage.TranscriptKey, stored))

	out := run(t, "history", "--data-dir", dir, "--store", "file", "--json=false", "--limit", "2")
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "[10:01 AM] bob: second")
	assert.Contains(t, out, "[10:02 AM] alice: third")
}

func TestFavorites(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--data-dir", dir, "--store", "file"}

	assert.Contains(t, run(t, append([]string{"favorites"}, args...)...), "No favorites yet.")
	assert.Contains(t, run(t, append([]string{"favorites", "toggle", "42"}, args...)...), "Added 42")
	assert.Contains(t, run(t, append([]string{"favorites", "toggle", "neon"}, args...)...), `Added "neon"`)
	assert.Contains(t, run(t, append([]string{"favorites"}, args...)...), `"neon"`)
	assert.Contains(t, run(t, append([]string{"favorites", "toggle", "42"}, args...)...), "Removed 42")
}

func TestUnknownStore(t *testing.T) {
	rootCmd.SetArgs([]string{"history", "--store", "s3"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}

func TestHistory_Clear(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewOSFileStore(dir)
	require.True(t, storage.SaveJSON(context.Background(), store, storage.TranscriptKey,
		[]models.ChatMessage{{ID: 1, User: "alice", Text: "gone soon"}}))

	assert.Contains(t, run(t, "history", "--data-dir", dir, "--store", "file", "--clear"), "Transcript cleared.")

	_, err := store.Get(context.Background(), storage.TranscriptKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NotContains(t, run(t, "history", "--data-dir", dir, "--store", "file"), "gone soon")
}

func TestKeys(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--data-dir", dir, "--store", "file"}

	assert.Contains(t, run(t, append([]string{"keys"}, args...)...), "Store is empty.")

	run(t, append([]string{"favorites", "toggle", "7"}, args...)...)
	assert.Equal(t, storage.FavoritesKey+"\n", run(t, append([]string{"keys"}, args...)...))
}
