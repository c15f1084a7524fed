package chatview

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"groupchat/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewWatermillNotifier()
	defer n.Close()

	origins, err := n.Subscribe(ctx)
	require.NoError(t, err)
	require.NoError(t, n.Notify(ctx, "view-1"))

	select {
	case origin := <-origins:
		assert.Equal(t, "view-1", origin)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
}

func TestWatermillNotifier_LogsThroughLogger(t *testing.T) {
	previous, previousDefault := logger.GlobalLogger, slog.Default()
	t.Cleanup(func() {
		logger.GlobalLogger = previous
		slog.SetDefault(previousDefault)
	})

	var buf bytes.Buffer
	logger.InitWriter(&buf, "text", "info")

	n := NewWatermillNotifier()
	require.NoError(t, n.Close())
	assert.Contains(t, buf.String(), "component=notifier")
	assert.Contains(t, buf.String(), "Pub/Sub closed")
}
