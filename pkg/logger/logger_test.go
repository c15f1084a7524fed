package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWriter(t *testing.T) {
	previous, previousDefault := GlobalLogger, slog.Default()
	t.Cleanup(func() {
		GlobalLogger = previous
		slog.SetDefault(previousDefault)
	})

	var buf bytes.Buffer
	InitWriter(&buf, "json", "warn")

	With("component", "notifier").Info("Pub/Sub closed")
	assert.Empty(t, buf.String(), "below the configured level")

	With("component", "notifier").Warn("slow subscriber")
	assert.Contains(t, buf.String(), `"component":"notifier"`)
	assert.Contains(t, buf.String(), `"msg":"slow subscriber"`)
}
