package ttslog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogAdapter_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Warn(context.Background(), "key rate limited", F("key", "primary"), F("attempt", 2))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "key rate limited", decoded["msg"])
	assert.Equal(t, "WARN", decoded["level"])
	assert.Equal(t, "primary", decoded["key"])
	assert.Equal(t, float64(2), decoded["attempt"])
}

func TestSlogAdapter_AllLevelsDispatch(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))
	ctx := context.Background()

	adapter.Debug(ctx, "d")
	adapter.Info(ctx, "i")
	adapter.Warn(ctx, "w")
	adapter.Error(ctx, "e")

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	assert.Equal(t, 4, lines)
}

func TestNoop_DiscardsEverythingWithoutPanicking(t *testing.T) {
	l := NewNoop()
	ctx := context.Background()
	assert.NotPanics(t, func() {
		l.Debug(ctx, "d", F("a", 1))
		l.Info(ctx, "i")
		l.Warn(ctx, "w")
		l.Error(ctx, "e")
	})
}
