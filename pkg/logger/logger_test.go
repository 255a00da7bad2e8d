package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type requestIDKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("writes json with component and extracted attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := New(Config{Output: &buf, Component: "cache"}, ContextValue(requestIDKey{}, "request_id"))

		ctx := context.WithValue(context.Background(), requestIDKey{}, "req-1")
		log.InfoContext(ctx, "entry evicted", slog.String("key", "k"))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "entry evicted", line["msg"])
		require.Equal(t, "cache", line["component"])
		require.Equal(t, "req-1", line["request_id"])
		require.Equal(t, "k", line["key"])
	})

	t.Run("filters below configured level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := New(Config{Output: &buf, Level: "warn", Format: "text"})

		log.Info("dropped")
		log.Warn("kept")

		require.NotContains(t, buf.String(), "dropped")
		require.Contains(t, buf.String(), "kept")
	})

	t.Run("skips empty context values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := New(Config{Output: &buf}, ContextValue(requestIDKey{}, "request_id"), nil)

		log.InfoContext(context.Background(), "no request")
		require.False(t, strings.Contains(buf.String(), "request_id"))
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

func TestMultiHandler_DeliversPastFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newMultiHandler(failingHandler{}, slog.NewTextHandler(&buf, nil))

	slog.New(h).Info("still delivered")
	require.Contains(t, buf.String(), "still delivered")
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		NewNope().Error("discarded")
	})
}
