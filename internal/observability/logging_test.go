package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestContextValues(t *testing.T) {
	ctx := WithBatchID(context.Background(), "b-1")
	ctx = WithStage(ctx, "render")
	ctx = WithPage(ctx, "/index.html")

	require.Equal(t, LogContext{BatchID: "b-1", Stage: "render", Page: "/index.html"}, GetContext(ctx))
	require.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestStageOverride(t *testing.T) {
	ctx := WithStage(WithStage(context.Background(), "parse"), "render")
	require.Equal(t, "render", GetContext(ctx).Stage)
}

func TestLogHelpersIncludeContext(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithStage(WithBatchID(context.Background(), "b-2"), "write")
	WarnContext(ctx, "slow page", logfields.Pages(3))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "WARN", rec["level"])
	require.Equal(t, "slow page", rec["msg"])
	require.Equal(t, "b-2", rec[logfields.KeyBatchID])
	require.Equal(t, "write", rec[logfields.KeyStage])
	require.InDelta(t, 3, rec[logfields.KeyPages], 0)
	require.NotContains(t, rec, logfields.KeyPage)
}

func TestLogLevels(t *testing.T) {
	buf := captureLogs(t)
	ctx := context.Background()

	DebugContext(ctx, "d")
	InfoContext(ctx, "i")
	ErrorContext(ctx, "e")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
}
