package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/siwa/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{
		Service: "siwa",
		Version: "v-test",
		Env:     "test",
		Level:   "info",
		Format:  "json",
		Output:  &buf,
	})

	logger.Info("hello", "k", "v")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "siwa", entry["service"])
	require.Equal(t, "v-test", entry["version"])
	require.Equal(t, "test", entry["env"])
	require.Equal(t, "v", entry["k"])
}

func TestNewTextFormat(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "siwa", Format: "text", Output: &buf})
	logger.Info("hello")

	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "service=siwa")
}

func TestNewLoggerLeavesDefaultAlone(t *testing.T) {
	prev := slog.Default()

	var buf bytes.Buffer
	logger := slogx.NewLogger(slogx.Config{Service: "siwa", Output: &buf})
	require.NotSame(t, prev, logger)
	require.Same(t, prev, slog.Default())

	logger.Info("hello")
	require.Contains(t, buf.String(), `"service":"siwa"`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("nonsense"))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := slogx.WithContext(context.Background(), base)
	ctx = slogx.WithRequestID(ctx, "01HZX")
	slogx.FromContext(ctx).Info("tagged")

	require.Contains(t, buf.String(), `"req_id":"01HZX"`)

	// No logger attached falls back to the default
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))

	// nil is ignored
	require.Equal(t, slog.Default(), slogx.FromContext(slogx.WithContext(context.Background(), nil)))
}

func TestTransportLogsWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := slogx.WithContext(context.Background(), logger)

	client := &http.Client{Transport: slogx.NewTransport(nil)}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/auth/token", strings.NewReader("client_secret=very-secret"))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	out := buf.String()
	require.Contains(t, out, `"msg":"http_client_request"`)
	require.Contains(t, out, `"status":418`)
	require.Contains(t, out, `"path":"/auth/token"`)
	require.NotContains(t, out, "very-secret")
}
