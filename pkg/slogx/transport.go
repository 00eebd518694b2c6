package slogx

import (
	"net/http"
	"time"
)

// Transport is an http.RoundTripper that logs every outbound request with
// the logger found in the request context (see WithContext). Only the
// method, host, path, status and timing are logged, never headers or bodies,
// since those carry client secrets and tokens.
type Transport struct {
	// Base is the wrapped transport, http.DefaultTransport when nil.
	Base http.RoundTripper
}

// NewTransport wraps base with request logging.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	logger := FromContext(r.Context()).With(
		"method", r.Method,
		"host", r.URL.Host,
		"path", r.URL.Path,
	)

	start := time.Now()
	resp, err := base.RoundTrip(r)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		logger.Debug("http_client_request", "duration_ms", duration, "error", err)
		return nil, err
	}

	logger.Debug("http_client_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}
