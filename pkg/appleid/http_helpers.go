package appleid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/idx"
	"github.com/aussiebroadwan/siwa/pkg/slogx"
)

// maxBodySize caps how much of a response we read. Apple's bodies are a few
// kilobytes at most; anything longer is cut and flagged on ProtocolError.
const maxBodySize = 1 << 20

const userAgent = "siwa/1.0"

// postForm sends a form encoded POST and returns the body of a 2xx response.
// Non-2xx responses become *ProtocolError, transport failures ErrNetwork or
// ErrTimeout.
func (c *Client) postForm(ctx context.Context, op, path string, data url.Values) ([]byte, error) {
	if c.logger != nil {
		ctx = slogx.WithContext(ctx, c.logger)
	}
	ctx = slogx.WithRequestID(ctx, idx.New().String())
	log := slogx.FromContext(ctx).With("op", op)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = transportError(ctx, err)
		log.Warn("apple request failed", "path", path, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	// One byte past the cap tells a full body from a cut one
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	truncated := len(body) > maxBodySize
	if truncated {
		body = body[:maxBodySize]
	}
	if err != nil {
		err = transportError(ctx, err)
		log.Warn("failed to read apple response", "path", path, "status", resp.StatusCode, "error", err)
		return nil, err
	}

	log.Debug("apple request complete",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pe := newProtocolError(resp.StatusCode, body, truncated)
		log.Info("apple rejected request", "path", path, "status", pe.StatusCode, "code", pe.Code, "truncated", truncated)
		return nil, pe
	}

	return body, nil
}

// transportError classifies a failed round trip as ErrTimeout (context done
// or a timeout reported by the transport) or plain ErrNetwork.
func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case ctx.Err() != nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
}
