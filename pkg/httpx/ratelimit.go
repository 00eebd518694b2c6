// Package httpx holds outbound HTTP plumbing shared by the token client.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/slogx"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a request can never fit in the budget
// (e.g. the limiter has a zero burst).
var ErrRateLimited = errors.New("httpx: outbound rate limit exceeded")

// ErrInvalidRateLimit reports malformed RATELIMIT_* environment variables.
var ErrInvalidRateLimit = errors.New("httpx: invalid rate limit configuration")

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window,
	// zero disables limiting
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Disabled is the zero budget: no limiting at all.
var Disabled = RateLimitConfig{}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: RATELIMIT_{prefix}_{field}
// For example: RATELIMIT_APPLE_REQUESTS, RATELIMIT_APPLE_WINDOW_SEC, RATELIMIT_APPLE_BURST
//
// Unset variables keep the default. A set but malformed variable also keeps
// the default and is named in the returned ErrInvalidRateLimit error.
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) (RateLimitConfig, error) {
	config := defaultConfig
	var invalid []string

	// Parse requests per window, zero disables
	key := "RATELIMIT_" + prefix + "_REQUESTS"
	if val := os.Getenv(key); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests >= 0 {
			config.RequestsPerWindow = requests
		} else {
			invalid = append(invalid, fmt.Sprintf("%s=%q (want an integer >= 0)", key, val))
		}
	}

	// Parse window duration in seconds
	key = "RATELIMIT_" + prefix + "_WINDOW_SEC"
	if val := os.Getenv(key); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		} else {
			invalid = append(invalid, fmt.Sprintf("%s=%q (want an integer > 0)", key, val))
		}
	}

	// Parse burst size
	key = "RATELIMIT_" + prefix + "_BURST"
	if val := os.Getenv(key); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		} else {
			invalid = append(invalid, fmt.Sprintf("%s=%q (want an integer > 0)", key, val))
		}
	}

	if len(invalid) > 0 {
		return config, fmt.Errorf("%w: %s", ErrInvalidRateLimit, strings.Join(invalid, ", "))
	}
	return config, nil
}

// Enabled reports whether the config describes an actual limit.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

// Limiter builds a token bucket for the config, or nil when disabled. A
// missing burst defaults to one request.
func (c RateLimitConfig) Limiter() *rate.Limiter {
	if !c.Enabled() {
		return nil
	}

	// Calculate rate per second from requests per window
	ratePerSecond := float64(c.RequestsPerWindow) / c.Window.Seconds()
	return rate.NewLimiter(rate.Limit(ratePerSecond), max(c.Burst, 1))
}

// RateLimitedTransport waits for the limiter before every request. Waiting
// honours the request context, so a caller deadline bounds the wait too.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewRateLimitedTransport wraps base with config's limiter. When the config
// is disabled base is returned as is.
func NewRateLimitedTransport(base http.RoundTripper, config RateLimitConfig) http.RoundTripper {
	limiter := config.Limiter()
	if limiter == nil {
		return base
	}
	return &RateLimitedTransport{Base: base, Limiter: limiter}
}

func (t *RateLimitedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := t.Limiter.Wait(ctx); err != nil {
		slogx.FromContext(ctx).Warn("outbound rate limit wait failed",
			"host", r.URL.Host,
			"path", r.URL.Path,
			"error", err,
		)
		return nil, waitError(ctx, err)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

// waitError maps limiter failures onto context errors where that's what
// they mean: rate.Limiter refuses early when the wait would outlive the
// deadline.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("httpx: rate limit wait: %w", ctxErr)
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("httpx: rate limit wait: %w: %v", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%w: %v", ErrRateLimited, err)
}
