package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/appleid"
	"github.com/aussiebroadwan/siwa/pkg/httpx"
)

type Config struct {
	TeamID      string // Required: Apple Developer team id, iss of the client assertion
	ClientID    string // Required: Services ID or bundle id, sub and client_id
	KeyID       string // Required: Sign in with Apple key id, kid header
	PrivateKey  string // Required: base64 of the AuthKey_<KeyID>.p8 file
	RedirectURI string // Optional: redirect_uri sent with code exchanges

	BaseURL     string                // Optional: provider base URL (default: https://appleid.apple.com)
	HTTPTimeout time.Duration         // Optional: per request timeout (default: 10s)
	RateLimit   httpx.RateLimitConfig // Optional: outbound request budget (default: disabled)

	Env       string    // Environment (dev, staging, prod) (default: dev)
	LogLevel  string    // Log level (debug, info, warn, error) (default: info)
	LogFormat string    // Log format (json, text) (default: json)
	LogOutput io.Writer // Not read from the environment; stderr when nil

	// invalid lists variables that were set but could not be parsed
	invalid []string
}

// defaultRateLimit is disabled until RATELIMIT_APPLE_REQUESTS is set.
var defaultRateLimit = httpx.RateLimitConfig{
	RequestsPerWindow: 0,
	Window:            time.Minute,
	Burst:             1,
}

// LoadConfig reads the environment. Malformed values are not fatal here;
// they keep their default and are reported by Validate.
func LoadConfig() Config {
	cfg := Config{
		TeamID:      strings.TrimSpace(os.Getenv("APPLE_TEAM_ID")),
		ClientID:    strings.TrimSpace(os.Getenv("APPLE_CLIENT_ID")),
		KeyID:       strings.TrimSpace(os.Getenv("APPLE_KEY_ID")),
		PrivateKey:  os.Getenv("APPLE_AUTH_PRIVATE_KEY"),
		RedirectURI: os.Getenv("APPLE_REDIRECT_URI"),
		BaseURL:     getEnvOrDefault("APPLE_BASE_URL", appleid.DefaultBaseURL),
		Env:         getEnvOrDefault("ENV", "dev"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "json"),
	}

	timeout, err := getEnvDurationOrDefault("APPLE_HTTP_TIMEOUT", appleid.DefaultTimeout)
	if err != nil {
		cfg.invalid = append(cfg.invalid, err.Error())
	}
	cfg.HTTPTimeout = timeout

	rateLimit, err := httpx.ParseRateLimitFromEnv("APPLE", defaultRateLimit)
	if err != nil {
		cfg.invalid = append(cfg.invalid, err.Error())
	}
	cfg.RateLimit = rateLimit

	return cfg
}

// Validate reports every missing required variable at once, then any
// malformed one, wrapped in appleid.ErrConfiguration.
func (c Config) Validate() error {
	var missing []string
	if c.TeamID == "" {
		missing = append(missing, "APPLE_TEAM_ID")
	}
	if c.ClientID == "" {
		missing = append(missing, "APPLE_CLIENT_ID")
	}
	if c.KeyID == "" {
		missing = append(missing, "APPLE_KEY_ID")
	}
	if strings.TrimSpace(c.PrivateKey) == "" {
		missing = append(missing, "APPLE_AUTH_PRIVATE_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", appleid.ErrConfiguration, strings.Join(missing, ", "))
	}
	if len(c.invalid) > 0 {
		return fmt.Errorf("%w: invalid %s", appleid.ErrConfiguration, strings.Join(c.invalid, "; "))
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: APPLE_HTTP_TIMEOUT must be positive, got %s", appleid.ErrConfiguration, c.HTTPTimeout)
	}

	return nil
}

// Identity is the part of the config that signs client assertions.
func (c Config) Identity() appleid.ClientIdentity {
	return appleid.ClientIdentity{
		TeamID:     c.TeamID,
		ClientID:   c.ClientID,
		KeyID:      c.KeyID,
		PrivateKey: c.PrivateKey,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDurationOrDefault returns the default for an unset variable, and the
// default plus an error naming the variable when it can't be parsed.
func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	// Try parsing as duration (e.g., "10s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration, nil
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return defaultValue, fmt.Errorf("%s=%q (want a duration such as 10s)", key, value)
}
