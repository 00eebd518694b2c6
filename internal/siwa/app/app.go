package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/siwa/pkg/appleid"
	"github.com/aussiebroadwan/siwa/pkg/httpx"
	"github.com/aussiebroadwan/siwa/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application holds the configured Apple client and its logger. Everything is
// built once in New and read-only afterwards.
type Application struct {
	cfg    Config
	logger *slog.Logger
	client *appleid.Client
}

// New validates cfg and builds the application. Misconfiguration (missing
// or malformed variables, unreadable key) fails here, before any request is
// made, and leaves slog.Default untouched.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.NewLogger(slogx.Config{
			Service: "siwa",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
	}

	client, err := appleid.NewClient(cfg.Identity(),
		appleid.WithBaseURL(cfg.BaseURL),
		appleid.WithRedirectURI(cfg.RedirectURI),
		appleid.WithHTTPClient(app.newHTTPClient()),
		appleid.WithLogger(app.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize apple client: %w", err)
	}
	app.client = client

	// Only a fully built application replaces the process logger
	slog.SetDefault(app.logger)

	app.logger.Debug("apple client ready",
		"identity", cfg.Identity(),
		"base_url", cfg.BaseURL,
		"rate_limited", cfg.RateLimit.Enabled(),
	)

	return app, nil
}

// newHTTPClient layers request logging over the outbound rate limiter.
func (app *Application) newHTTPClient() *http.Client {
	transport := httpx.NewRateLimitedTransport(http.DefaultTransport, app.cfg.RateLimit)

	return &http.Client{
		Timeout:   app.cfg.HTTPTimeout,
		Transport: slogx.NewTransport(transport),
	}
}

func (app *Application) Config() Config          { return app.cfg }
func (app *Application) Logger() *slog.Logger    { return app.logger }
func (app *Application) Client() *appleid.Client { return app.client }
