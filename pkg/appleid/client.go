package appleid

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/cryptox"
)

const (
	// DefaultBaseURL is Apple's identity service.
	DefaultBaseURL = "https://appleid.apple.com"

	// DefaultTimeout bounds a single request when no HTTP client is supplied.
	DefaultTimeout = 10 * time.Second

	tokenPath  = "/auth/token"
	revokePath = "/auth/revoke"
)

// Client talks to Apple's token and revoke endpoints on behalf of one
// ClientIdentity. It is immutable after NewClient and safe for concurrent use.
type Client struct {
	identity    ClientIdentity
	keyPair     *cryptox.ECKeyPair
	baseURL     string
	redirectURI string
	httpClient  *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. a local stub.
// The aud claim stays Audience.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request logging. Without it the
// logger attached to each call's context (slogx.FromContext) is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithRedirectURI adds redirect_uri to authorization code exchanges. Apple
// requires it when the authorization request carried one (web flows).
func WithRedirectURI(uri string) Option {
	return func(c *Client) { c.redirectURI = uri }
}

// NewClient validates identity, parses its key material and signs a throwaway
// assertion, so misconfiguration surfaces here rather than on the first
// request. Failures match ErrConfiguration, ErrKeyFormat or ErrSigning.
func NewClient(identity ClientIdentity, opts ...Option) (*Client, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}

	keyPair, err := cryptox.ParseES256KeyPair(identity.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("appleid: key %s: %w", identity.KeyID, err)
	}

	c := &Client{
		identity: identity,
		keyPair:  keyPair,
		baseURL:  DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		return nil, fmt.Errorf("%w: nil HTTP client", ErrConfiguration)
	}
	if c.now == nil {
		return nil, fmt.Errorf("%w: nil clock", ErrConfiguration)
	}
	if u, err := url.Parse(c.baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrConfiguration, c.baseURL)
	}

	if _, err := Issue(c.identity, c.keyPair, c.now()); err != nil {
		return nil, err
	}

	return c, nil
}

// Identity returns the identity the client signs for.
func (c *Client) Identity() ClientIdentity { return c.identity }

// KeyPair returns the parsed signing key.
func (c *Client) KeyPair() *cryptox.ECKeyPair { return c.keyPair }

// ClientSecret mints a fresh client assertion. Every request calls this;
// assertions are never reused.
func (c *Client) ClientSecret() (string, error) {
	return Issue(c.identity, c.keyPair, c.now())
}
