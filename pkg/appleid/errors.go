package appleid

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/siwa/pkg/cryptox"
)

// ============================================================================
// Error kinds
// ============================================================================

var (
	// ErrConfiguration reports missing or invalid client configuration. It is
	// only returned from NewClient, never from an operation.
	ErrConfiguration = errors.New("appleid: invalid configuration")

	// ErrKeyFormat reports key material that is not base64, not a PEM EC
	// private key, or not on P-256.
	ErrKeyFormat = cryptox.ErrKeyFormat

	// ErrSigning reports that a client assertion could not be signed. This
	// means the key material is corrupt; retrying won't help.
	ErrSigning = errors.New("appleid: failed to sign client assertion")

	// ErrDecode reports a 2xx response whose body is not the expected JSON.
	ErrDecode = errors.New("appleid: malformed response body")

	// ErrNetwork reports a transport level failure. Retry policy belongs to
	// the caller.
	ErrNetwork = errors.New("appleid: network error")

	// ErrTimeout reports a request abandoned because the caller's context was
	// cancelled or its deadline (or the HTTP client's timeout) passed. It
	// also matches ErrNetwork.
	ErrTimeout = fmt.Errorf("%w: request cancelled or timed out", ErrNetwork)
)

// ============================================================================
// OAuth2 Error Codes (RFC 6749 section 5.2, as returned by Apple)
// ============================================================================

const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnauthorizedClient   = "unauthorized_client"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
)

// ============================================================================
// ProtocolError
// ============================================================================

// ProtocolError is returned for any non-2xx response from the token or
// revoke endpoint. Body is the raw response text, untouched, up to the
// first 1 MiB; Truncated is set when the response was longer than that.
// Code and Description are filled in when the body is an OAuth2 error
// document.
//
// An invalid_client code almost always means the client assertion was
// rejected: wrong team/key id, or a key that doesn't match the kid.
type ProtocolError struct {
	StatusCode  int
	Body        string
	Code        string
	Description string
	Truncated   bool
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Code != "" {
		if e.Description != "" {
			return fmt.Sprintf("appleid: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Description)
		}
		return fmt.Sprintf("appleid: HTTP %d: %s", e.StatusCode, e.Code)
	}
	if e.Body != "" {
		return fmt.Sprintf("appleid: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("appleid: HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// errorResponse is the standard OAuth2 error body.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// newProtocolError builds a ProtocolError, keeping the body verbatim.
func newProtocolError(statusCode int, body []byte, truncated bool) *ProtocolError {
	pe := &ProtocolError{
		StatusCode: statusCode,
		Body:       string(body),
		Truncated:  truncated,
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		pe.Code = errResp.Error
		pe.Description = errResp.ErrorDescription
	}

	return pe
}

// IsProtocolError reports whether err is (or wraps) a ProtocolError with one
// of the given OAuth2 codes. With no codes any ProtocolError matches.
func IsProtocolError(err error, codes ...string) bool {
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if pe.Code == c {
			return true
		}
	}
	return false
}
