package jwtx

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClientAssertionClaims are the claims of a client secret JWT: the token a
// confidential client signs with its own key and presents as client_secret
// to the provider's token and revoke endpoints.
//
//	iss: team (or developer account) identifier
//	sub: client identifier
//	aud: the provider's issuer URL
//	iat, exp
type ClientAssertionClaims struct {
	jwt.RegisteredClaims
}

// NewClientAssertionClaims builds the claim set for a client assertion issued
// at now and valid for ttl. No nbf or jti is set; the provider only looks at
// iss, sub, aud, iat and exp.
func NewClientAssertionClaims(
	issuer, subject, audience string,
	ttl time.Duration,
	now time.Time,
) ClientAssertionClaims {
	now = now.UTC().Truncate(time.Second)

	return ClientAssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// MarshalJSON writes a single audience as a plain string, the form the
// provider documents, instead of golang-jwt's one element array.
func (c ClientAssertionClaims) MarshalJSON() ([]byte, error) {
	type registered jwt.RegisteredClaims

	out := struct {
		registered
		Audience any `json:"aud,omitempty"`
	}{registered: registered(c.RegisteredClaims)}

	switch len(c.Audience) {
	case 0:
	case 1:
		out.Audience = c.Audience[0]
	default:
		out.Audience = []string(c.Audience)
	}

	return json.Marshal(out)
}

// Lifetime is exp - iat, or zero when either is missing.
func (c *ClientAssertionClaims) Lifetime() time.Duration {
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(c.IssuedAt.Time)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *ClientAssertionClaims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateSubject checks if the subject matches expected value.
func (c *ClientAssertionClaims) ValidateSubject(expected string) error {
	if expected == "" {
		return nil
	}

	if c.Subject != expected {
		return ErrSubject
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *ClientAssertionClaims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryAt ensures the token hasn't expired at the given instant.
// iat in the future (beyond leeway) is rejected too.
func (c *ClientAssertionClaims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}

	if now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.IssuedAt != nil && now.Before(c.IssuedAt.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
