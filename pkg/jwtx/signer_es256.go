package jwtx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ES256Signer implements the Signer interface using ECDSA P-256 with SHA-256.
// Signatures are the fixed 64 byte r||s form from RFC 7518 section 3.4,
// which golang-jwt produces for SigningMethodES256.
type ES256Signer struct {
	kid string
	key *ecdsa.PrivateKey
	pub *ecdsa.PublicKey
	alg string
}

func (s *ES256Signer) Alg() string { return s.alg }
func (s *ES256Signer) KID() string { return s.kid }

// Sign takes your claims and turns them into a signed JWT string.
// The header carries alg and kid, and typ is dropped since the provider
// doesn't ask for it.
func (s *ES256Signer) Sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	delete(t.Header, "typ")
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

// PublicJWK returns a JWK for the public half of the signing key. Paste it
// into a verifier (or jwt.io) to check what the provider will see.
func (s *ES256Signer) PublicJWK() JWK {
	return NewES256JWK(s.kid, "sig", s.alg, s.pub)
}

// Validate does a quick sanity check to make sure we actually have keys.
func (s *ES256Signer) Validate() error {
	if s.key == nil || s.pub == nil {
		return errors.New("jwtx: nil ECDSA key")
	}
	if s.kid == "" {
		return errors.New("jwtx: empty kid")
	}
	// Verify we're using the P-256 curve
	if s.key.Curve != elliptic.P256() {
		return fmt.Errorf("jwtx: expected P-256 curve, got %s", s.key.Curve.Params().Name)
	}
	if !s.key.Curve.IsOnCurve(s.pub.X, s.pub.Y) {
		return errors.New("jwtx: public key is not on P-256")
	}
	return nil
}
