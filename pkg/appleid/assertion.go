package appleid

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/cryptox"
	"github.com/aussiebroadwan/siwa/pkg/jwtx"
)

const (
	// Audience is the aud claim Apple expects in every client assertion,
	// regardless of which host the requests are sent to.
	Audience = "https://appleid.apple.com"

	// AssertionTTL is exp - iat for every assertion we mint. Apple accepts
	// up to six months; a fresh assertion is signed per request anyway.
	AssertionTTL = 24 * time.Hour
)

// Issue signs a client assertion for identity with keyPair, issued at now.
//
// The header is {alg: ES256, kid: KeyID} and the claims are
// {iss: TeamID, sub: ClientID, aud: Audience, iat: now, exp: now+AssertionTTL}.
// ECDSA signatures are randomized, so two calls with the same inputs give
// different (equally valid) tokens.
//
// Issue does no I/O. The only failure is the signer rejecting the key, which
// is reported as ErrSigning.
func Issue(identity ClientIdentity, keyPair *cryptox.ECKeyPair, now time.Time) (string, error) {
	if keyPair == nil {
		return "", fmt.Errorf("%w: no key pair", ErrSigning)
	}

	priv, err := keyPair.PrivateKey()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	signer, err := jwtx.NewSignerES256FromKey(identity.KeyID, priv)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	claims := jwtx.NewClientAssertionClaims(identity.TeamID, identity.ClientID, Audience, AssertionTTL, now)

	token, err := signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return token, nil
}

// NewVerifier returns a verifier that checks assertions the way Apple does:
// ES256 signature against keyPair's public point, iss/sub/aud and the
// expiry window. It exists for diagnostics and tests.
func NewVerifier(identity ClientIdentity, keyPair *cryptox.ECKeyPair, now func() time.Time) (jwtx.Verifier, error) {
	keys, err := NewKeySet(identity, keyPair)
	if err != nil {
		return nil, err
	}

	return jwtx.NewVerifierES256(keys, jwtx.VerifyOptions{
		Issuer:   identity.TeamID,
		Subject:  identity.ClientID,
		Audience: []string{Audience},
		Now:      now,
	}), nil
}

// NewKeySet holds the identity's public key under its key id, the key set
// Apple resolves the kid header against.
func NewKeySet(identity ClientIdentity, keyPair *cryptox.ECKeyPair) (*jwtx.KeySet, error) {
	if keyPair == nil {
		return nil, fmt.Errorf("%w: no key pair", ErrKeyFormat)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddJWK(PublicJWK(identity, keyPair)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyFormat, err)
	}
	return keys, nil
}

// PublicJWK is the public half of the signing key as a JWK, tagged with the
// identity's key id.
func PublicJWK(identity ClientIdentity, keyPair *cryptox.ECKeyPair) jwtx.JWK {
	return jwtx.NewES256JWK(identity.KeyID, "sig", "ES256", keyPair.PublicKey())
}
