package jwtx

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ES256Verifier validates JWTs signed using ES256 (ECDSA P-256 with SHA-256).
type ES256Verifier struct {
	keys *KeySet
	opts VerifyOptions
}

// NewVerifierES256 creates a verifier using a KeySet of ECDSA P-256 public keys.
func NewVerifierES256(keys *KeySet, opts VerifyOptions) *ES256Verifier {
	return &ES256Verifier{keys: keys, opts: opts}
}

// Verify validates the JWT string and returns its parsed claims.
func (v *ES256Verifier) Verify(tokenStr string) (*ClientAssertionClaims, error) {
	// Time based checks are done below against the configured clock
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &ClientAssertionClaims{}, func(t *jwt.Token) (any, error) {
		// Need the kid to know which key to use
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrUnknownKID, kid, err)
		}

		ecdsaPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return nil, errors.New("jwtx: invalid ECDSA key type")
		}
		return ecdsaPub, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*ClientAssertionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}

	// Now check all the claim requirements
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return nil, err
	}
	if err := claims.ValidateSubject(v.opts.Subject); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiryAt(v.opts.now(), v.opts.Leeway); err != nil {
		return nil, err
	}

	return claims, nil
}

// classifyParseError maps golang-jwt errors onto our sentinels, keeping the
// original error in the chain.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrECDSAVerification):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// Signature present but the alg is not one we accept
		return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
