package jwtx

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/aussiebroadwan/siwa/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(jwt.Claims) (string, error)
	PublicJWK() JWK
	Validate() error
}

// NewSignerES256 creates an ES256 signer from PEM bytes. Parsing is
// cryptox.ParseES256PEM, so PKCS8 and SEC1 are accepted and the public point
// is derived from the scalar.
func NewSignerES256(kid string, pemKey []byte) (Signer, error) {
	kp, err := cryptox.ParseES256PEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}

	key, err := kp.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}

	return NewSignerES256FromKey(kid, key)
}

// NewSignerES256FromKey creates an ES256 signer around an already parsed key.
func NewSignerES256FromKey(kid string, key *ecdsa.PrivateKey) (Signer, error) {
	s := &ES256Signer{
		kid: kid,
		key: key,
		alg: jwt.SigningMethodES256.Alg(),
	}
	if key != nil {
		s.pub = &key.PublicKey
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
