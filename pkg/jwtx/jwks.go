package jwtx

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"math/big"
)

// JWK represents a public key in JSON Web Key format (RFC 7517).
// Only the EC members are carried since ES256 is all we sign with.
type JWK struct {
	Kty string `json:"kty"`           // key type: "EC"
	Use string `json:"use,omitempty"` // what we use it for: "sig"
	Alg string `json:"alg,omitempty"` // algorithm: "ES256"
	Kid string `json:"kid,omitempty"` // key ID

	Crv string `json:"crv,omitempty"` // curve: "P-256"
	X   string `json:"x,omitempty"`   // base64url encoded x-coordinate
	Y   string `json:"y,omitempty"`   // base64url encoded y-coordinate
}

// JWKS is a JSON Web Key Set (RFC 7517).
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// NewES256JWK builds a JWK for an ECDSA P-256 public key.
// ES256 keys use the "EC" (Elliptic Curve) key type with the P-256 curve.
func NewES256JWK(kid, use, alg string, pub *ecdsa.PublicKey) JWK {
	// Coordinates are exactly 32 bytes (P-256 field size), left padded
	x := pub.X.FillBytes(make([]byte, 32))
	y := pub.Y.FillBytes(make([]byte, 32))

	return JWK{
		Kty: "EC",
		Use: use,
		Alg: alg,
		Kid: kid,
		Crv: "P-256",
		X:   base64.RawURLEncoding.EncodeToString(x),
		Y:   base64.RawURLEncoding.EncodeToString(y),
	}
}

// PublicKey decodes the JWK back into an ECDSA public key, checking that the
// point really is on P-256.
func (j JWK) PublicKey() (*ecdsa.PublicKey, error) {
	if j.Kty != "EC" {
		return nil, errors.New("jwtx: unsupported kty " + j.Kty)
	}
	// Only P-256 is supported for now
	if j.Crv != "P-256" {
		return nil, errors.New("jwtx: unsupported EC curve " + j.Crv)
	}

	xb, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil {
		return nil, err
	}
	yb, err := base64.RawURLEncoding.DecodeString(j.Y)
	if err != nil {
		return nil, err
	}

	pub := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xb),
		Y:     new(big.Int).SetBytes(yb),
	}
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, errors.New("jwtx: EC point is not on P-256")
	}
	return pub, nil
}

// PEM converts the JWK to PEM format for use with tools like jwt.io.
// Returns the PEM-encoded public key as a string, or an error if the conversion fails.
func (j JWK) PEM() (string, error) {
	publicKey, err := j.PublicKey()
	if err != nil {
		return "", err
	}

	// Marshal the public key to PKIX format
	derBytes, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", err
	}

	pemBlock := &pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: derBytes,
	}

	return string(pem.EncodeToMemory(pemBlock)), nil
}
