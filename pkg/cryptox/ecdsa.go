package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// GenerateES256Key generates a new ECDSA P-256 private key.
// ES256 uses the P-256 curve (also known as secp256r1 or prime256v1).
// Returns the private key in PEM format (PKCS8), the same layout Apple
// hands out as an AuthKey_XXXXXXXXXX.p8 file.
func GenerateES256Key() ([]byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate ECDSA key: %w", err)
	}

	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
	}

	privateKeyPEM := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privateKeyBytes,
	}

	return pem.EncodeToMemory(privateKeyPEM), nil
}

// EncodeKeyMaterial base64 encodes PEM bytes into the single-line form we
// keep in environment variables (see ParseES256KeyPair).
func EncodeKeyMaterial(pemKey []byte) string {
	return base64.StdEncoding.EncodeToString(pemKey)
}
