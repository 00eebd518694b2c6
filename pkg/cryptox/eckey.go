package cryptox

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// P256CoordinateSize is the width in bytes of a P-256 field element and of
// its private scalar.
const P256CoordinateSize = 32

// ErrKeyFormat reports key material that is not base64, not a PEM encoded
// EC private key, or not on P-256.
var ErrKeyFormat = errors.New("cryptox: invalid key material")

// ECKeyPair is a P-256 key in its raw form: the affine public point (X, Y)
// and the private scalar D, each a fixed-width unsigned big-endian value.
type ECKeyPair struct {
	X [P256CoordinateSize]byte
	Y [P256CoordinateSize]byte
	D [P256CoordinateSize]byte
}

// ParseES256KeyPair turns base64 encoded PEM key material into an ECKeyPair.
//
// Both PKCS8 ("PRIVATE KEY", the Apple .p8 layout) and SEC1
// ("EC PRIVATE KEY") blocks are accepted. Only the private scalar is taken
// from the PEM; the public point is always derived from it so the result
// does not depend on whether (or how) the encoder embedded the point.
func ParseES256KeyPair(material string) (*ECKeyPair, error) {
	raw, err := decodeKeyMaterial(material)
	if err != nil {
		return nil, err
	}

	return ParseES256PEM(raw)
}

// ParseES256PEM is ParseES256KeyPair without the base64 layer. Leading
// "EC PARAMETERS" blocks, as written by `openssl ecparam -genkey`, are
// skipped.
func ParseES256PEM(pemBytes []byte) (*ECKeyPair, error) {
	block, err := privateKeyBlock(pemBytes)
	if err != nil {
		return nil, err
	}

	d, err := privateScalar(block)
	if err != nil {
		return nil, err
	}

	return NewECKeyPair(d)
}

// NewECKeyPair builds a key pair from a big-endian private scalar of at most
// 32 bytes, deriving Q = d·G.
func NewECKeyPair(d []byte) (*ECKeyPair, error) {
	x, y, err := DerivePublicPoint(d)
	if err != nil {
		return nil, err
	}

	kp := &ECKeyPair{X: x, Y: y}
	copy(kp.D[P256CoordinateSize-len(d):], d)
	return kp, nil
}

// DerivePublicPoint computes the affine coordinates of d·G on P-256.
// Scalars shorter than 32 bytes are left-padded; zero and values >= N fail.
func DerivePublicPoint(d []byte) (x, y [P256CoordinateSize]byte, err error) {
	if len(d) == 0 || len(d) > P256CoordinateSize {
		return x, y, fmt.Errorf("%w: private scalar is %d bytes, want 1..%d", ErrKeyFormat, len(d), P256CoordinateSize)
	}

	var scalar [P256CoordinateSize]byte
	copy(scalar[P256CoordinateSize-len(d):], d)

	priv, err := ecdh.P256().NewPrivateKey(scalar[:])
	if err != nil {
		return x, y, fmt.Errorf("%w: private scalar out of range: %v", ErrKeyFormat, err)
	}

	// Uncompressed SEC1 point: 0x04 || X || Y
	point := priv.PublicKey().Bytes()
	if len(point) != 1+2*P256CoordinateSize || point[0] != 0x04 {
		return x, y, fmt.Errorf("%w: unexpected public point encoding", ErrKeyFormat)
	}

	copy(x[:], point[1:1+P256CoordinateSize])
	copy(y[:], point[1+P256CoordinateSize:])
	return x, y, nil
}

// Curve is always P-256.
func (k *ECKeyPair) Curve() elliptic.Curve { return elliptic.P256() }

// PublicKey returns the public half as a crypto/ecdsa key.
func (k *ECKeyPair) PublicKey() *ecdsa.PublicKey {
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(k.X[:]),
		Y:     new(big.Int).SetBytes(k.Y[:]),
	}
}

// PrivateKey rebuilds the native signing key from the raw triple.
func (k *ECKeyPair) PrivateKey() (*ecdsa.PrivateKey, error) {
	pub := k.PublicKey()
	if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("%w: public point is not on P-256", ErrKeyFormat)
	}

	return &ecdsa.PrivateKey{
		PublicKey: *pub,
		D:         new(big.Int).SetBytes(k.D[:]),
	}, nil
}

// String never prints the private scalar.
func (k *ECKeyPair) String() string {
	return fmt.Sprintf("ECKeyPair{crv=P-256 x=%s y=%s d=REDACTED}",
		hex.EncodeToString(k.X[:]), hex.EncodeToString(k.Y[:]))
}

// decodeKeyMaterial strips whitespace and base64 decodes.
func decodeKeyMaterial(material string) ([]byte, error) {
	compact := strings.Join(strings.Fields(material), "")
	if compact == "" {
		return nil, fmt.Errorf("%w: empty key material", ErrKeyFormat)
	}

	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		// Tolerate unpadded input
		var rawErr error
		raw, rawErr = base64.RawStdEncoding.DecodeString(compact)
		if rawErr != nil {
			return nil, fmt.Errorf("%w: not valid base64: %v", ErrKeyFormat, err)
		}
	}

	return raw, nil
}

// privateKeyBlock returns the first PEM block that isn't curve parameters.
func privateKeyBlock(pemBytes []byte) (*pem.Block, error) {
	rest := pemBytes
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no PEM block found", ErrKeyFormat)
		}
		if block.Type != "EC PARAMETERS" {
			return block, nil
		}
	}
}

// privateScalar extracts d as a 32 byte big-endian value and checks the curve.
func privateScalar(block *pem.Block) ([]byte, error) {
	var key *ecdsa.PrivateKey

	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse PKCS8: %v", ErrKeyFormat, err)
		}
		ecKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS8 key is %T, not ECDSA", ErrKeyFormat, parsed)
		}
		key = ecKey

	case "EC PRIVATE KEY":
		ecKey, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: parse SEC1: %v", ErrKeyFormat, err)
		}
		key = ecKey

	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrKeyFormat, block.Type)
	}

	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s, want P-256", ErrKeyFormat, key.Curve.Params().Name)
	}

	return key.D.FillBytes(make([]byte, P256CoordinateSize)), nil
}
