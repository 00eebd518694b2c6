package jwtx_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/cryptox"
	"github.com/aussiebroadwan/siwa/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	exampleTeam     = "TEAM123456"
	exampleClient   = "com.example.web"
	exampleAudience = "https://appleid.apple.com"
)

func newTestSigner(t *testing.T, kid string) jwtx.Signer {
	t.Helper()

	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerES256(kid, pemKey)
	require.NoError(t, err)
	return signer
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func TestES256SignAndVerify(t *testing.T) {
	kid := "ABC123DEFG"
	signer := newTestSigner(t, kid)
	require.NoError(t, signer.Validate())
	require.Equal(t, "ES256", signer.Alg())
	require.Equal(t, kid, signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, 24*time.Hour, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "EC", jwks.Keys[0].Kty)
	require.Equal(t, "P-256", jwks.Keys[0].Crv)

	verifier := jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{
		Issuer:   exampleTeam,
		Subject:  exampleClient,
		Audience: []string{exampleAudience},
	})

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Issuer, parsed.Issuer)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.ElementsMatch(t, claims.Audience, parsed.Audience)
	require.Equal(t, 24*time.Hour, parsed.Lifetime())
}

func TestES256HeaderAndSignatureShape(t *testing.T) {
	signer := newTestSigner(t, "ABC123DEFG")

	token, err := signer.Sign(jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, time.Hour, time.Now()))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	var header map[string]any
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	require.Equal(t, map[string]any{"alg": "ES256", "kid": "ABC123DEFG"}, header)

	// JWS ES256 is raw r||s, not ASN.1 DER
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	require.Len(t, sig, 64)
}

func TestES256SignerFromKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	signer, err := jwtx.NewSignerES256FromKey("kid-1", key)
	require.NoError(t, err)
	require.True(t, key.PublicKey.Equal(mustPublicKey(t, signer.PublicJWK())))

	_, err = jwtx.NewSignerES256FromKey("kid-1", nil)
	require.Error(t, err)

	_, err = jwtx.NewSignerES256FromKey("", key)
	require.Error(t, err)

	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	_, err = jwtx.NewSignerES256FromKey("kid-1", p384)
	require.Error(t, err)
}

func mustPublicKey(t *testing.T, j jwtx.JWK) *ecdsa.PublicKey {
	t.Helper()
	pub, err := j.PublicKey()
	require.NoError(t, err)
	return pub
}

func TestNewSignerES256RejectsBadPEM(t *testing.T) {
	_, err := jwtx.NewSignerES256("kid", []byte("not pem"))
	require.ErrorIs(t, err, cryptox.ErrKeyFormat)

	_, err = jwtx.NewSignerES256("kid", []byte("-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----\n"))
	require.ErrorIs(t, err, cryptox.ErrKeyFormat)

	// Key parses but the kid is missing
	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)
	_, err = jwtx.NewSignerES256("", pemKey)
	require.Error(t, err)
}

func TestNewSignerES256MatchesKeyPair(t *testing.T) {
	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerES256("kid", pemKey)
	require.NoError(t, err)

	kp, err := cryptox.ParseES256PEM(pemKey)
	require.NoError(t, err)

	jwk := signer.PublicJWK()
	require.Equal(t, base64.RawURLEncoding.EncodeToString(kp.X[:]), jwk.X)
	require.Equal(t, base64.RawURLEncoding.EncodeToString(kp.Y[:]), jwk.Y)
}

func TestES256VerifyFailsForWrongIssuer(t *testing.T) {
	signer := newTestSigner(t, "k1")

	token, err := signer.Sign(jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, time.Minute, time.Now()))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	verifier := jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{Issuer: "wrong-team"})

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestES256VerifyFailsForUnknownKey(t *testing.T) {
	signer1 := newTestSigner(t, "key1")
	signer2 := newTestSigner(t, "key2")

	token, err := signer1.Sign(jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, time.Minute, time.Now()))
	require.NoError(t, err)

	// Keyset only contains key2
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	_, err = jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{}).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

func TestES256VerifyFailsForForeignSignature(t *testing.T) {
	// Same kid, different key material: what a botched key conversion looks like
	signer := newTestSigner(t, "same-kid")
	impostor := newTestSigner(t, "same-kid")

	token, err := impostor.Sign(jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, time.Minute, time.Now()))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	_, err = jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{}).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestES256VerifyFailsForHS256Token(t *testing.T) {
	signer := newTestSigner(t, "kid")

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, time.Minute, time.Now()))
	hs.Header["kid"] = "kid"
	token, err := hs.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{}).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrAlgMismatch)
}

func TestES256VerifyUsesConfiguredClock(t *testing.T) {
	signer := newTestSigner(t, "kid")
	issued := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	token, err := signer.Sign(jwtx.NewClientAssertionClaims(exampleTeam, exampleClient, exampleAudience, 24*time.Hour, issued))
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	inside := jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{Now: fixedClock(issued.Add(time.Hour))})
	_, err = inside.Verify(token)
	require.NoError(t, err)

	after := jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{Now: fixedClock(issued.Add(25 * time.Hour))})
	_, err = after.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestES256VerifyFailsForGarbage(t *testing.T) {
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(newTestSigner(t, "kid")))

	_, err := jwtx.NewVerifierES256(keyset, jwtx.VerifyOptions{}).Verify("not.a.jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}
