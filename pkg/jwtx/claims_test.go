package jwtx_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClientAssertionClaims(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	c := jwtx.NewClientAssertionClaims("TEAM123456", "com.example.web", "https://appleid.apple.com", 24*time.Hour, now)

	require.Equal(t, "TEAM123456", c.Issuer)
	require.Equal(t, "com.example.web", c.Subject)
	require.Equal(t, jwt.ClaimStrings{"https://appleid.apple.com"}, c.Audience)
	require.Equal(t, now.Unix(), c.IssuedAt.Unix())
	require.Equal(t, now.Add(24*time.Hour).Unix(), c.ExpiresAt.Unix())
	require.Equal(t, 24*time.Hour, c.Lifetime())

	// Nothing the provider doesn't ask for
	require.Nil(t, c.NotBefore)
	require.Empty(t, c.ID)
}

func TestNewClientAssertionClaimsDropsSubSecond(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 999_999_999, time.FixedZone("AEST", 10*3600))

	c := jwtx.NewClientAssertionClaims("t", "c", "a", time.Hour, now)
	require.Equal(t, time.Hour, c.Lifetime())
	require.Equal(t, time.UTC, c.IssuedAt.Location())
}

func TestClientAssertionClaimsJSON(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := jwtx.NewClientAssertionClaims("TEAM123456", "com.example.web", "https://appleid.apple.com", time.Hour, now)

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"iss": "TEAM123456",
		"sub": "com.example.web",
		"aud": "https://appleid.apple.com",
		"iat": 1700000000,
		"exp": 1700003600
	}`, string(raw))

	// Reads back through the embedded claims
	var back jwtx.ClientAssertionClaims
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, c.Audience, back.Audience)
	require.Equal(t, c.ExpiresAt.Unix(), back.ExpiresAt.Unix())

	// More than one audience stays an array
	c.Audience = jwt.ClaimStrings{"a", "b"}
	raw, err = json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"aud":["a","b"]`)
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.ClientAssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "TEAM123456",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("TEAM123456"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		err := c.ValidateIssuer("OTHERTEAM1")
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}

func TestValidateSubject(t *testing.T) {
	c := &jwtx.ClientAssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "com.example.web",
		},
	}

	require.NoError(t, c.ValidateSubject("com.example.web"))
	require.NoError(t, c.ValidateSubject(""))
	require.ErrorIs(t, c.ValidateSubject("com.example.ios"), jwtx.ErrSubject)
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.ClientAssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: []string{"https://appleid.apple.com"},
		},
	}

	t.Run("contains match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"https://appleid.apple.com"}))
	})

	t.Run("multiple candidates", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"foo", "https://appleid.apple.com"}))
	})

	t.Run("no match", func(t *testing.T) {
		err := c.ValidateAudience([]string{"https://example.com"})
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("empty expected list", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewClientAssertionClaims("t", "c", "a", time.Hour, now)

	t.Run("inside window", func(t *testing.T) {
		require.NoError(t, c.ValidateExpiryAt(now.Add(30*time.Minute), 0))
	})

	t.Run("expired", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateExpiryAt(now.Add(2*time.Hour), 0), jwtx.ErrExpired)
	})

	t.Run("expired but inside leeway", func(t *testing.T) {
		require.NoError(t, c.ValidateExpiryAt(now.Add(time.Hour+10*time.Second), 30*time.Second))
	})

	t.Run("issued in the future", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateExpiryAt(now.Add(-time.Minute), 0), jwtx.ErrNotYetValid)
	})

	t.Run("missing exp", func(t *testing.T) {
		empty := &jwtx.ClientAssertionClaims{}
		require.ErrorIs(t, empty.ValidateExpiryAt(now, 0), jwtx.ErrInvalidClaim)
	})
}
