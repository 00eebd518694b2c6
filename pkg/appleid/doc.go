/*
Package appleid is a client for the token and revoke endpoints of Sign in with Apple.

# Overview

Apple does not issue static client secrets. A confidential client proves who it is by
signing a short lived ES256 JWT (the client assertion) with the private key downloaded
from the developer portal, and sending that JWT as client_secret. This package mints those
assertions and uses them to exchange authorization codes and revoke tokens.

# Client Identity

A ClientIdentity carries the four values Apple hands out:

  - TeamID: the developer team identifier, used as iss
  - ClientID: the Services ID (web) or bundle ID (native), used as sub and client_id
  - KeyID: the identifier of the signing key, used as the kid header
  - PrivateKey: the AuthKey_<KeyID>.p8 file, base64 encoded

Create a Client once at startup. NewClient validates the identity and parses the key
material, so a typo in the environment fails there rather than on the first sign in:

	client, err := appleid.NewClient(appleid.ClientIdentity{
		TeamID:     os.Getenv("APPLE_TEAM_ID"),
		ClientID:   os.Getenv("APPLE_CLIENT_ID"),
		KeyID:      os.Getenv("APPLE_KEY_ID"),
		PrivateKey: os.Getenv("APPLE_AUTH_PRIVATE_KEY"),
	})
	if err != nil {
		return err // ErrConfiguration or ErrKeyFormat
	}

# Operations

Exchange the code returned by the authorization redirect:

	tokens, err := client.ExchangeAuthorizationCode(ctx, code)

	// tokens.IDToken identifies the user, tokens.RefreshToken should be stored
	// so it can be revoked later

Revoke a stored refresh token, e.g. when the user deletes their account:

	err := client.RevokeToken(ctx, refreshToken)

Check a refresh token is still valid:

	tokens, err := client.RefreshToken(ctx, refreshToken)

Every call signs a new assertion. Nothing is cached between calls and the client never
retries; retry policy belongs to the caller.

# Client Assertions

Issue builds an assertion without any I/O:

	jwt, err := appleid.Issue(identity, keyPair, time.Now())

The header is {"alg":"ES256","kid":KeyID}. The claims are iss, sub, aud (always
https://appleid.apple.com), iat and exp, with exp exactly AssertionTTL after iat. ECDSA
signatures are randomized, so the same inputs give a different token each time.

NewVerifier and PublicJWK check assertions locally, which is handy when Apple answers
invalid_client and you need to know whether the kid, team or key is wrong.

# Error Handling

All errors can be matched with errors.Is or errors.As:

	tokens, err := client.ExchangeAuthorizationCode(ctx, code)
	var pe *appleid.ProtocolError
	switch {
	case errors.As(err, &pe):
		// Apple said no; pe.Body is the response text verbatim
		if pe.Code == appleid.ErrorCodeInvalidGrant {
			// code expired or already used
		}
	case errors.Is(err, appleid.ErrTimeout):
		// ctx cancelled or deadline passed
	case errors.Is(err, appleid.ErrNetwork):
		// DNS, TLS, connection reset
	case errors.Is(err, appleid.ErrDecode):
		// 2xx but not a token response
	}

ErrTimeout wraps ErrNetwork, so a caller that only checks ErrNetwork still sees
timeouts. ErrSigning means the key is corrupt and retrying will not help.

# Transport

The default HTTP client has a DefaultTimeout timeout. Use WithHTTPClient to supply your
own, for example one whose transport logs requests (slogx.Transport) or limits the
outbound rate (httpx.RateLimitedTransport). Use WithBaseURL to point at a test stub; the
aud claim does not change.

# Thread Safety

A Client is immutable after NewClient and safe for concurrent use.
*/
package appleid
