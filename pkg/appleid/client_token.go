package appleid

import (
	"context"
	"net/url"
)

// TokenTypeHint tells the revoke endpoint what kind of token it is given.
type TokenTypeHint string

const (
	TokenTypeRefreshToken TokenTypeHint = "refresh_token"
	TokenTypeAccessToken  TokenTypeHint = "access_token"
)

// ExchangeAuthorizationCode trades an authorization code from the sign in
// flow for tokens.
//
// Non-2xx responses come back as *ProtocolError (an expired or reused code is
// 400 invalid_grant). A 2xx body that isn't a token response is ErrDecode.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string) (*TokenResponse, error) {
	secret, err := c.ClientSecret()
	if err != nil {
		return nil, err
	}

	data := url.Values{
		"code":          {code},
		"client_id":     {c.identity.ClientID},
		"client_secret": {secret},
		"grant_type":    {"authorization_code"},
	}
	if c.redirectURI != "" {
		data.Set("redirect_uri", c.redirectURI)
	}

	return c.requestToken(ctx, "exchange_code", data)
}

// RefreshToken validates a stored refresh token by running the
// refresh_token grant. Apple answers with a new access token only; the
// response's RefreshToken is empty.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	secret, err := c.ClientSecret()
	if err != nil {
		return nil, err
	}

	data := url.Values{
		"client_id":     {c.identity.ClientID},
		"client_secret": {secret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	return c.requestToken(ctx, "refresh", data)
}

// RevokeToken revokes a refresh token, e.g. when the user deletes their
// account.
func (c *Client) RevokeToken(ctx context.Context, refreshToken string) error {
	return c.Revoke(ctx, refreshToken, TokenTypeRefreshToken)
}

// Revoke revokes a refresh or access token. Any 2xx counts as success and
// the body is ignored.
func (c *Client) Revoke(ctx context.Context, token string, hint TokenTypeHint) error {
	secret, err := c.ClientSecret()
	if err != nil {
		return err
	}

	data := url.Values{
		"token":           {token},
		"client_id":       {c.identity.ClientID},
		"client_secret":   {secret},
		"token_type_hint": {string(hint)},
	}

	_, err = c.postForm(ctx, "revoke", revokePath, data)
	return err
}

func (c *Client) requestToken(ctx context.Context, op string, data url.Values) (*TokenResponse, error) {
	body, err := c.postForm(ctx, op, tokenPath, data)
	if err != nil {
		return nil, err
	}

	return decodeTokenResponse(body)
}
