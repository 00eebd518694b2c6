package appleid

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// TokenResponse is the body Apple returns from POST /auth/token.
// Ownership passes to the caller; the client keeps no copy.
type TokenResponse struct {
	// AccessToken is currently of little use beyond proving the exchange worked
	AccessToken string `json:"access_token"`

	// TokenType is "bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int `json:"expires_in"`

	// RefreshToken is only returned by the authorization_code grant
	RefreshToken string `json:"refresh_token,omitempty"`

	// IDToken is the signed identity token describing the user
	IDToken string `json:"id_token,omitempty"`
}

// OAuth2Token converts the response into an oauth2.Token so it can be handed
// to code built on golang.org/x/oauth2. The expiry is measured from
// issuedAt; the id_token rides along as an extra.
func (r *TokenResponse) OAuth2Token(issuedAt time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	if r.ExpiresIn > 0 {
		tok.Expiry = issuedAt.Add(time.Duration(r.ExpiresIn) * time.Second)
		tok.ExpiresIn = int64(r.ExpiresIn)
	}
	if r.IDToken != "" {
		tok = tok.WithExtra(map[string]any{"id_token": r.IDToken})
	}
	return tok
}

// decodeTokenResponse parses a 2xx token endpoint body. access_token and
// token_type must be present.
func decodeTokenResponse(body []byte) (*TokenResponse, error) {
	var resp TokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	switch {
	case resp.AccessToken == "":
		return nil, fmt.Errorf("%w: missing access_token", ErrDecode)
	case resp.TokenType == "":
		return nil, fmt.Errorf("%w: missing token_type", ErrDecode)
	}

	return &resp, nil
}
