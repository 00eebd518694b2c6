package cli

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/appleid"
	"github.com/spf13/cobra"
)

// tokenOutput is what exchange and refresh print: Apple's response plus
// the absolute expiry.
type tokenOutput struct {
	*appleid.TokenResponse
	Expiry time.Time `json:"expiry,omitzero"`
}

func newTokenOutput(resp *appleid.TokenResponse, issuedAt time.Time) tokenOutput {
	return tokenOutput{
		TokenResponse: resp,
		Expiry:        resp.OAuth2Token(issuedAt).Expiry.UTC(),
	}
}

func newExchangeCmd(newApp AppFactory) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for tokens",
		Long: `Exchange the authorization code returned to your redirect URI for an access
token, refresh token and identity token. Codes are single use and expire after
five minutes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}

			issuedAt := time.Now()
			resp, err := application.Client().ExchangeAuthorizationCode(cmd.Context(), code)
			if err != nil {
				return fmt.Errorf("exchange failed: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), newTokenOutput(resp, issuedAt))
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "authorization code from the sign in redirect")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newRefreshCmd(newApp AppFactory) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Validate a refresh token",
		Long: `Run the refresh_token grant. Apple returns a new access token but no new
refresh token; a 400 invalid_grant means the refresh token has been revoked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}

			issuedAt := time.Now()
			resp, err := application.Client().RefreshToken(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), newTokenOutput(resp, issuedAt))
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "refresh token to validate")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newRevokeCmd(newApp AppFactory) *cobra.Command {
	var (
		token string
		hint  string
	)

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a refresh or access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			typeHint := appleid.TokenTypeHint(hint)
			switch typeHint {
			case appleid.TokenTypeRefreshToken, appleid.TokenTypeAccessToken:
			default:
				return fmt.Errorf("invalid --hint %q: want %s or %s",
					hint, appleid.TokenTypeRefreshToken, appleid.TokenTypeAccessToken)
			}

			application, err := newApp()
			if err != nil {
				return err
			}

			if err := application.Client().Revoke(cmd.Context(), token, typeHint); err != nil {
				return fmt.Errorf("revoke failed: %w", err)
			}

			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"revoked":         true,
				"token_type_hint": typeHint,
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "token to revoke")
	cmd.Flags().StringVar(&hint, "hint", string(appleid.TokenTypeRefreshToken), "token type: refresh_token or access_token")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
