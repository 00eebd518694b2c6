package cli

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/siwa/pkg/appleid"
	"github.com/aussiebroadwan/siwa/pkg/cryptox"
	"github.com/aussiebroadwan/siwa/pkg/jwtx"
	"github.com/spf13/cobra"
)

type assertionOutput struct {
	ClientSecret string                      `json:"client_secret"`
	Verified     bool                        `json:"verified,omitempty"`
	Claims       *jwtx.ClientAssertionClaims `json:"claims,omitempty"`
}

func newAssertionCmd(newApp AppFactory) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "assertion",
		Short: "Print a freshly signed client assertion",
		Long: `Sign a client assertion (the client_secret Apple expects) with the configured
key and print it. With --verify the assertion is also checked against the public
point derived from the key, which helps when Apple answers invalid_client.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			client := application.Client()

			secret, err := client.ClientSecret()
			if err != nil {
				return err
			}
			out := assertionOutput{ClientSecret: secret}

			if verify {
				verifier, err := appleid.NewVerifier(client.Identity(), client.KeyPair(), time.Now)
				if err != nil {
					return err
				}
				claims, err := verifier.Verify(secret)
				if err != nil {
					return fmt.Errorf("assertion does not verify: %w", err)
				}
				out.Verified = true
				out.Claims = claims
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "verify the assertion and print its claims")

	return cmd
}

func newJWKCmd(newApp AppFactory) *cobra.Command {
	var asPEM bool

	cmd := &cobra.Command{
		Use:   "jwk",
		Short: "Print the public key as a JWK set",
		Long: `Print the public half of the signing key as a JWK set, keyed by APPLE_KEY_ID.
With --pem the key is printed as a PEM "PUBLIC KEY" block instead, for tools
such as jwt.io or openssl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp()
			if err != nil {
				return err
			}
			client := application.Client()

			keys, err := appleid.NewKeySet(client.Identity(), client.KeyPair())
			if err != nil {
				return err
			}
			jwks := keys.PublicJWKS()

			if !asPEM {
				return writeJSON(cmd.OutOrStdout(), jwks)
			}

			for _, jwk := range jwks.Keys {
				pemKey, err := jwk.PEM()
				if err != nil {
					return fmt.Errorf("key %s: %w", jwk.Kid, err)
				}
				if _, err := fmt.Fprint(cmd.OutOrStdout(), pemKey); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asPEM, "pem", false, "print PEM instead of JSON")

	return cmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a throwaway P-256 key for local testing",
		Long: `Generate a P-256 private key in the same PKCS#8 layout as an Apple .p8 file and
print it base64 encoded, ready for APPLE_AUTH_PRIVATE_KEY. Apple will not accept
it; use it against a local stub.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pemKey, err := cryptox.GenerateES256Key()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cryptox.EncodeKeyMaterial(pemKey))
			return err
		},
	}
}
