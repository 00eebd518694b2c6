// Package cli implements the siwa command line: one cobra command per
// Apple token operation, each printing JSON on stdout.
package cli

import (
	"encoding/json"
	"io"

	"github.com/aussiebroadwan/siwa/internal/siwa/app"
	"github.com/spf13/cobra"
)

// AppFactory builds the application for commands that talk to Apple. It is
// called lazily so that `siwa keygen` and `siwa --help` need no config.
type AppFactory func() (*app.Application, error)

// FromEnv loads the application from environment variables.
func FromEnv() (*app.Application, error) {
	return app.New(app.LoadConfig())
}

// NewRootCmd builds the command tree.
func NewRootCmd(newApp AppFactory, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "siwa",
		Short: "Sign in with Apple token client",
		Long: `siwa exchanges and revokes Sign in with Apple tokens, authenticating with an
ES256 client assertion signed by your developer key.

Configuration comes from the environment:
  APPLE_TEAM_ID, APPLE_CLIENT_ID, APPLE_KEY_ID   identity (required)
  APPLE_AUTH_PRIVATE_KEY                         base64 of the .p8 file (required)
  APPLE_REDIRECT_URI, APPLE_BASE_URL, APPLE_HTTP_TIMEOUT
  RATELIMIT_APPLE_REQUESTS, RATELIMIT_APPLE_WINDOW_SEC, RATELIMIT_APPLE_BURST
  ENV, LOG_LEVEL, LOG_FORMAT`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "siwa version %s\n" .Version}}`)

	rootCmd.AddCommand(newExchangeCmd(newApp))
	rootCmd.AddCommand(newRefreshCmd(newApp))
	rootCmd.AddCommand(newRevokeCmd(newApp))
	rootCmd.AddCommand(newAssertionCmd(newApp))
	rootCmd.AddCommand(newJWKCmd(newApp))
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}

// writeJSON prints v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
		},
	}
}
