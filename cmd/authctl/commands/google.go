package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benvon/authgate/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewTestGoogleCmd creates the test-google command
func NewTestGoogleCmd(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "test-google",
		Short: "Check the Google OAuth configuration",
		Long:  "Validate that Google login is fully configured and that the signing keys endpoint is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(load)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			auth := c.cfg.Auth

			if !c.creds.GoogleModeEnabled() {
				return fmt.Errorf("google login is disabled: client id, client secret and redirect URI are all required")
			}
			if !c.codec.Enabled() {
				return fmt.Errorf("google login needs OPEN_NOTEBOOK_JWT_SECRET to sign state and access tokens")
			}
			fmt.Fprintf(out, "Client ID:     %s\n", auth.GoogleClientID)
			fmt.Fprintf(out, "Redirect URI:  %s\n", auth.GoogleRedirectURI)

			ctx, cancel := context.WithTimeout(cmd.Context(), auth.OAuthHTTPTimeout)
			defer cancel()

			jwks := oidc.NewJWKSManager(&http.Client{Timeout: auth.OAuthHTTPTimeout}, oidc.DefaultJWKSTTL)
			keys, err := jwks.GetJWKS(ctx, auth.GoogleJWKSURL)
			if err != nil {
				return fmt.Errorf("failed to fetch signing keys from %s: %w", auth.GoogleJWKSURL, err)
			}
			fmt.Fprintf(out, "Signing keys:  %d available at %s\n", keys.Len(), auth.GoogleJWKSURL)
			return nil
		},
	}
}
