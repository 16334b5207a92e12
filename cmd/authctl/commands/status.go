package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which authentication modes are active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(load)
			if err != nil {
				return err
			}
			auth := c.cfg.Auth
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Authentication:    %s\n", enabled(c.creds.AuthRequired()))
			fmt.Fprintf(out, "Password login:    %s\n", enabled(c.creds.PasswordModeEnabled()))
			fmt.Fprintf(out, "Google login:      %s\n", enabled(c.creds.GoogleModeEnabled()))
			fmt.Fprintf(out, "Signing secret:    %s\n", enabled(c.codec.Enabled()))
			fmt.Fprintf(out, "Token lifetime:    %s\n", auth.TokenLifetime)
			if len(auth.AllowedEmails) > 0 {
				fmt.Fprintf(out, "Allowed emails:    %s\n", strings.Join(auth.AllowedEmails, ", "))
			}
			if len(auth.AllowedDomains) > 0 {
				fmt.Fprintf(out, "Allowed domains:   %s\n", strings.Join(auth.AllowedDomains, ", "))
			}
			fmt.Fprintf(out, "Excluded paths:    %s\n", strings.Join(auth.ExcludedPaths, ", "))

			if c.creds.AuthRequired() && !c.codec.Enabled() {
				fmt.Fprintln(out, "\nWarning: no signing secret; only the legacy password can authenticate requests")
			}
			return nil
		},
	}
}
