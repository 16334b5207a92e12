package commands

import (
	"fmt"

	"github.com/benvon/authgate/internal/models"
	"github.com/spf13/cobra"
)

// NewMintCmd creates the mint command
func NewMintCmd(load ConfigLoader) *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "mint <email>",
		Short: "Mint an access token for an email",
		Long:  "Mint an access token signed with the configured secret, e.g. for service accounts or debugging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(load)
			if err != nil {
				return err
			}
			token, err := c.codec.MintAccess(args[0], models.Provider(provider))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", string(models.ProviderPassword), "Provider claim (password or google)")
	return cmd
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a bearer credential and print its identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(load)
			if err != nil {
				return err
			}
			identity, ok := c.creds.Authenticate(args[0])
			if !ok {
				return fmt.Errorf("credential rejected")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "provider: %s\n", identity.Provider)
			if identity.Email != "" {
				fmt.Fprintf(out, "email:    %s\n", identity.Email)
			}
			return nil
		},
	}
}

// NewCheckEmailCmd creates the check-email command
func NewCheckEmailCmd(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "check-email <email>",
		Short: "Check an email against the Google allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := build(load)
			if err != nil {
				return err
			}
			if !c.creds.EmailAllowed(args[0]) {
				return fmt.Errorf("%s is not allowed", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is allowed\n", args[0])
			return nil
		},
	}
}
