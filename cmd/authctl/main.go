package main

import (
	"fmt"
	"os"

	"github.com/benvon/authgate/cmd/authctl/commands"
	"github.com/benvon/authgate/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "authctl",
		Short:         "Operator tool for authgate",
		Long:          "Inspect the authentication configuration, mint and verify access tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	load := config.Load
	rootCmd.AddCommand(commands.NewStatusCmd(load))
	rootCmd.AddCommand(commands.NewMintCmd(load))
	rootCmd.AddCommand(commands.NewVerifyCmd(load))
	rootCmd.AddCommand(commands.NewCheckEmailCmd(load))
	rootCmd.AddCommand(commands.NewTestGoogleCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
