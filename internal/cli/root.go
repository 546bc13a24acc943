// Package cli implements the wcpair command line.
package cli

import (
	"context"
	"fmt"

	"github.com/bhandras/wcpair/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command until ctx is canceled or the command returns.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the wcpair command tree. Each call gets its own viper
// instance so that flag bindings never leak between invocations.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "wcpair",
		Short:         "wcpair: pair a wallet session and browse its assets",
		Long:          "wcpair drives a WalletConnect style pairing session from the terminal, shows the connected account, and lists the assets it owns.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(v),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.RichVersion())
			return err
		},
	}
}
