// Package commands implements the langos-cli command tree: one
// subcommand per wire command, each a single-shot connect/send/print/exit
// (no interactive prompt loop).
package commands

import (
	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
)

var rootCmd = &cobra.Command{
	Use:   "langos-cli",
	Short: "Scriptable client for a langos cluster",
	Long: `langos-cli is a thin scriptable client for a langos Name Server:
one subcommand per wire command, each a single connect/send/print/exit,
useful for manual testing and scripting against a running cluster.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.NMAddr, _ = cmd.Flags().GetString("nm")
		cmdutil.Flags.Username, _ = cmd.Flags().GetString("user")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("nm", "127.0.0.1:8888", "Name Server address")
	rootCmd.PersistentFlags().String("user", "", "Username to authenticate as (required)")
	rootCmd.MarkPersistentFlagRequired("user")

	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(addAccessCmd)
	rootCmd.AddCommand(remAccessCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}
