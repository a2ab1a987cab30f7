// Package commands implements the langos-nm command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "langos-nm",
	Short: "langos Name Server",
	Long: `langos-nm is the Name Server for a langos cluster: it dispatches
client and Storage Server connections, holds the file metadata table and
access list, assigns new files to Storage Servers by round robin, and
routes READ/WRITE/STREAM/UNDO requests to the Storage Server currently
holding each file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/langos/langos-nm.yaml)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
