// Package commands implements the langos-ss command tree.
package commands

import (
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "langos-ss",
	Short: "langos Storage Server",
	Long: `langos-ss runs a single Storage Server: it holds a shard of a
langos cluster's files, runs the four-phase collaborative WRITE session
for each, serves READ/STREAM/UNDO/GET_CONTENT, and registers with a Name
Server over a persistent control channel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/langos/langos-ss.yaml)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
