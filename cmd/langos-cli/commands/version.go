package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("langos-cli " + Version)
	},
}
