// Command langos-cli is a thin scriptable client for a langos cluster:
// one subcommand per wire command, each a single connect/send/print/exit.
package main

import (
	"fmt"
	"os"

	"github.com/wolverine07/langos/cmd/langos-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
