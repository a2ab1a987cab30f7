// Command langos-nm runs the Name Server: client and Storage Server
// connection dispatch, the file metadata table, access control, and
// round-robin CREATE placement.
package main

import (
	"fmt"
	"os"

	"github.com/wolverine07/langos/cmd/langos-nm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
