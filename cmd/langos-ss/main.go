// Command langos-ss runs a Storage Server: the collaborative
// sentence-level write engine, the read-side operations (READ, STREAM,
// UNDO, GET_CONTENT), and the control channel to the Name Server.
package main

import (
	"fmt"
	"os"

	"github.com/wolverine07/langos/cmd/langos-ss/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
