package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/internal/wire"
)

var streamCmd = &cobra.Command{
	Use:   "stream <filename>",
	Short: "Print a file token by token, as the Storage Server paces it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return routeAndFetch(args[0], "STREAM", func(ssConn *wire.Conn) error {
			for {
				tok, err := ssConn.Recv()
				if err != nil {
					return nil
				}
				fmt.Println(tok)
			}
		})
	},
}
