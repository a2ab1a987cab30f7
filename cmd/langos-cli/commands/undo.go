package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/internal/wire"
)

var undoCmd = &cobra.Command{
	Use:   "undo <filename>",
	Short: "Revert a file to its pre-commit backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return routeAndFetch(args[0], "UNDO", func(ssConn *wire.Conn) error {
			resp, err := ssConn.Recv()
			if err != nil {
				return err
			}
			fmt.Println(resp)
			return nil
		})
	},
}
