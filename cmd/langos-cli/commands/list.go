package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all known users",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Send("LIST"); err != nil {
			return err
		}
		resp, err := conn.Recv()
		if err != nil {
			return err
		}
		fmt.Println(resp)
		return nil
	},
}
