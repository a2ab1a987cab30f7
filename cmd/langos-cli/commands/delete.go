package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a file you own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Sendf("DELETE %s", args[0]); err != nil {
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
