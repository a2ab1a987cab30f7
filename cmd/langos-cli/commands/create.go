package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
)

var createCmd = &cobra.Command{
	Use:   "create <filename>",
	Short: "Create a new file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Sendf("CREATE %s", args[0]); err != nil {
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
