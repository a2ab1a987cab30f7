package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
)

var (
	viewAll  bool
	viewLong bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "List visible files",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		flags := ""
		if viewAll {
			flags += "a"
		}
		if viewLong {
			flags += "l"
		}

		if flags == "" {
			err = conn.Send("VIEW")
		} else {
			err = conn.Sendf("VIEW %s", flags)
		}
		if err != nil {
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

func init() {
	viewCmd.Flags().BoolVarP(&viewAll, "all", "a", false, "Show every file, not just ones you can read")
	viewCmd.Flags().BoolVarP(&viewLong, "long", "l", false, "Show detail columns (owner, size, words, chars, modified)")
}
