package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
	"github.com/wolverine07/langos/internal/wire"
)

var execCmd = &cobra.Command{
	Use:   "exec <filename>",
	Short: "Run a file as a script on its Storage Server, streaming output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Sendf("EXEC %s", args[0]); err != nil {
			return err
		}

		for {
			line, err := conn.Recv()
			if err != nil {
				return nil
			}
			fmt.Println(line)
			if code, ok := wire.ParseStatus(line); ok && (code == wire.StatusDone || wire.IsError(code)) {
				return nil
			}
		}
	},
}
