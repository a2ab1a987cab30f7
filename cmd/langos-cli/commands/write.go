package commands

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
	"github.com/wolverine07/langos/internal/wire"
)

var writeCmd = &cobra.Command{
	Use:   "write <filename> <sentence_index>",
	Short: "Open a WRITE session, forwarding stdin lines as buffered updates",
	Long: `write opens a WRITE session against sentence_index and forwards each
line read from stdin as a buffered update of the form "<word_index>
<content>", ending the session with ETIRW once stdin reaches EOF.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, sentNum := args[0], args[1]

		nmConn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer nmConn.Close()

		if err := nmConn.Sendf("WRITE %s %s", filename, sentNum); err != nil {
			return err
		}
		resp, err := nmConn.Recv()
		if err != nil {
			return err
		}
		if code, ok := wire.ParseStatus(resp); !ok || wire.IsError(code) {
			fmt.Println(resp)
			return nil
		}

		addr, err := cmdutil.ParseRoute(resp)
		if err != nil {
			return err
		}

		ssConn, err := cmdutil.DialSS(addr)
		if err != nil {
			return err
		}
		defer ssConn.Close()

		if err := ssConn.Sendf("WRITE %s %s", filename, sentNum); err != nil {
			return err
		}

		ack, err := ssConn.Recv()
		if err != nil {
			return err
		}
		if code, ok := wire.ParseStatus(ack); ok && wire.IsError(code) {
			fmt.Println(ack)
			return nil
		}

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := ssConn.Send(scanner.Text()); err != nil {
				return err
			}
		}
		if err := ssConn.Send(wire.ETIRW); err != nil {
			return err
		}

		final, err := ssConn.Recv()
		if err != nil {
			return err
		}
		fmt.Println(final)
		return nil
	},
}
