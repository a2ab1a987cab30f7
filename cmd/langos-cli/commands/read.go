package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
	"github.com/wolverine07/langos/internal/wire"
)

var readCmd = &cobra.Command{
	Use:   "read <filename>",
	Short: "Print a file's full contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return routeAndFetch(args[0], "READ", func(ssConn *wire.Conn) error {
			data, err := io.ReadAll(ssConn.Raw())
			if err != nil {
				return err
			}
			if code, ok := wire.ParseStatus(string(data)); ok && wire.IsError(code) {
				fmt.Println(string(data))
				return nil
			}
			os.Stdout.Write(data)
			return nil
		})
	},
}

// routeAndFetch asks the Name Server to route cmdName for filename, then
// runs fn against a connection dialed directly to the Storage Server it
// names. Grounded on the client-side half of spec.md §4.4's
// READ/STREAM/WRITE/UNDO routing contract.
func routeAndFetch(filename, cmdName string, fn func(ssConn *wire.Conn) error) error {
	nmConn, err := cmdutil.DialNM()
	if err != nil {
		return err
	}
	defer nmConn.Close()

	if err := nmConn.Sendf("%s %s", cmdName, filename); err != nil {
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

	if err := ssConn.Sendf("%s %s", cmdName, filename); err != nil {
		return err
	}
	return fn(ssConn)
}
