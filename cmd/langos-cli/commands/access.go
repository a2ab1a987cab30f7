package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/cmd/langos-cli/cmdutil"
)

var addAccessPerm string

var addAccessCmd = &cobra.Command{
	Use:   "addaccess <filename> <username>",
	Short: "Grant another user access to a file you own",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Sendf("ADDACCESS %s %s %s", addAccessPerm, args[0], args[1]); err != nil {
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

var remAccessCmd = &cobra.Command{
	Use:   "remaccess <filename> <username>",
	Short: "Revoke another user's access to a file you own",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := cmdutil.DialNM()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := conn.Sendf("REMACCESS %s %s", args[0], args[1]); err != nil {
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
	addAccessCmd.Flags().StringVar(&addAccessPerm, "perm", "-R", "Permission to grant: -R or -W")
}
