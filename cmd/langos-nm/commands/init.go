package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolverine07/langos/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			path string
			err  error
		)
		if configFile != "" {
			err = writeInitToPath(configFile, initForce)
			path = configFile
		} else {
			path, err = config.InitNameServerConfig(initForce)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Configuration file created at: %s\n", path)
		fmt.Println("Edit it, then start the server with: langos-nm start --config " + path)
		return nil
	},
}

func writeInitToPath(path string, force bool) error {
	_, err := config.InitNameServerConfigToPath(path, force)
	return err
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
