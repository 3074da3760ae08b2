package main

import (
	"github.com/spf13/cobra"
)

var (
	configName string
	configPath []string
)

// NewRootCommand builds the taskgridd command tree (§9's CLI entrypoint).
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskgridd",
		Short: "taskgridd runs a taskgrid Application's transports",
		Long: `taskgridd wires a taskgrid Application and runs its configured
transports (HTTP, pub/sub, queue) until interrupted.

Examples:
  taskgridd serve
  taskgridd serve --manifest ./managers.yaml
  taskgridd config show`,
	}

	root.PersistentFlags().StringVar(&configName, "config-name", "taskgrid", "base name of the config file (without extension)")
	root.PersistentFlags().StringArrayVar(&configPath, "config-path", []string{".", "$HOME"}, "directories searched for the config file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newConfigShowCommand())
	return root
}
