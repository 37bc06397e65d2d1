// Command simcore runs the movement and task cores as a standalone
// process, for local development and for exercising the debug bridge.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "simcore",
		Short: "Run and inspect the steering/task simulation core",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config document (defaults built in if omitted)")

	root.AddCommand(runCmd, configCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
