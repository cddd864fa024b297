package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jamestut/s2r/internal/rserver"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the server executor against standard input/output",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exec := rserver.NewExecutor(os.Stdin, os.Stdout)
		return exec.Run()
	},
}

func init() {
	Root.AddCommand(serverCmd)
}
