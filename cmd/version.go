package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release of the heapstore tools.
const Version = "0.1.0"

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of heapstore",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "heapstore "+Version)
			},
		})
}
