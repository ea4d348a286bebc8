package cmd

import (
	"heapstore/pkg/debug/heapreader"

	"github.com/spf13/cobra"
)

var (
	browseSchema schemaFlags

	browseCmd = &cobra.Command{
		Use:   "browse <heap-file>",
		Short: "Browse the pages of a heap file interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			td, err := browseSchema.tupleDesc()
			if err != nil {
				return err
			}
			hf, err := openHeapFile(args[0], td, settings.PageSize)
			if err != nil {
				return err
			}
			defer hf.Close()
			return heapreader.Run(hf)
		},
	}
)

func init() {
	browseSchema.register(browseCmd.Flags())
	rootCmd.AddCommand(browseCmd)
}
