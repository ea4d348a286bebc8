package cmd

import (
	"fmt"
	"io"

	"heapstore/pkg/config"
	"heapstore/pkg/database"
	"heapstore/pkg/debug/ui"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "tables",
			Short: "List the tables of the schema file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTables(cmd.OutOrStdout(), settings)
			},
		})
}

func runTables(w io.Writer, cfg *config.Config) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	fmt.Fprintln(w, ui.RenderHeaderWithCount("Tables in "+info.DataDir, len(info.Tables)))

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader([]string{"table", "pages", "slots/page", "primary key", "schema"})

	for _, name := range info.Tables {
		hf, err := db.Table(name)
		if err != nil {
			return err
		}
		numPages, err := hf.NumPages()
		if err != nil {
			return err
		}
		pk, err := db.Catalog().GetPrimaryKey(hf.GetID())
		if err != nil {
			return err
		}

		tw.Append([]string{
			name,
			fmt.Sprintf("%d", numPages),
			fmt.Sprintf("%d", hf.SlotsPerPage()),
			pk,
			hf.GetTupleDesc().String(),
		})
	}
	tw.Render()
	return nil
}
