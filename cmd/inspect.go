package cmd

import (
	"fmt"
	"io"

	"heapstore/pkg/debug/heapreader"
	"heapstore/pkg/debug/ui"
	"heapstore/pkg/storage/heap"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	inspectSchema schemaFlags

	inspectCmd = &cobra.Command{
		Use:   "inspect <heap-file>",
		Short: "Print the slot occupancy of every page of a heap file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			td, err := inspectSchema.tupleDesc()
			if err != nil {
				return err
			}
			hf, err := openHeapFile(args[0], td, settings.PageSize)
			if err != nil {
				return err
			}
			defer hf.Close()
			return runInspect(cmd.OutOrStdout(), hf)
		},
	}
)

func init() {
	inspectSchema.register(inspectCmd.Flags())
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(w io.Writer, hf *heap.HeapFile) error {
	summaries, err := heapreader.SummarizeFile(hf)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, ui.RenderTitle("Heap file "+hf.FilePath().Base()))
	fmt.Fprintln(w, ui.RenderField("schema", hf.GetTupleDesc().String()))
	fmt.Fprintln(w, ui.RenderField("page size", fmt.Sprintf("%d bytes", hf.PageSize())))
	fmt.Fprintln(w, ui.RenderField("slots per page", fmt.Sprintf("%d (header %d bytes)",
		hf.SlotsPerPage(), heap.HeaderSize(hf.SlotsPerPage()))))
	fmt.Fprintln(w)

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader([]string{"page", "used", "free", "fill"})
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	var used, free int
	for _, s := range summaries {
		used += s.UsedSlots
		free += s.FreeSlots
		tw.Append([]string{
			fmt.Sprintf("%d", s.PageNo),
			fmt.Sprintf("%d", s.UsedSlots),
			fmt.Sprintf("%d", s.FreeSlots),
			fmt.Sprintf("%.0f%%", s.Fill()*100),
		})
	}
	tw.SetFooter([]string{fmt.Sprintf("%d pages", len(summaries)), fmt.Sprintf("%d", used), fmt.Sprintf("%d", free), ""})
	tw.Render()
	return nil
}
