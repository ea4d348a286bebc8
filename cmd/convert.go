package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"heapstore/pkg/config"
	"heapstore/pkg/database"
	"heapstore/pkg/logging"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/spf13/cobra"
)

type convertOptions struct {
	schemaFlags
	delimiter  string
	header     bool
	table      string
	primaryKey string
}

var (
	convertOpts convertOptions

	convertCmd = &cobra.Command{
		Use:   "convert <csv-file> <heap-file>",
		Short: "Convert a CSV file into a new heap file",
		Long: "Convert packs the rows of a CSV file into the pages of a new heap file, " +
			"first fit, in input order. With --table the file is also added to the schema " +
			"file of the data directory.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.OutOrStdout(), settings, args[0], args[1], convertOpts)
		},
	}
)

func init() {
	fs := convertCmd.Flags()
	convertOpts.register(fs)
	fs.StringVar(&convertOpts.delimiter, "delimiter", ",", "field delimiter")
	fs.BoolVar(&convertOpts.header, "header", false, "skip the first line of the input")
	fs.StringVar(&convertOpts.table, "table", "", "register the file under this table `name`")
	fs.StringVar(&convertOpts.primaryKey, "primary-key", "", "primary key `column` of the registered table")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(w io.Writer, cfg *config.Config, src, dst string, opts convertOptions) error {
	td, err := opts.tupleDesc()
	if err != nil {
		return err
	}
	if len(opts.delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", opts.delimiter)
	}
	if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
		return fmt.Errorf("%s already holds data", dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	hf, err := openHeapFile(dst, td, cfg.PageSize)
	if err != nil {
		return err
	}

	loader, err := convertRows(in, hf, td, opts)
	if closeErr := hf.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	logging.WithComponent("convert").WithField("rows", loader.Tuples()).WithField("pages", loader.Pages()).
		Info("conversion finished")
	fmt.Fprintf(w, "converted %d rows into %d pages of %s\n", loader.Tuples(), loader.Pages(), dst)

	if opts.table != "" {
		return registerTable(w, cfg, opts.table, dst, td, opts.primaryKey)
	}
	return nil
}

func convertRows(in io.Reader, hf *heap.HeapFile, td *tuple.TupleDescription, opts convertOptions) (*heap.BulkLoader, error) {
	r := csv.NewReader(in)
	r.Comma = rune(opts.delimiter[0])
	r.FieldsPerRecord = td.NumFields()
	r.TrimLeadingSpace = true

	loader, err := heap.NewBulkLoader(hf)
	if err != nil {
		return nil, err
	}

	for n := 1; ; n++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 1 && opts.header {
			continue
		}

		t := tuple.NewTuple(td)
		for i, value := range record {
			field, err := types.CreateFieldFromConstant(td.Types[i], value)
			if err != nil {
				return nil, fmt.Errorf("record %d, field %d: %w", n, i+1, err)
			}
			if err := t.SetField(i, field); err != nil {
				return nil, fmt.Errorf("record %d, field %d: %w", n, i+1, err)
			}
		}

		if err := loader.Add(t); err != nil {
			return nil, fmt.Errorf("record %d: %w", n, err)
		}
	}

	if err := loader.Flush(); err != nil {
		return nil, err
	}
	return loader, nil
}

func registerTable(w io.Writer, cfg *config.Config, table, file string, td *tuple.TupleDescription, primaryKey string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.OpenTable(table, td, abs, primaryKey); err != nil {
		return err
	}
	if err := db.SaveSchema(); err != nil {
		return err
	}

	fmt.Fprintf(w, "registered table %s in %s\n", table, cfg.CatalogPath())
	return nil
}
