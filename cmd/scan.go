package cmd

import (
	"fmt"
	"io"
	"strings"

	"heapstore/pkg/config"
	"heapstore/pkg/database"
	"heapstore/pkg/execution"
	"heapstore/pkg/iterator"
	"heapstore/pkg/primitives"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type scanOptions struct {
	alias   string
	where   []string
	columns []string
	limit   int
	agg     string
	groupBy string
}

var (
	scanOpts scanOptions

	scanCmd = &cobra.Command{
		Use:   "scan <table>",
		Short: "Print the tuples of a table from the schema file",
		Long: "Scan reads a table through the buffer pool in one read-only transaction. " +
			"Each --where filter is field<op>constant with op one of = != < <= > >= or ~ (substring). " +
			"--agg computes op(column) over the filtered rows, with op one of count sum min max avg.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.OutOrStdout(), settings, args[0], scanOpts)
		},
	}
)

func init() {
	fs := scanCmd.Flags()
	fs.StringVar(&scanOpts.alias, "alias", "", "prefix of the output column names; defaults to the table name")
	fs.StringArrayVar(&scanOpts.where, "where", nil, "filter `expression`; multiple allowed")
	fs.StringSliceVar(&scanOpts.columns, "columns", nil, "comma separated `columns` to print")
	fs.IntVar(&scanOpts.limit, "limit", 0, "print at most `n` rows")
	fs.StringVar(&scanOpts.agg, "agg", "", "aggregate `op(column)`, e.g. sum(value)")
	fs.StringVar(&scanOpts.groupBy, "group-by", "", "`column` to group the aggregate by")

	rootCmd.AddCommand(scanCmd)
}

func runScan(w io.Writer, cfg *config.Config, table string, opts scanOptions) error {
	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var result database.QueryResult
	err = db.RunInTransaction(func(tid *primitives.TransactionID) error {
		root, err := buildScan(db, tid, table, opts)
		if err != nil {
			return err
		}
		if err := root.Open(); err != nil {
			return err
		}
		defer root.Close()

		formatter := &database.ResultFormatter{Limit: opts.limit}
		result, err = formatter.FormatIterator(root)
		return err
	})
	if err != nil {
		return err
	}

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeader(result.Columns)
	tw.AppendBulk(result.Rows)
	tw.Render()
	fmt.Fprintln(w, result.Message)
	return nil
}

func buildScan(db *database.Database, tid *primitives.TransactionID, table string, opts scanOptions) (iterator.DbIterator, error) {
	scan, err := db.Scan(tid, table, opts.alias)
	if err != nil {
		return nil, err
	}

	var root iterator.DbIterator = scan
	for _, expr := range opts.where {
		pred, err := execution.ParsePredicate(root.GetTupleDesc(), expr)
		if err != nil {
			return nil, err
		}
		if root, err = execution.NewFilter(pred, root); err != nil {
			return nil, err
		}
	}

	if len(opts.columns) > 0 {
		project, err := execution.ProjectColumns(opts.columns, root)
		if err != nil {
			return nil, err
		}
		root = project
	}

	if opts.agg == "" {
		if opts.groupBy != "" {
			return nil, fmt.Errorf("--group-by needs --agg")
		}
		return root, nil
	}

	op, column, err := parseAggregate(opts.agg)
	if err != nil {
		return nil, err
	}
	return execution.AggregateColumns(root, column, opts.groupBy, op)
}

// parseAggregate splits "op(column)".
func parseAggregate(expr string) (execution.AggregateOp, string, error) {
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return 0, "", fmt.Errorf("cannot parse aggregate %q, want op(column)", expr)
	}

	op, err := execution.ParseAggregateOp(expr[:open])
	if err != nil {
		return 0, "", err
	}
	column := strings.TrimSpace(expr[open+1 : len(expr)-1])
	if column == "" {
		return 0, "", fmt.Errorf("aggregate %q names no column", expr)
	}
	return op, column, nil
}
