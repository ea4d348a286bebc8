package database

import (
	"fmt"

	"heapstore/pkg/iterator"
	"heapstore/pkg/tuple"
)

// QueryResult is a rendered result set: one header per column and one
// string per field.
type QueryResult struct {
	Columns []string
	Rows    [][]string
	Message string
}

// ResultFormatter turns tuples into QueryResults for display.
type ResultFormatter struct {
	// Limit caps the number of rows read; zero means no limit.
	Limit int
}

func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{}
}

// Columns returns the field names of td, naming unnamed fields col_<i>.
func (f *ResultFormatter) Columns(td *tuple.TupleDescription) []string {
	columns := make([]string, td.NumFields())
	for i := range columns {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		columns[i] = name
	}
	return columns
}

// FormatTuples renders tuples under the columns of td.
func (f *ResultFormatter) FormatTuples(td *tuple.TupleDescription, tuples []*tuple.Tuple) QueryResult {
	numFields := td.NumFields()
	rows := make([][]string, 0, len(tuples))

	for _, t := range tuples {
		row := make([]string, numFields)
		for i := range numFields {
			field, err := t.GetField(i)
			if err != nil || field == nil {
				row[i] = "NULL"
			} else {
				row[i] = field.String()
			}
		}
		rows = append(rows, row)
	}

	return QueryResult{
		Columns: f.Columns(td),
		Rows:    rows,
		Message: fmt.Sprintf("%d row(s) returned", len(rows)),
	}
}

// FormatIterator drains an open operator into a QueryResult, stopping at
// Limit rows when set.
func (f *ResultFormatter) FormatIterator(it iterator.DbIterator) (QueryResult, error) {
	var (
		tuples []*tuple.Tuple
		err    error
	)
	if f.Limit > 0 {
		tuples, err = iterator.Take(it, f.Limit)
	} else {
		tuples, err = iterator.Collect(it)
	}
	if err != nil {
		return QueryResult{}, err
	}
	return f.FormatTuples(it.GetTupleDesc(), tuples), nil
}

// FormatInserted reports the outcome of a load.
func (f *ResultFormatter) FormatInserted(table string, count int) QueryResult {
	return QueryResult{
		Message: fmt.Sprintf("%d row(s) inserted into %s", count, table),
	}
}
