package cmd

import (
	"fmt"
	"strings"

	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/spf13/pflag"
)

// schemaFlags describe the layout of a heap file given on the command line.
type schemaFlags struct {
	types []string
	names []string
}

func (sf *schemaFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&sf.types, "types", nil, "comma separated field `types` (int, string)")
	fs.StringSliceVar(&sf.names, "names", nil, "comma separated field `names`; defaults to col_<i>")
}

func (sf *schemaFlags) tupleDesc() (*tuple.TupleDescription, error) {
	return parseSchema(sf.types, sf.names)
}

// parseSchema builds a schema from type names and optional field names.
func parseSchema(typeNames, fieldNames []string) (*tuple.TupleDescription, error) {
	if len(typeNames) == 0 {
		return nil, fmt.Errorf("--types is required")
	}
	if len(fieldNames) > 0 && len(fieldNames) != len(typeNames) {
		return nil, fmt.Errorf("got %d names for %d types", len(fieldNames), len(typeNames))
	}

	fieldTypes := make([]types.Type, len(typeNames))
	names := make([]string, len(typeNames))
	for i, name := range typeNames {
		ft, err := types.ParseType(name)
		if err != nil {
			return nil, err
		}
		fieldTypes[i] = ft

		if len(fieldNames) > 0 {
			names[i] = strings.TrimSpace(fieldNames[i])
		} else {
			names[i] = fmt.Sprintf("col_%d", i)
		}
	}
	return tuple.NewTupleDesc(fieldTypes, names)
}

// openHeapFile opens path for offline use; it has no buffer pool.
func openHeapFile(path string, td *tuple.TupleDescription, pageSize int) (*heap.HeapFile, error) {
	return heap.NewHeapFile(primitives.Filepath(path), td, pageSize, nil)
}
