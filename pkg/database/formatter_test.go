package database

import (
	"testing"

	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultFormatter_FormatTuples(t *testing.T) {
	td := tuple.MustTupleDesc([]types.Type{types.IntType, types.StringType}, nil)
	rows := []*tuple.Tuple{
		tuple.NewBuilder(td).AddInt(1).AddString("ada").MustBuild(),
		tuple.NewBuilder(td).AddInt(2).AddString("bob").MustBuild(),
	}

	result := NewResultFormatter().FormatTuples(td, rows)
	assert.Equal(t, []string{"col_0", "col_1"}, result.Columns)
	assert.Equal(t, [][]string{{"1", "ada"}, {"2", "bob"}}, result.Rows)
	assert.Equal(t, "2 row(s) returned", result.Message)
}

func TestResultFormatter_FormatIteratorLimit(t *testing.T) {
	td := pairDesc()
	rows := []*tuple.Tuple{pair(1, 10), pair(2, 20), pair(3, 30)}

	it := tuple.NewIterator(rows, td)
	require.NoError(t, it.Open())

	f := &ResultFormatter{Limit: 2}
	result, err := f.FormatIterator(it)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value"}, result.Columns)
	assert.Len(t, result.Rows, 2)
}

func TestResultFormatter_FormatInserted(t *testing.T) {
	result := NewResultFormatter().FormatInserted("pairs", 3)
	assert.Equal(t, "3 row(s) inserted into pairs", result.Message)
	assert.Empty(t, result.Rows)
}
