package iterator

import (
	"errors"
	"testing"

	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openIterator(t *testing.T, n int) *tuple.Iterator {
	t.Helper()
	td := tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"n"})
	tuples := make([]*tuple.Tuple, n)
	for i := range tuples {
		tuples[i] = tuple.NewBuilder(td).AddInt(int64(i)).MustBuild()
	}
	it := tuple.NewIterator(tuples, td)
	require.NoError(t, it.Open())
	return it
}

func TestCollectAndCount(t *testing.T) {
	all, err := Collect(openIterator(t, 4))
	require.NoError(t, err)
	assert.Len(t, all, 4)

	count, err := Count(openIterator(t, 6))
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	count, err = Count(openIterator(t, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTake(t *testing.T) {
	it := openIterator(t, 5)

	first, err := Take(it, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	rest, err := Take(it, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)

	none, err := Take(it, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestForEachStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	seen := 0

	err := ForEach(openIterator(t, 5), func(*tuple.Tuple) error {
		seen++
		if seen == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, seen)
}

func TestIterateClosedIterator(t *testing.T) {
	it := openIterator(t, 1)
	require.NoError(t, it.Close())

	_, err := Collect(it)
	assert.Error(t, err)
}
