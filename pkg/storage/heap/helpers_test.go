package heap

import (
	"path/filepath"
	"testing"
	"time"

	"heapstore/pkg/catalog"
	"heapstore/pkg/memory"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/stretchr/testify/require"
)

// testPageSize fits exactly five tuples of two int fields:
// floor(96*8 / (16*8+1)) = 5, with a one byte header.
const testPageSize = 96

func intDesc() *tuple.TupleDescription {
	return tuple.MustTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"id", "value"})
}

func intTuple(td *tuple.TupleDescription, id, value int64) *tuple.Tuple {
	return tuple.NewBuilder(td).AddInt(id).AddInt(value).MustBuild()
}

func fieldInt(t *testing.T, tup *tuple.Tuple, i int) int64 {
	t.Helper()
	f, err := tup.GetField(i)
	require.NoError(t, err)
	return f.(*types.IntField).Value
}

type testEnv struct {
	file    *HeapFile
	store   *memory.PageStore
	catalog *catalog.Catalog
}

func newTestEnv(t *testing.T, capacity int, lockTimeout time.Duration) *testEnv {
	t.Helper()

	cat := catalog.NewCatalog()
	store := memory.NewPageStore(cat, capacity, lockTimeout)

	hf, err := NewHeapFile(primitives.Filepath(filepath.Join(t.TempDir(), "t.dat")), intDesc(), testPageSize, store)
	require.NoError(t, err)
	require.NoError(t, cat.AddTable(hf, "t", "id"))
	t.Cleanup(func() { _ = cat.Clear() })

	return &testEnv{file: hf, store: store, catalog: cat}
}

// insertCommitted inserts n tuples (i, i*10) in one committed transaction.
func (env *testEnv) insertCommitted(t *testing.T, n int) []*tuple.Tuple {
	t.Helper()

	tid := primitives.NewTransactionID()
	inserted := make([]*tuple.Tuple, 0, n)
	for i := 0; i < n; i++ {
		tup := intTuple(env.file.GetTupleDesc(), int64(i), int64(i*10))
		require.NoError(t, env.store.InsertTuple(tid, env.file.GetID(), tup))
		inserted = append(inserted, tup)
	}
	require.NoError(t, env.store.TransactionComplete(tid, true))
	return inserted
}

// scanAll collects every tuple of the file in a fresh read-only transaction.
func (env *testEnv) scanAll(t *testing.T) []*tuple.Tuple {
	t.Helper()

	tid := primitives.NewTransactionID()
	defer func() { require.NoError(t, env.store.TransactionComplete(tid, true)) }()

	it := env.file.Iterator(tid)
	require.NoError(t, it.Open())
	defer it.Close()

	var out []*tuple.Tuple
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			return out
		}
		tup, err := it.Next()
		require.NoError(t, err)
		out = append(out, tup)
	}
}
