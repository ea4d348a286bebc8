package execution

import (
	"path/filepath"
	"testing"
	"time"

	"heapstore/pkg/catalog"
	"heapstore/pkg/iterator"
	"heapstore/pkg/memory"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/stretchr/testify/require"
)

func peopleDesc() *tuple.TupleDescription {
	return tuple.MustTupleDesc([]types.Type{types.IntType, types.StringType}, []string{"id", "name"})
}

func person(td *tuple.TupleDescription, id int64, name string) *tuple.Tuple {
	return tuple.NewBuilder(td).AddInt(id).AddString(name).MustBuild()
}

func people(td *tuple.TupleDescription) []*tuple.Tuple {
	return []*tuple.Tuple{
		person(td, 1, "ada"),
		person(td, 2, "bob"),
		person(td, 3, "carol"),
		person(td, 4, "dave"),
	}
}

func intValue(t *testing.T, tup *tuple.Tuple, i int) int64 {
	t.Helper()
	f, err := tup.GetField(i)
	require.NoError(t, err)
	return f.(*types.IntField).Value
}

func ids(t *testing.T, tuples []*tuple.Tuple) []int64 {
	t.Helper()
	out := make([]int64, len(tuples))
	for i, tup := range tuples {
		out[i] = intValue(t, tup, 0)
	}
	return out
}

type scanEnv struct {
	file    *heap.HeapFile
	store   *memory.PageStore
	catalog *catalog.Catalog
}

// newScanEnv stores rows in table "people" with a page size that holds
// three of them per page.
func newScanEnv(t *testing.T, rows int) *scanEnv {
	t.Helper()

	cat := catalog.NewCatalog()
	store := memory.NewPageStore(cat, 10, 200*time.Millisecond)

	td := peopleDesc()
	// floor(8*1000 / (264*8+1)) = 3 slots
	hf, err := heap.NewHeapFile(primitives.Filepath(filepath.Join(t.TempDir(), "people.dat")), td, 1000, store)
	require.NoError(t, err)
	require.NoError(t, cat.AddTable(hf, "people", "id"))
	t.Cleanup(func() { _ = cat.Clear() })

	tuples := make([]*tuple.Tuple, rows)
	for i := range tuples {
		tuples[i] = person(td, int64(i+1), "p")
	}
	require.NoError(t, heap.BulkLoad(hf, tuples))

	return &scanEnv{file: hf, store: store, catalog: cat}
}

// newTid starts a transaction that commits when the test ends.
func newTid(t *testing.T, env *scanEnv) *primitives.TransactionID {
	t.Helper()
	tid := primitives.NewTransactionID()
	t.Cleanup(func() { require.NoError(t, env.store.CommitTransaction(tid)) })
	return tid
}

// tableIDs reads table "people" in a fresh transaction and returns its ids.
func tableIDs(t *testing.T, env *scanEnv) []int64 {
	t.Helper()
	tid := primitives.NewTransactionID()
	defer func() { require.NoError(t, env.store.CommitTransaction(tid)) }()

	scan, err := NewSeqScan(tid, env.file.GetID(), "", env.catalog)
	require.NoError(t, err)
	require.NoError(t, scan.Open())
	defer scan.Close()

	tuples, err := iterator.Collect(scan)
	require.NoError(t, err)
	return ids(t, tuples)
}
