package heap

import (
	"testing"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapFileIterator_NotOpen(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	it := NewHeapFileIterator(env.file, primitives.NewTransactionID(), primitives.ReadOnly)

	_, err := it.HasNext()
	assert.ErrorIs(t, err, dberror.ErrIteratorClosed)

	_, err = it.Next()
	assert.ErrorIs(t, err, dberror.ErrIteratorClosed)

	assert.ErrorIs(t, it.Rewind(), dberror.ErrIteratorClosed)
}

func TestHeapFileIterator_EmptyFile(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	tid := primitives.NewTransactionID()
	it := env.file.Iterator(tid)

	require.NoError(t, it.Open())
	hasNext, err := it.HasNext()
	require.NoError(t, err)
	assert.False(t, hasNext)

	_, err = it.Next()
	assert.ErrorIs(t, err, dberror.ErrNoSuchElement)
}

func TestHeapFileIterator_SkipsEmptyPages(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	inserted := env.insertCommitted(t, 15) // three full pages

	tid := primitives.NewTransactionID()
	for _, tup := range inserted[:10] {
		require.NoError(t, env.store.DeleteTuple(tid, tup))
	}
	require.NoError(t, env.store.TransactionComplete(tid, true))

	scanned := env.scanAll(t)
	require.Len(t, scanned, 5)
	for i, tup := range scanned {
		assert.Equal(t, int64(10+i), fieldInt(t, tup, 0))
		assert.Equal(t, primitives.PageNumber(2), tup.RecordID.PageID.PageNo())
	}
}

func TestHeapFileIterator_Rewind(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	env.insertCommitted(t, 7)

	tid := primitives.NewTransactionID()
	defer env.store.TransactionComplete(tid, true)

	it := env.file.Iterator(tid)
	require.NoError(t, it.Open())

	for i := 0; i < 6; i++ {
		_, err := it.Next()
		require.NoError(t, err)
	}

	require.NoError(t, it.Rewind())
	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(0), fieldInt(t, first, 0))
}

func TestHeapFileIterator_CloseKeepsLocks(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	env.insertCommitted(t, 7)

	tid := primitives.NewTransactionID()
	it := env.file.Iterator(tid)
	require.NoError(t, it.Open())
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
	}
	require.NoError(t, it.Close())

	p0 := primitives.NewPageID(env.file.GetID(), 0)
	p1 := primitives.NewPageID(env.file.GetID(), 1)
	assert.True(t, env.store.HoldsLock(tid, p0))
	assert.True(t, env.store.HoldsLock(tid, p1))

	_, err := it.HasNext()
	assert.ErrorIs(t, err, dberror.ErrIteratorClosed)

	require.NoError(t, env.store.TransactionComplete(tid, true))
	assert.False(t, env.store.HoldsLock(tid, p0))
}

func TestHeapFileIterator_ReadWritePermission(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	env.insertCommitted(t, 3)

	tid := primitives.NewTransactionID()
	defer env.store.TransactionComplete(tid, true)

	it := NewHeapFileIterator(env.file, tid, primitives.ReadWrite)
	require.NoError(t, it.Open())

	held, ok := env.store.LockManager().LockTypeHeld(tid, primitives.NewPageID(env.file.GetID(), 0))
	require.True(t, ok)
	assert.Equal(t, "EXCLUSIVE", held.String())
}

func TestHeapFileIterator_SeesOwnUncommittedInserts(t *testing.T) {
	env := newTestEnv(t, 10, testLockTimeout)
	td := env.file.GetTupleDesc()

	tid := primitives.NewTransactionID()
	defer env.store.TransactionComplete(tid, false)

	for i := 0; i < 6; i++ {
		require.NoError(t, env.store.InsertTuple(tid, env.file.GetID(), intTuple(td, int64(i), 0)))
	}

	it := env.file.Iterator(tid)
	require.NoError(t, it.Open())
	count := 0
	for {
		hasNext, err := it.HasNext()
		require.NoError(t, err)
		if !hasNext {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 6, count)
}
