package lock

import (
	"testing"

	"heapstore/pkg/primitives"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage(pageNo int) primitives.PageID {
	return primitives.NewPageID(1, primitives.PageNumber(pageNo))
}

func TestLockTable_AddAndQuery(t *testing.T) {
	lt := NewLockTable()
	tid := primitives.NewTransactionID()
	pid := testPage(0)

	assert.False(t, lt.IsPageLocked(pid))
	lt.AddLock(tid, pid, SharedLock)

	assert.True(t, lt.IsPageLocked(pid))
	assert.True(t, lt.HasLockType(tid, pid, SharedLock))
	assert.False(t, lt.HasLockType(tid, pid, ExclusiveLock))

	held, ok := lt.LockTypeHeld(tid, pid)
	require.True(t, ok)
	assert.Equal(t, SharedLock, held)
	assert.Len(t, lt.GetPageLocks(pid), 1)
}

func TestLockTable_HasSufficientLock(t *testing.T) {
	tests := []struct {
		name      string
		held      LockType
		requested LockType
		want      bool
	}{
		{"shared covers shared", SharedLock, SharedLock, true},
		{"shared does not cover exclusive", SharedLock, ExclusiveLock, false},
		{"exclusive covers shared", ExclusiveLock, SharedLock, true},
		{"exclusive covers exclusive", ExclusiveLock, ExclusiveLock, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := NewLockTable()
			tid := primitives.NewTransactionID()
			lt.AddLock(tid, testPage(0), tt.held)
			assert.Equal(t, tt.want, lt.HasSufficientLock(tid, testPage(0), tt.requested))
		})
	}

	lt := NewLockTable()
	assert.False(t, lt.HasSufficientLock(primitives.NewTransactionID(), testPage(0), SharedLock))
}

func TestLockTable_UpgradeLock(t *testing.T) {
	lt := NewLockTable()
	tid := primitives.NewTransactionID()
	pid := testPage(3)

	lt.AddLock(tid, pid, SharedLock)
	lt.UpgradeLock(tid, pid)

	locks := lt.GetPageLocks(pid)
	require.Len(t, locks, 1)
	assert.Equal(t, ExclusiveLock, locks[0].LockType)
	assert.True(t, lt.HasLockType(tid, pid, ExclusiveLock))
}

func TestLockTable_ReleaseAllLocks(t *testing.T) {
	lt := NewLockTable()
	tid1 := primitives.NewTransactionID()
	tid2 := primitives.NewTransactionID()

	lt.AddLock(tid1, testPage(2), SharedLock)
	lt.AddLock(tid1, testPage(0), ExclusiveLock)
	lt.AddLock(tid2, testPage(2), SharedLock)

	affected := lt.ReleaseAllLocks(tid1)
	assert.Equal(t, []primitives.PageID{testPage(0), testPage(2)}, affected)

	assert.False(t, lt.IsPageLocked(testPage(0)))
	assert.True(t, lt.IsPageLocked(testPage(2)))
	assert.Empty(t, lt.PagesOf(tid1))
	assert.Equal(t, []primitives.PageID{testPage(2)}, lt.PagesOf(tid2))

	assert.Nil(t, lt.ReleaseAllLocks(tid1), "releasing twice is a no-op")
}

func TestLockTable_ReleaseLock(t *testing.T) {
	lt := NewLockTable()
	tid := primitives.NewTransactionID()

	lt.AddLock(tid, testPage(0), SharedLock)
	lt.AddLock(tid, testPage(1), SharedLock)

	lt.ReleaseLock(tid, testPage(0))
	assert.False(t, lt.IsPageLocked(testPage(0)))
	assert.True(t, lt.IsPageLocked(testPage(1)))

	lt.ReleaseLock(tid, testPage(1))
	_, tracked := lt.transactionLocks[tid]
	assert.False(t, tracked, "transaction entry removed with its last lock")
}
