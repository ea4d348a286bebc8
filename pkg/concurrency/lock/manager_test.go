package lock

import (
	"errors"
	"sync"
	"testing"
	"time"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testTimeout = 100 * time.Millisecond

func TestNewLockManager(t *testing.T) {
	lm := NewLockManager(0)
	assert.Equal(t, DefaultLockTimeout, lm.Timeout())
	assert.Equal(t, testTimeout, NewLockManager(testTimeout).Timeout())
}

func TestLockPage_NilTransaction(t *testing.T) {
	lm := NewLockManager(testTimeout)
	err := lm.LockPage(nil, testPage(0), false)
	assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
}

func TestLockPage_SharedAndExclusive(t *testing.T) {
	lm := NewLockManager(testTimeout)
	tid := primitives.NewTransactionID()

	require.NoError(t, lm.LockPage(tid, testPage(0), false))
	require.NoError(t, lm.LockPage(tid, testPage(1), true))

	held, ok := lm.LockTypeHeld(tid, testPage(0))
	require.True(t, ok)
	assert.Equal(t, SharedLock, held)

	held, ok = lm.LockTypeHeld(tid, testPage(1))
	require.True(t, ok)
	assert.Equal(t, ExclusiveLock, held)

	assert.Equal(t, []primitives.PageID{testPage(0), testPage(1)}, lm.LockedPages(tid))
}

func TestLockPage_SharedLocksAreCompatible(t *testing.T) {
	lm := NewLockManager(testTimeout)
	pid := testPage(0)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			return lm.LockPage(primitives.NewTransactionID(), pid, false)
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, lm.lockTable.GetPageLocks(pid), 8)
}

func TestLockPage_ExclusiveConflictTimesOut(t *testing.T) {
	tests := []struct {
		name           string
		firstExclusive bool
		nextExclusive  bool
	}{
		{"exclusive blocks shared", true, false},
		{"exclusive blocks exclusive", true, true},
		{"shared blocks exclusive", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := NewLockManager(testTimeout)
			holder := primitives.NewTransactionID()
			waiter := primitives.NewTransactionID()
			pid := testPage(0)

			require.NoError(t, lm.LockPage(holder, pid, tt.firstExclusive))

			start := time.Now()
			err := lm.LockPage(waiter, pid, tt.nextExclusive)
			require.Error(t, err)
			assert.True(t, dberror.IsTransactionAborted(err))
			assert.GreaterOrEqual(t, time.Since(start), testTimeout)
			assert.False(t, lm.HoldsLock(waiter, pid))
		})
	}
}

func TestLockPage_WaiterGrantedAfterRelease(t *testing.T) {
	lm := NewLockManager(2 * time.Second)
	holder := primitives.NewTransactionID()
	waiter := primitives.NewTransactionID()
	pid := testPage(0)

	require.NoError(t, lm.LockPage(holder, pid, true))

	done := make(chan error, 1)
	go func() {
		done <- lm.LockPage(waiter, pid, true)
	}()

	select {
	case err := <-done:
		t.Fatalf("waiter returned before release: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	lm.UnlockAllPages(holder)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter not granted after release")
	}

	held, ok := lm.LockTypeHeld(waiter, pid)
	require.True(t, ok)
	assert.Equal(t, ExclusiveLock, held)
}

func TestLockPage_UpgradeInPlace(t *testing.T) {
	lm := NewLockManager(testTimeout)
	tid := primitives.NewTransactionID()
	pid := testPage(0)

	require.NoError(t, lm.LockPage(tid, pid, false))
	require.NoError(t, lm.LockPage(tid, pid, true))

	locks := lm.lockTable.GetPageLocks(pid)
	require.Len(t, locks, 1)
	assert.Equal(t, ExclusiveLock, locks[0].LockType)

	require.NoError(t, lm.LockPage(tid, pid, false), "exclusive implies shared")
	assert.Len(t, lm.lockTable.GetPageLocks(pid), 1)
}

func TestLockPage_UpgradeWaitsForOtherReader(t *testing.T) {
	lm := NewLockManager(2 * time.Second)
	upgrader := primitives.NewTransactionID()
	reader := primitives.NewTransactionID()
	pid := testPage(0)

	require.NoError(t, lm.LockPage(upgrader, pid, false))
	require.NoError(t, lm.LockPage(reader, pid, false))

	var g errgroup.Group
	g.Go(func() error {
		return lm.LockPage(upgrader, pid, true)
	})

	time.Sleep(50 * time.Millisecond)
	lm.UnlockAllPages(reader)

	require.NoError(t, g.Wait())
	assert.True(t, lm.lockTable.HasLockType(upgrader, pid, ExclusiveLock))
}

func TestLockPage_DeadlockResolvedByTimeout(t *testing.T) {
	lm := NewLockManager(testTimeout)
	tid1 := primitives.NewTransactionID()
	tid2 := primitives.NewTransactionID()

	require.NoError(t, lm.LockPage(tid1, testPage(0), true))
	require.NoError(t, lm.LockPage(tid2, testPage(1), true))

	errs := make(chan error, 2)
	go func() {
		err := lm.LockPage(tid1, testPage(1), true)
		if err != nil {
			lm.UnlockAllPages(tid1)
		}
		errs <- err
	}()
	go func() {
		err := lm.LockPage(tid2, testPage(0), true)
		if err != nil {
			lm.UnlockAllPages(tid2)
		}
		errs <- err
	}()

	aborted := 0
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.True(t, dberror.IsTransactionAborted(err))
			aborted++
		}
	}
	assert.GreaterOrEqual(t, aborted, 1)
}

func TestUnlockPage(t *testing.T) {
	lm := NewLockManager(testTimeout)
	tid := primitives.NewTransactionID()
	pid := testPage(0)

	require.NoError(t, lm.LockPage(tid, pid, true))
	assert.True(t, lm.IsPageLocked(pid))

	lm.UnlockPage(tid, pid)
	assert.False(t, lm.IsPageLocked(pid))
	assert.False(t, lm.HoldsLock(tid, pid))

	lm.UnlockPage(tid, pid)
}

func TestUnlockAllPages(t *testing.T) {
	lm := NewLockManager(testTimeout)
	tid := primitives.NewTransactionID()
	other := primitives.NewTransactionID()

	for i := 0; i < 4; i++ {
		require.NoError(t, lm.LockPage(tid, testPage(i), i%2 == 0))
	}
	require.NoError(t, lm.LockPage(other, testPage(1), false))

	lm.UnlockAllPages(tid)

	assert.Empty(t, lm.LockedPages(tid))
	for i := 0; i < 4; i++ {
		assert.Equal(t, i == 1, lm.IsPageLocked(testPage(i)))
	}
}

func TestLockPage_ExclusiveSerializesWriters(t *testing.T) {
	lm := NewLockManager(5 * time.Second)
	pid := testPage(0)

	var (
		mu                sync.Mutex
		active, maxActive int32
	)

	var g errgroup.Group
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			tid := primitives.NewTransactionID()
			if err := lm.LockPage(tid, pid, true); err != nil {
				return err
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			lm.UnlockAllPages(tid)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), maxActive)
}
