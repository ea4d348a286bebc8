package lock

import (
	"fmt"
	"sync"
	"time"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
)

// DefaultLockTimeout bounds how long a request may wait before the
// requesting transaction is aborted.
const DefaultLockTimeout = 500 * time.Millisecond

// LockManager grants page locks to transactions under strict two-phase
// locking. A request that conflicts with a held lock waits until some lock
// on that page is released, or fails with TRANSACTION_ABORTED once the
// timeout elapses.
type LockManager struct {
	lockTable *LockTable
	grantor   *LockGrantor
	released  map[primitives.PageID]chan struct{} // closed when a lock on the page is released
	timeout   time.Duration
	mutex     sync.Mutex
}

func NewLockManager(timeout time.Duration) *LockManager {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	lockTable := NewLockTable()
	return &LockManager{
		lockTable: lockTable,
		grantor:   NewLockGrantor(lockTable),
		released:  make(map[primitives.PageID]chan struct{}),
		timeout:   timeout,
	}
}

// Timeout returns the wait bound applied to each request.
func (lm *LockManager) Timeout() time.Duration {
	return lm.timeout
}

// LockPage acquires a shared or exclusive lock on pid for tid, blocking while
// the request conflicts with locks held by other transactions.
func (lm *LockManager) LockPage(tid *primitives.TransactionID, pid primitives.PageID, exclusive bool) error {
	if tid == nil {
		return dberror.NewInvalidArgument("transaction ID cannot be nil")
	}
	lockType := lockTypeFor(exclusive)

	var deadline *time.Timer
	for {
		lm.mutex.Lock()
		if lm.grantor.TryGrant(tid, pid, lockType) {
			lm.mutex.Unlock()
			if deadline != nil {
				deadline.Stop()
			}
			return nil
		}
		wait := lm.releaseSignal(pid)
		lm.mutex.Unlock()

		if deadline == nil {
			deadline = time.NewTimer(lm.timeout)
			logging.WithLock(tid, pid).WithField("mode", lockType.String()).Debug("waiting for page lock")
		}

		select {
		case <-wait:
		case <-deadline.C:
			logging.WithLock(tid, pid).WithField("mode", lockType.String()).Warn("page lock wait timed out")
			return dberror.NewTransactionAborted(fmt.Sprintf(
				"%s timed out after %s waiting for %s lock on %s", tid, lm.timeout, lockType, pid))
		}
	}
}

// UnlockPage releases tid's lock on pid. Transactions release their locks
// through UnlockAllPages; this exists for tools and tests.
func (lm *LockManager) UnlockPage(tid *primitives.TransactionID, pid primitives.PageID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lm.lockTable.ReleaseLock(tid, pid)
	lm.notifyReleased(pid)
}

// UnlockAllPages releases every lock held by tid and wakes their waiters.
func (lm *LockManager) UnlockAllPages(tid *primitives.TransactionID) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	for _, pid := range lm.lockTable.ReleaseAllLocks(tid) {
		lm.notifyReleased(pid)
	}
}

func (lm *LockManager) IsPageLocked(pid primitives.PageID) bool {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.IsPageLocked(pid)
}

// HoldsLock reports whether tid holds any lock on pid.
func (lm *LockManager) HoldsLock(tid *primitives.TransactionID, pid primitives.PageID) bool {
	_, ok := lm.LockTypeHeld(tid, pid)
	return ok
}

func (lm *LockManager) LockTypeHeld(tid *primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.LockTypeHeld(tid, pid)
}

// LockedPages returns the pages tid holds locks on, ordered by PageID.
func (lm *LockManager) LockedPages(tid *primitives.TransactionID) []primitives.PageID {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.lockTable.PagesOf(tid)
}

// releaseSignal returns the channel closed on the next release of a lock on
// pid. The caller must hold lm.mutex.
func (lm *LockManager) releaseSignal(pid primitives.PageID) <-chan struct{} {
	ch, ok := lm.released[pid]
	if !ok {
		ch = make(chan struct{})
		lm.released[pid] = ch
	}
	return ch
}

func (lm *LockManager) notifyReleased(pid primitives.PageID) {
	if ch, ok := lm.released[pid]; ok {
		close(ch)
		delete(lm.released, pid)
	}
}
