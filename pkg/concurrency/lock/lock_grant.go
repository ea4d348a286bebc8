package lock

import (
	"heapstore/pkg/primitives"
)

// LockGrantor decides whether a request is compatible with the locks
// already granted on a page. It holds no state of its own.
type LockGrantor struct {
	lockTable *LockTable
}

func NewLockGrantor(lockTable *LockTable) *LockGrantor {
	return &LockGrantor{lockTable: lockTable}
}

// CanGrantImmediately determines if a lock can be granted without waiting.
// An exclusive lock needs every other holder gone; a shared lock only needs
// no other transaction to hold the page exclusively.
func (lg *LockGrantor) CanGrantImmediately(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	for _, l := range lg.lockTable.GetPageLocks(pid) {
		if l.TID == tid {
			continue
		}
		if lockType == ExclusiveLock || l.LockType == ExclusiveLock {
			return false
		}
	}
	return true
}

// GrantLock records a new lock for tid.
func (lg *LockGrantor) GrantLock(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	lg.lockTable.AddLock(tid, pid, lockType)
}

// CanUpgradeLock checks if tid's shared lock can become exclusive, which
// requires tid to be the only holder.
func (lg *LockGrantor) CanUpgradeLock(tid *primitives.TransactionID, pid primitives.PageID) bool {
	if !lg.lockTable.HasLockType(tid, pid, SharedLock) {
		return false
	}

	for _, l := range lg.lockTable.GetPageLocks(pid) {
		if l.TID != tid {
			return false
		}
	}
	return true
}

// TryGrant grants the request if possible and reports whether tid now
// holds the lock. It covers re-requests, in-place upgrades and fresh grants.
func (lg *LockGrantor) TryGrant(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	if lg.lockTable.HasSufficientLock(tid, pid, lockType) {
		return true
	}

	if lockType == ExclusiveLock && lg.lockTable.HasLockType(tid, pid, SharedLock) {
		if lg.CanUpgradeLock(tid, pid) {
			lg.lockTable.UpgradeLock(tid, pid)
			return true
		}
		return false
	}

	if lg.CanGrantImmediately(tid, pid, lockType) {
		lg.GrantLock(tid, pid, lockType)
		return true
	}
	return false
}
