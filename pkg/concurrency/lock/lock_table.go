package lock

import (
	"sort"

	"heapstore/pkg/primitives"
)

// LockTable indexes granted locks both by page and by transaction. It is not
// safe for concurrent use; LockManager guards it with its mutex.
type LockTable struct {
	pageLocks        map[primitives.PageID][]*Lock
	transactionLocks map[*primitives.TransactionID]map[primitives.PageID]LockType
}

func NewLockTable() *LockTable {
	return &LockTable{
		pageLocks:        make(map[primitives.PageID][]*Lock),
		transactionLocks: make(map[*primitives.TransactionID]map[primitives.PageID]LockType),
	}
}

// HasSufficientLock reports whether tid already holds a lock on pid at
// least as strong as reqLockType.
func (lt *LockTable) HasSufficientLock(tid *primitives.TransactionID, pid primitives.PageID, reqLockType LockType) bool {
	current, ok := lt.LockTypeHeld(tid, pid)
	if !ok {
		return false
	}
	return current == ExclusiveLock || reqLockType == SharedLock
}

// HasLockType reports whether tid holds exactly lockType on pid.
func (lt *LockTable) HasLockType(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) bool {
	current, ok := lt.LockTypeHeld(tid, pid)
	return ok && current == lockType
}

func (lt *LockTable) LockTypeHeld(tid *primitives.TransactionID, pid primitives.PageID) (LockType, bool) {
	txPages, exists := lt.transactionLocks[tid]
	if !exists {
		return SharedLock, false
	}
	current, hasPage := txPages[pid]
	return current, hasPage
}

func (lt *LockTable) GetPageLocks(pid primitives.PageID) []*Lock {
	return lt.pageLocks[pid]
}

func (lt *LockTable) AddLock(tid *primitives.TransactionID, pid primitives.PageID, lockType LockType) {
	lt.pageLocks[pid] = append(lt.pageLocks[pid], NewLock(tid, lockType))

	if lt.transactionLocks[tid] == nil {
		lt.transactionLocks[tid] = make(map[primitives.PageID]LockType)
	}
	lt.transactionLocks[tid][pid] = lockType
}

func (lt *LockTable) IsPageLocked(pid primitives.PageID) bool {
	return len(lt.pageLocks[pid]) > 0
}

// UpgradeLock turns tid's shared lock on pid into an exclusive one in place.
func (lt *LockTable) UpgradeLock(tid *primitives.TransactionID, pid primitives.PageID) {
	for _, l := range lt.pageLocks[pid] {
		if l.TID == tid {
			l.LockType = ExclusiveLock
			break
		}
	}
	lt.transactionLocks[tid][pid] = ExclusiveLock
}

// PagesOf returns the pages tid holds locks on, ordered by PageID.
func (lt *LockTable) PagesOf(tid *primitives.TransactionID) []primitives.PageID {
	txPages := lt.transactionLocks[tid]
	pages := make([]primitives.PageID, 0, len(txPages))
	for pid := range txPages {
		pages = append(pages, pid)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Less(pages[j]) })
	return pages
}

// ReleaseAllLocks drops every lock tid holds and returns the affected pages.
func (lt *LockTable) ReleaseAllLocks(tid *primitives.TransactionID) []primitives.PageID {
	affected := lt.PagesOf(tid)
	for _, pid := range affected {
		lt.dropPageLock(tid, pid)
	}
	delete(lt.transactionLocks, tid)
	return affected
}

// ReleaseLock drops tid's lock on pid, if any.
func (lt *LockTable) ReleaseLock(tid *primitives.TransactionID, pid primitives.PageID) {
	lt.dropPageLock(tid, pid)

	if txPages, exists := lt.transactionLocks[tid]; exists {
		delete(txPages, pid)
		if len(txPages) == 0 {
			delete(lt.transactionLocks, tid)
		}
	}
}

func (lt *LockTable) dropPageLock(tid *primitives.TransactionID, pid primitives.PageID) {
	locks, exists := lt.pageLocks[pid]
	if !exists {
		return
	}
	updateOrDelete(lt.pageLocks, pid, filterLocks(locks, func(l *Lock) bool { return l.TID != tid }))
}
