package lock

import (
	"time"

	"heapstore/pkg/primitives"
)

// LockType is the mode a page lock is held in.
type LockType int

const (
	SharedLock LockType = iota
	ExclusiveLock
)

func (lt LockType) String() string {
	if lt == ExclusiveLock {
		return "EXCLUSIVE"
	}
	return "SHARED"
}

// Lock is one transaction's hold on one page.
type Lock struct {
	TID       *primitives.TransactionID
	LockType  LockType
	GrantTime time.Time
}

func NewLock(tid *primitives.TransactionID, lockType LockType) *Lock {
	return &Lock{
		TID:       tid,
		LockType:  lockType,
		GrantTime: time.Now(),
	}
}

// lockTypeFor maps a page permission to the lock it requires.
func lockTypeFor(exclusive bool) LockType {
	if exclusive {
		return ExclusiveLock
	}
	return SharedLock
}
