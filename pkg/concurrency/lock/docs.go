// Package lock implements page-level strict two-phase locking for the
// buffer pool.
//
// # Overview
//
// A transaction acquires locks while it runs and releases all of them at
// once when it commits or aborts. Locks are never released mid-transaction.
//
// Two lock modes are supported:
//
//   - [SharedLock]: required to read a page; compatible with other shared locks.
//   - [ExclusiveLock]: required to write a page; incompatible with all other locks.
//
// A transaction holding a shared lock may upgrade it to exclusive
// ([LockManager.LockPage] with exclusive=true) provided no other transaction
// holds any lock on that page. A transaction holding an exclusive lock
// implicitly holds the shared one, so re-requesting either mode is a no-op.
//
// # Components
//
// [LockManager] is the single public entry point. Internally it coordinates:
//
//   - [LockTable]: dual index of which pages each transaction holds locks on,
//     and which transactions hold locks on each page.
//   - [LockGrantor]: stateless compatibility rules for granting, upgrading
//     and re-requesting locks.
//
// # Lock Acquisition Flow
//
// When [LockManager.LockPage] is called:
//
//  1. If the transaction already holds a sufficient lock, return immediately.
//  2. If it holds the page shared and is the only holder, upgrade in place.
//  3. If the lock is compatible with every other holder, grant it.
//  4. Otherwise block until a lock on that page is released, then retry from 1.
//
// # Deadlocks
//
// There is no wait-for graph. Every request carries one deadline
// ([LockManager.Timeout]); a request still waiting when it expires returns a
// TRANSACTION_ABORTED error. The caller must then abort the transaction,
// which releases its locks and lets the other side of a deadlock proceed.
package lock
