package memory

import (
	"time"

	"heapstore/pkg/primitives"

	"github.com/google/btree"
)

const dirtySetDegree = 8

// pageItem orders PageIDs inside a btree.
type pageItem primitives.PageID

func (p pageItem) Less(than btree.Item) bool {
	return primitives.PageID(p).Less(primitives.PageID(than.(pageItem)))
}

// transactionInfo is the pool's bookkeeping for one live transaction.
type transactionInfo struct {
	startTime   time.Time
	dirtyPages  *btree.BTree // of pageItem
	lockedPages map[primitives.PageID]primitives.Permissions
}

func newTransactionInfo() *transactionInfo {
	return &transactionInfo{
		startTime:   time.Now(),
		dirtyPages:  btree.New(dirtySetDegree),
		lockedPages: make(map[primitives.PageID]primitives.Permissions),
	}
}

// recordAccess remembers the strongest permission the transaction used on pid.
func (ti *transactionInfo) recordAccess(pid primitives.PageID, perm primitives.Permissions) {
	if prev, ok := ti.lockedPages[pid]; ok && prev.IsExclusive() {
		return
	}
	ti.lockedPages[pid] = perm
}

func (ti *transactionInfo) markDirty(pid primitives.PageID) {
	ti.dirtyPages.ReplaceOrInsert(pageItem(pid))
}

// clean forgets pid once it has been written back.
func (ti *transactionInfo) clean(pid primitives.PageID) {
	ti.dirtyPages.Delete(pageItem(pid))
}

// dirty returns the pages the transaction modified in PageID order.
func (ti *transactionInfo) dirty() []primitives.PageID {
	pids := make([]primitives.PageID, 0, ti.dirtyPages.Len())
	ti.dirtyPages.Ascend(func(i btree.Item) bool {
		pids = append(pids, primitives.PageID(i.(pageItem)))
		return true
	})
	return pids
}
