package memory

import (
	"fmt"
	"sync"
	"time"

	"heapstore/pkg/concurrency/lock"
	dberror "heapstore/pkg/error"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// MaxPageCount is the default buffer pool capacity in pages.
const MaxPageCount = 50

// FileProvider resolves table IDs to their storage and schema. The catalog
// implements it.
type FileProvider interface {
	GetDbFile(tableID primitives.TableID) (page.DbFile, error)
	GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error)
}

// Stats is a snapshot of buffer pool counters.
type Stats struct {
	Hits               uint64
	Misses             uint64
	Evictions          uint64
	CachedPages        int
	Capacity           int
	ActiveTransactions int
}

// PageStore is the buffer pool. Every page access goes through GetPage,
// which locks the page for the transaction before serving it from cache or
// disk. Dirty pages stay in memory until their transaction ends (NO-STEAL):
// commit writes them back, abort drops them so the next reader sees the disk
// image.
type PageStore struct {
	files        FileProvider
	mutex        sync.Mutex
	transactions map[*primitives.TransactionID]*transactionInfo
	lockManager  *lock.LockManager
	cache        PageCache

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewPageStore creates a buffer pool holding at most capacity pages whose
// lock waits give up after lockTimeout.
func NewPageStore(files FileProvider, capacity int, lockTimeout time.Duration) *PageStore {
	if capacity <= 0 {
		capacity = MaxPageCount
	}

	return &PageStore{
		files:        files,
		transactions: make(map[*primitives.TransactionID]*transactionInfo),
		lockManager:  lock.NewLockManager(lockTimeout),
		cache:        NewLRUPageCache(capacity),
	}
}

// GetPage returns page pid for tid, taking a shared lock for ReadOnly and an
// exclusive lock for ReadWrite. It blocks while the lock conflicts with
// another transaction and fails with TRANSACTION_ABORTED on timeout.
func (p *PageStore) GetPage(tid *primitives.TransactionID, pid primitives.PageID, perm primitives.Permissions) (page.Page, error) {
	if tid == nil {
		return nil, dberror.NewInvalidArgument("transaction ID cannot be nil")
	}

	if err := p.lockManager.LockPage(tid, pid, perm.IsExclusive()); err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", pid, err)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.getOrCreateTransaction(tid).recordAccess(pid, perm)

	if pg, exists := p.cache.Get(pid); exists {
		p.hits++
		return pg, nil
	}
	p.misses++

	if err := p.ensureRoom(); err != nil {
		return nil, err
	}

	dbFile, err := p.files.GetDbFile(pid.GetTableID())
	if err != nil {
		return nil, err
	}

	pg, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pid, err)
	}

	if err := p.cache.Put(pid, pg); err != nil {
		return nil, err
	}
	logging.WithPage(pid).Debug("page loaded into buffer pool")
	return pg, nil
}

// InsertTuple adds t to table tableID on behalf of tid. The tuple's schema
// is checked against the catalog before any page is touched.
func (p *PageStore) InsertTuple(tid *primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error {
	if t == nil {
		return dberror.NewInvalidArgument("tuple cannot be nil")
	}

	td, err := p.files.GetTupleDesc(tableID)
	if err != nil {
		return err
	}
	if !t.TupleDesc.Equals(td) {
		return dberror.NewSchemaMismatch(fmt.Sprintf("tuple %s, table %s", t.TupleDesc, td))
	}

	dbFile, err := p.files.GetDbFile(tableID)
	if err != nil {
		return err
	}

	modified, err := dbFile.InsertTuple(tid, t)
	if err != nil {
		return fmt.Errorf("failed to insert tuple: %w", err)
	}
	return p.markPagesAsDirty(tid, modified)
}

// DeleteTuple removes t, located by its RecordID, on behalf of tid.
func (p *PageStore) DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) error {
	if t == nil {
		return dberror.NewInvalidArgument("tuple cannot be nil")
	}
	if t.RecordID == nil {
		return dberror.NewTupleNotFound("tuple has no record id")
	}

	dbFile, err := p.files.GetDbFile(t.RecordID.PageID.GetTableID())
	if err != nil {
		return err
	}

	modified, err := dbFile.DeleteTuple(tid, t)
	if err != nil {
		return fmt.Errorf("failed to delete tuple: %w", err)
	}
	return p.markPagesAsDirty(tid, modified)
}

// FlushPage writes pid back to disk if it is cached and dirty.
func (p *PageStore) FlushPage(pid primitives.PageID) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.flushPage(pid)
}

// FlushAllPages writes every dirty cached page, whichever transaction
// dirtied it.
func (p *PageStore) FlushAllPages() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, pid := range p.cache.GetAll() {
		if err := p.flushPage(pid); err != nil {
			return err
		}
	}
	return nil
}

// DiscardPage drops pid from the cache without writing it.
func (p *PageStore) DiscardPage(pid primitives.PageID) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cache.Remove(pid)
}

// TransactionComplete ends tid. On commit its dirty pages are written in
// PageID order; a dirty page missing from the cache fails the commit with
// PAGE_CORRUPTED, and a failed write returns an IO_ERROR and leaves the
// transaction, its locks and its remaining dirty pages in place so the
// caller may retry or abort. On abort its dirty pages are dropped from the
// cache. Either way the transaction's locks are released afterwards.
func (p *PageStore) TransactionComplete(tid *primitives.TransactionID, commit bool) error {
	if tid == nil {
		return dberror.NewInvalidArgument("transaction ID cannot be nil")
	}

	p.mutex.Lock()
	txInfo, exists := p.transactions[tid]
	if exists {
		dirty := txInfo.dirty()
		if commit {
			for _, pid := range dirty {
				if _, cached := p.cache.Peek(pid); !cached {
					p.mutex.Unlock()
					err := dberror.NewPageCorrupted(fmt.Sprintf("dirty page %s of %s is no longer cached", pid, tid))
					logging.WithTx(tid).WithError(err).Error("commit failed")
					return err
				}
				if err := p.flushPage(pid); err != nil {
					p.mutex.Unlock()
					logging.WithTx(tid).WithError(err).Error("commit failed")
					return err
				}
			}
		} else {
			for _, pid := range dirty {
				p.cache.Remove(pid)
			}
		}
		delete(p.transactions, tid)
		logging.WithTx(tid).WithField("commit", commit).WithField("dirty_pages", len(dirty)).Debug("transaction complete")
	}
	p.mutex.Unlock()

	p.lockManager.UnlockAllPages(tid)
	return nil
}

// CommitTransaction is TransactionComplete(tid, true).
func (p *PageStore) CommitTransaction(tid *primitives.TransactionID) error {
	return p.TransactionComplete(tid, true)
}

// AbortTransaction is TransactionComplete(tid, false).
func (p *PageStore) AbortTransaction(tid *primitives.TransactionID) error {
	return p.TransactionComplete(tid, false)
}

// HoldsLock reports whether tid holds any lock on pid.
func (p *PageStore) HoldsLock(tid *primitives.TransactionID, pid primitives.PageID) bool {
	return p.lockManager.HoldsLock(tid, pid)
}

// LockManager exposes the pool's lock manager for inspection.
func (p *PageStore) LockManager() *lock.LockManager {
	return p.lockManager
}

// DirtyPages returns the pages tid has modified, in PageID order.
func (p *PageStore) DirtyPages(tid *primitives.TransactionID) []primitives.PageID {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if txInfo, ok := p.transactions[tid]; ok {
		return txInfo.dirty()
	}
	return nil
}

// IsCached reports whether pid is currently in the cache.
func (p *PageStore) IsCached(pid primitives.PageID) bool {
	_, ok := p.cache.Peek(pid)
	return ok
}

func (p *PageStore) Stats() Stats {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return Stats{
		Hits:               p.hits,
		Misses:             p.misses,
		Evictions:          p.evictions,
		CachedPages:        p.cache.Size(),
		Capacity:           p.cache.Capacity(),
		ActiveTransactions: len(p.transactions),
	}
}

// Close flushes every dirty page and empties the cache.
func (p *PageStore) Close() error {
	if err := p.FlushAllPages(); err != nil {
		return fmt.Errorf("failed to flush pages during shutdown: %w", err)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.cache.Clear()
	return nil
}

// ensureRoom evicts one page when the cache is full. Only clean pages are
// candidates, least recently used first; when every page is dirty the
// request fails with CACHE_EXHAUSTED. Caller holds p.mutex.
func (p *PageStore) ensureRoom() error {
	if p.cache.Size() < p.cache.Capacity() {
		return nil
	}

	for _, pid := range p.cache.GetAll() {
		pg, exists := p.cache.Peek(pid)
		if !exists || pg.IsDirty() != nil {
			continue
		}
		p.cache.Remove(pid)
		p.evictions++
		logging.WithPage(pid).Debug("evicted clean page")
		return nil
	}

	return dberror.NewCacheExhausted(fmt.Sprintf(
		"all %d cached pages are dirty, commit or abort transactions to free space", p.cache.Size()))
}

// flushPage writes pid if dirty. The dirty flag is cleared, and the page
// dropped from its transaction's dirty set, only after a successful write.
// Caller holds p.mutex.
func (p *PageStore) flushPage(pid primitives.PageID) error {
	pg, exists := p.cache.Peek(pid)
	if !exists || pg.IsDirty() == nil {
		return nil
	}
	dirtier := pg.IsDirty()

	dbFile, err := p.files.GetDbFile(pid.GetTableID())
	if err != nil {
		return err
	}

	if err := dbFile.WritePage(pg); err != nil {
		return dberror.NewIO(err, "FlushPage", "PageStore").WithDetail("page %s", pid)
	}
	pg.MarkDirty(false, nil)
	if txInfo, ok := p.transactions[dirtier]; ok {
		txInfo.clean(pid)
	}
	return nil
}

// getOrCreateTransaction returns tid's bookkeeping. Caller holds p.mutex.
func (p *PageStore) getOrCreateTransaction(tid *primitives.TransactionID) *transactionInfo {
	txInfo, exists := p.transactions[tid]
	if !exists {
		txInfo = newTransactionInfo()
		p.transactions[tid] = txInfo
	}
	return txInfo
}

// markPagesAsDirty flags pages as modified by tid and makes sure they are in
// the cache, evicting a clean page if one was dropped meanwhile. A page is
// registered with tid only once it is cached; when no room can be made the
// change is lost and the error tells the caller to abort.
func (p *PageStore) markPagesAsDirty(tid *primitives.TransactionID, pages []page.Page) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	txInfo := p.getOrCreateTransaction(tid)
	for _, pg := range pages {
		pid := pg.GetID()
		pg.MarkDirty(true, tid)

		if _, cached := p.cache.Peek(pid); !cached {
			if err := p.ensureRoom(); err != nil {
				return err
			}
		}
		if err := p.cache.Put(pid, pg); err != nil {
			return err
		}
		txInfo.markDirty(pid)
	}
	return nil
}
