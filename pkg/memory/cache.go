// Package memory implements the buffer pool: a bounded, lock-aware cache of
// heap pages shared by every transaction.
package memory

import (
	"sync"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
)

// PageCache stores pages in memory. It knows nothing about transactions,
// locks, or durability; PageStore layers those on top.
type PageCache interface {
	// Get returns the cached page and marks it as recently used.
	Get(pid primitives.PageID) (page.Page, bool)

	// Peek returns the cached page without affecting recency.
	Peek(pid primitives.PageID) (page.Page, bool)

	// Put stores or replaces a page. It fails with CACHE_EXHAUSTED when a
	// new page would exceed capacity; callers evict first.
	Put(pid primitives.PageID, p page.Page) error

	// Remove drops a page; absent pages are ignored.
	Remove(pid primitives.PageID)

	Size() int
	Capacity() int
	Clear()

	// GetAll returns cached page IDs, least recently used first.
	GetAll() []primitives.PageID
}

type node struct {
	pid  primitives.PageID
	page page.Page
	prev *node
	next *node
}

// LRUPageCache tracks pages in a hash map threaded through a doubly linked
// list ordered by recency. It never evicts on its own: Put on a full cache
// fails so the owner can pick a victim that is safe to drop.
type LRUPageCache struct {
	maxSize int
	cache   map[primitives.PageID]*node
	head    *node // sentinel at the most recently used end
	tail    *node // sentinel at the least recently used end
	mutex   sync.RWMutex
}

func NewLRUPageCache(maxSize int) *LRUPageCache {
	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &LRUPageCache{
		maxSize: maxSize,
		cache:   make(map[primitives.PageID]*node),
		head:    head,
		tail:    tail,
	}
}

func (c *LRUPageCache) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUPageCache) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRUPageCache) moveToFront(n *node) {
	c.removeNode(n)
	c.addToFront(n)
}

func (c *LRUPageCache) Get(pid primitives.PageID) (page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		c.moveToFront(n)
		return n.page, true
	}
	return nil, false
}

func (c *LRUPageCache) Peek(pid primitives.PageID) (page.Page, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if n, exists := c.cache[pid]; exists {
		return n.page, true
	}
	return nil, false
}

func (c *LRUPageCache) Put(pid primitives.PageID, p page.Page) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		n.page = p
		c.moveToFront(n)
		return nil
	}

	if len(c.cache) >= c.maxSize {
		return dberror.NewCacheExhausted("page cache is full")
	}

	n := &node{pid: pid, page: p}
	c.cache[pid] = n
	c.addToFront(n)
	return nil
}

func (c *LRUPageCache) Remove(pid primitives.PageID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		delete(c.cache, pid)
		c.removeNode(n)
	}
}

func (c *LRUPageCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

func (c *LRUPageCache) Capacity() int {
	return c.maxSize
}

func (c *LRUPageCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[primitives.PageID]*node)
	c.head.next = c.tail
	c.tail.prev = c.head
}

func (c *LRUPageCache) GetAll() []primitives.PageID {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	pids := make([]primitives.PageID, 0, len(c.cache))
	for current := c.tail.prev; current != c.head; current = current.prev {
		pids = append(pids, current.pid)
	}
	return pids
}
