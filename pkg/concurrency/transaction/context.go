// Package transaction tracks the lifecycle of the transactions started on a
// database instance. Locks and dirty pages stay with the page store; a
// Context only records status, timing and tuple counts.
package transaction

import (
	"fmt"
	"sync"
	"time"

	"heapstore/pkg/primitives"
)

// Status represents the current state of a transaction
type Status int

const (
	Active Status = iota
	Committing
	Aborting
	Committed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Committing:
		return "COMMITTING"
	case Aborting:
		return "ABORTING"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Stats counts the tuple operations issued by one transaction.
type Stats struct {
	TuplesInserted int
	TuplesDeleted  int
}

// Context is the bookkeeping of a single transaction.
type Context struct {
	ID *primitives.TransactionID

	status    Status
	startTime time.Time
	endTime   time.Time
	stats     Stats
	mutex     sync.RWMutex
}

func NewContext(tid *primitives.TransactionID) *Context {
	return &Context{
		ID:        tid,
		status:    Active,
		startTime: time.Now(),
	}
}

func (c *Context) IsActive() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.status == Active
}

func (c *Context) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.status
}

// SetStatus moves the transaction to status. Reaching Committed or Aborted
// stamps the end time.
func (c *Context) SetStatus(status Status) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.status = status
	if status == Committed || status == Aborted {
		c.endTime = time.Now()
	}
}

func (c *Context) RecordInsert() {
	c.mutex.Lock()
	c.stats.TuplesInserted++
	c.mutex.Unlock()
}

func (c *Context) RecordDelete() {
	c.mutex.Lock()
	c.stats.TuplesDeleted++
	c.mutex.Unlock()
}

func (c *Context) Stats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.stats
}

// Duration is the time since the start, or the total run time once the
// transaction has ended.
func (c *Context) Duration() time.Duration {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

func (c *Context) String() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return fmt.Sprintf("%s[%s inserted=%d deleted=%d]",
		c.ID, c.status, c.stats.TuplesInserted, c.stats.TuplesDeleted)
}
