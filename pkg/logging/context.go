package logging

import (
	"heapstore/pkg/primitives"

	log "github.com/sirupsen/logrus"
)

// WithTx creates a log entry with transaction context.
//
// Example:
//
//	log := logging.WithTx(tid)
//	log.Debug("commit")
func WithTx(tid *primitives.TransactionID) *log.Entry {
	return GetLogger().WithField("tx_id", tid.String())
}

// WithTable creates a log entry with table context.
func WithTable(tableName string) *log.Entry {
	return GetLogger().WithField("table", tableName)
}

// WithPage creates a log entry with page context. Useful for buffer pool
// and storage operations.
func WithPage(pid primitives.PageID) *log.Entry {
	return GetLogger().WithFields(log.Fields{
		"table_id": uint64(pid.GetTableID()),
		"page":     uint64(pid.PageNo()),
	})
}

// WithLock creates a log entry with lock context.
//
// Example:
//
//	log := logging.WithLock(tid, pid)
//	log.Debug("lock granted")
func WithLock(tid *primitives.TransactionID, pid primitives.PageID) *log.Entry {
	return WithPage(pid).WithField("tx_id", tid.String())
}

func WithComponent(component string) *log.Entry {
	return GetLogger().WithField("component", component)
}

// WithError creates a log entry carrying err.
func WithError(err error) *log.Entry {
	return GetLogger().WithError(err)
}
