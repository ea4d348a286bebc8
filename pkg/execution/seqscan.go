package execution

import (
	"fmt"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/iterator"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// TableSource resolves table ids to their files. catalog.Catalog
// implements it.
type TableSource interface {
	GetDbFile(id primitives.TableID) (page.DbFile, error)
	GetTableName(id primitives.TableID) (string, error)
}

// SeqScan reads every tuple of one table in page order, then slot order.
// Pages are read through the page store under tid with shared locks, which
// stay held until the transaction completes.
type SeqScan struct {
	base      *BaseIterator
	tid       *primitives.TransactionID
	tableID   primitives.TableID
	alias     string
	file      page.DbFile
	fileIter  iterator.DbFileIterator
	tupleDesc *tuple.TupleDescription
}

// NewSeqScan prepares a scan of tableID. Its schema carries the field names
// of the table prefixed with "alias."; an empty alias means the table name.
// The scan must be opened before use.
func NewSeqScan(tid *primitives.TransactionID, tableID primitives.TableID, alias string, tables TableSource) (*SeqScan, error) {
	if tables == nil {
		return nil, dberror.NewInvalidArgument("table source cannot be nil")
	}
	if tid == nil {
		return nil, dberror.NewInvalidArgument("transaction id cannot be nil")
	}

	file, err := tables.GetDbFile(tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file for table %d: %w", tableID, err)
	}

	if alias == "" {
		if alias, err = tables.GetTableName(tableID); err != nil {
			return nil, err
		}
	}

	ss := &SeqScan{
		tid:       tid,
		tableID:   tableID,
		alias:     alias,
		file:      file,
		tupleDesc: file.GetTupleDesc().WithPrefix(alias),
	}
	ss.base = NewBaseIterator(ss.readNext)
	return ss, nil
}

func (ss *SeqScan) Open() error {
	ss.fileIter = ss.file.Iterator(ss.tid)
	if err := ss.fileIter.Open(); err != nil {
		return fmt.Errorf("failed to open scan of %s: %w", ss.alias, err)
	}

	ss.base.MarkOpened()
	return nil
}

func (ss *SeqScan) readNext() (*tuple.Tuple, error) {
	if ss.fileIter == nil {
		return nil, dberror.NewIteratorClosed("scan not opened")
	}

	hasNext, err := ss.fileIter.HasNext()
	if err != nil || !hasNext {
		return nil, err
	}
	return ss.fileIter.Next()
}

// GetTupleDesc returns the alias-prefixed schema of the scanned table.
func (ss *SeqScan) GetTupleDesc() *tuple.TupleDescription {
	return ss.tupleDesc
}

func (ss *SeqScan) Alias() string {
	return ss.alias
}

func (ss *SeqScan) HasNext() (bool, error) { return ss.base.HasNext() }

func (ss *SeqScan) Next() (*tuple.Tuple, error) { return ss.base.Next() }

// Rewind restarts the scan at the first tuple.
func (ss *SeqScan) Rewind() error {
	if ss.fileIter == nil {
		return dberror.NewIteratorClosed("scan not opened")
	}
	if err := ss.fileIter.Rewind(); err != nil {
		return err
	}

	ss.base.ClearCache()
	return nil
}

func (ss *SeqScan) Close() error {
	if ss.fileIter != nil {
		_ = ss.fileIter.Close()
		ss.fileIter = nil
	}
	return ss.base.Close()
}
