package page

import (
	"heapstore/pkg/iterator"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// DbFile is a storage unit: one file of fixed-size pages holding tuples of a
// single schema. The buffer pool talks to storage units only through this
// interface.
type DbFile interface {
	// ReadPage reads the page with the given id straight from disk,
	// bypassing any cache.
	ReadPage(pid primitives.PageID) (Page, error)

	// WritePage writes the page image at its position in the file and syncs.
	WritePage(p Page) error

	// InsertTuple stores t on some page with a free slot, appending a page
	// if necessary, and returns the pages it modified. Pages are obtained
	// through the buffer pool under tid.
	InsertTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// DeleteTuple clears the slot addressed by t.RecordID and returns the
	// modified pages.
	DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]Page, error)

	// Iterator returns a cursor over every stored tuple, read under tid.
	Iterator(tid *primitives.TransactionID) iterator.DbFileIterator

	// GetID returns the stable identity of this storage unit.
	GetID() primitives.TableID

	// GetTupleDesc returns the schema of the tuples stored in this file.
	GetTupleDesc() *tuple.TupleDescription

	// NumPages returns file length / page size.
	NumPages() (primitives.PageNumber, error)

	// Close releases the file handle.
	Close() error
}
