package heap

import (
	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// HeapFileIterator walks every tuple of a HeapFile in (page, slot) order.
// Pages are fetched through the buffer pool one at a time, so scanning takes
// a lock on each page it visits. Those locks outlive the iterator.
type HeapFileIterator struct {
	file     *HeapFile
	tid      *primitives.TransactionID
	perm     primitives.Permissions
	nextPage primitives.PageNumber
	tuples   []*tuple.Tuple
	index    int
	isOpen   bool
}

// NewHeapFileIterator creates a cursor over file that fetches pages with
// perm on behalf of tid.
func NewHeapFileIterator(file *HeapFile, tid *primitives.TransactionID, perm primitives.Permissions) *HeapFileIterator {
	return &HeapFileIterator{
		file: file,
		tid:  tid,
		perm: perm,
	}
}

// Open positions the cursor before the first tuple and fetches page 0 if
// the file has one.
func (it *HeapFileIterator) Open() error {
	it.nextPage = 0
	it.tuples = nil
	it.index = 0
	it.isOpen = true

	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}
	if numPages > 0 {
		return it.loadNextPage()
	}
	return nil
}

// HasNext reports whether another tuple exists on the current page or on any
// later page, skipping over empty pages.
func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.isOpen {
		return false, dberror.NewIteratorClosed("heap file iterator")
	}

	for it.index >= len(it.tuples) {
		numPages, err := it.file.NumPages()
		if err != nil {
			return false, err
		}
		if it.nextPage >= numPages {
			return false, nil
		}
		if err := it.loadNextPage(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Next returns the next tuple or a NO_SUCH_ELEMENT error past the end.
func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberror.NewNoSuchElement("heap file iterator exhausted")
	}

	t := it.tuples[it.index]
	it.index++
	return t, nil
}

// Rewind restarts the scan from page 0.
func (it *HeapFileIterator) Rewind() error {
	if !it.isOpen {
		return dberror.NewIteratorClosed("heap file iterator")
	}
	if err := it.Close(); err != nil {
		return err
	}
	return it.Open()
}

// Close drops the cursor state. Page locks stay with the transaction.
func (it *HeapFileIterator) Close() error {
	it.tuples = nil
	it.index = 0
	it.isOpen = false
	return nil
}

func (it *HeapFileIterator) loadNextPage() error {
	hp, err := it.file.fetch(it.tid, it.nextPage, it.perm)
	if err != nil {
		return err
	}
	it.nextPage++
	it.tuples = hp.GetTuples()
	it.index = 0
	return nil
}
