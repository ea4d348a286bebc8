package execution

import (
	dberror "heapstore/pkg/error"
	"heapstore/pkg/tuple"
)

// ReadNextFunc returns the next tuple of an operator, or nil when the
// operator is exhausted.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the lookahead and open/closed state shared by all
// operators. Operators supply only a ReadNextFunc.
type BaseIterator struct {
	nextTuple    *tuple.Tuple
	opened       bool
	readNextFunc ReadNextFunc
}

func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{
		readNextFunc: readNextFunc,
	}
}

// HasNext reads ahead one tuple if none is cached yet.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberror.NewIteratorClosed("operator not opened")
	}

	if it.nextTuple == nil {
		var err error
		it.nextTuple, err = it.readNextFunc()
		if err != nil {
			return false, err
		}
	}
	return it.nextTuple != nil, nil
}

// Next returns the cached lookahead tuple, or reads one.
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberror.NewNoSuchElement("operator exhausted")
	}

	result := it.nextTuple
	it.nextTuple = nil
	return result, nil
}

func (it *BaseIterator) Close() error {
	it.nextTuple = nil
	it.opened = false
	return nil
}

// MarkOpened marks the iterator as opened and drops any cached tuple.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
}

// ClearCache drops the lookahead tuple; operators call it on Rewind.
func (it *BaseIterator) ClearCache() {
	it.nextTuple = nil
}
