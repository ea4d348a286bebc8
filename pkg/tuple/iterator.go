package tuple

import dberror "heapstore/pkg/error"

// Iterator walks an in-memory slice of tuples.
type Iterator struct {
	tuples    []*Tuple
	tupleDesc *TupleDescription
	index     int
	opened    bool
}

func NewIterator(tuples []*Tuple, desc *TupleDescription) *Iterator {
	return &Iterator{
		tuples:    tuples,
		tupleDesc: desc,
		index:     -1,
	}
}

func (it *Iterator) Open() error {
	it.opened = true
	it.index = -1
	return nil
}

func (it *Iterator) Close() error {
	it.opened = false
	return nil
}

func (it *Iterator) HasNext() (bool, error) {
	if !it.opened {
		return false, dberror.NewIteratorClosed("slice iterator")
	}
	return it.index+1 < len(it.tuples), nil
}

func (it *Iterator) Next() (*Tuple, error) {
	hasNext, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !hasNext {
		return nil, dberror.NewNoSuchElement("slice iterator exhausted")
	}

	it.index++
	return it.tuples[it.index], nil
}

func (it *Iterator) Rewind() error {
	if !it.opened {
		return dberror.NewIteratorClosed("slice iterator")
	}
	it.index = -1
	return nil
}

func (it *Iterator) GetTupleDesc() *TupleDescription {
	return it.tupleDesc
}
