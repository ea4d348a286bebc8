package iterator

import "heapstore/pkg/tuple"

// TupleIterator captures the iteration methods shared by every cursor.
type TupleIterator interface {
	// HasNext reports whether Next would return a tuple.
	HasNext() (bool, error)

	// Next returns the next tuple or a NO_SUCH_ELEMENT error when the
	// sequence is exhausted.
	Next() (*tuple.Tuple, error)
}

// DbFileIterator is a cursor over the tuples of one storage unit.
//
// Open must be called before HasNext or Next. Rewind restarts the sequence
// from the first tuple. Close discards the cursor position; it does not
// release any page locks taken while iterating, those are held until the
// owning transaction completes.
type DbFileIterator interface {
	TupleIterator

	Open() error

	Rewind() error

	Close() error
}

// DbIterator is a DbFileIterator that also knows the schema of the tuples
// it produces.
type DbIterator interface {
	DbFileIterator

	GetTupleDesc() *tuple.TupleDescription
}
