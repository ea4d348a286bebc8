package execution

import (
	"fmt"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/iterator"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// TupleWriter applies inserts and deletes on behalf of a transaction.
// memory.PageStore implements it.
type TupleWriter interface {
	InsertTuple(tid *primitives.TransactionID, tableID primitives.TableID, t *tuple.Tuple) error
	DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) error
}

// countDesc is the schema of the single tuple Insert and Delete return.
var countDesc = tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"count"})

// modify drains child through apply and returns the number of tuples it
// accepted as a one-field tuple. It yields exactly one tuple per Open or
// Rewind, even when child was empty.
type modify struct {
	base  *BaseIterator
	child iterator.DbIterator
	apply func(t *tuple.Tuple) error
	done  bool
}

func newModify(child iterator.DbIterator, apply func(t *tuple.Tuple) error) *modify {
	m := &modify{child: child, apply: apply}
	m.base = NewBaseIterator(m.readNext)
	return m
}

func (m *modify) Open() error {
	if err := m.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}

	m.done = false
	m.base.MarkOpened()
	return nil
}

func (m *modify) Close() error {
	_ = m.child.Close()
	return m.base.Close()
}

func (m *modify) GetTupleDesc() *tuple.TupleDescription { return countDesc }

func (m *modify) HasNext() (bool, error)      { return m.base.HasNext() }
func (m *modify) Next() (*tuple.Tuple, error) { return m.base.Next() }

// Rewind runs the child again from the start; the tuples it yields are
// applied a second time.
func (m *modify) Rewind() error {
	if err := m.child.Rewind(); err != nil {
		return err
	}

	m.done = false
	m.base.ClearCache()
	return nil
}

func (m *modify) readNext() (*tuple.Tuple, error) {
	if m.done {
		return nil, nil
	}
	m.done = true

	var count int64
	err := iterator.ForEach(m.child, func(t *tuple.Tuple) error {
		if err := m.apply(t); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tuple.NewBuilder(countDesc).AddInt(count).Build()
}

// Insert adds every tuple of its child to a table under tid and returns
// one tuple holding the number inserted.
type Insert struct {
	*modify
}

func NewInsert(tid *primitives.TransactionID, tableID primitives.TableID, child iterator.DbIterator, writer TupleWriter) (*Insert, error) {
	if err := checkModify(tid, child, writer); err != nil {
		return nil, err
	}

	return &Insert{newModify(child, func(t *tuple.Tuple) error {
		// the child's tuple may still carry the id of the row it was read from
		row := t.Clone()
		return writer.InsertTuple(tid, tableID, row)
	})}, nil
}

// Delete removes every tuple of its child under tid and returns one tuple
// holding the number deleted. Child tuples must carry record ids, as the
// ones read by SeqScan do.
type Delete struct {
	*modify
}

func NewDelete(tid *primitives.TransactionID, child iterator.DbIterator, writer TupleWriter) (*Delete, error) {
	if err := checkModify(tid, child, writer); err != nil {
		return nil, err
	}

	return &Delete{newModify(child, func(t *tuple.Tuple) error {
		return writer.DeleteTuple(tid, t)
	})}, nil
}

func checkModify(tid *primitives.TransactionID, child iterator.DbIterator, writer TupleWriter) error {
	if tid == nil {
		return dberror.NewInvalidArgument("transaction id cannot be nil")
	}
	if child == nil {
		return dberror.NewInvalidArgument("child operator cannot be nil")
	}
	if writer == nil {
		return dberror.NewInvalidArgument("tuple writer cannot be nil")
	}
	return nil
}
