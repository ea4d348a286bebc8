package execution

import (
	"fmt"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/iterator"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// Project keeps the listed fields of its child's tuples, in list order.
// Output tuples keep the record id of the tuple they came from.
type Project struct {
	base      *BaseIterator
	fieldList []int
	child     iterator.DbIterator
	tupleDesc *tuple.TupleDescription
}

func NewProject(fieldList []int, child iterator.DbIterator) (*Project, error) {
	if child == nil {
		return nil, dberror.NewInvalidArgument("child operator cannot be nil")
	}
	if len(fieldList) == 0 {
		return nil, dberror.NewInvalidArgument("must project at least one field")
	}

	childDesc := child.GetTupleDesc()
	fieldTypes := make([]types.Type, len(fieldList))
	fieldNames := make([]string, len(fieldList))

	for i, idx := range fieldList {
		fieldType, err := childDesc.TypeAtIndex(idx)
		if err != nil {
			return nil, dberror.NewInvalidArgument(fmt.Sprintf(
				"field index %d out of bounds (child has %d fields)", idx, childDesc.NumFields()))
		}
		fieldTypes[i] = fieldType
		fieldNames[i], _ = childDesc.GetFieldName(idx)
	}

	tupleDesc, err := tuple.NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		return nil, err
	}

	p := &Project{
		fieldList: append([]int(nil), fieldList...),
		child:     child,
		tupleDesc: tupleDesc,
	}
	p.base = NewBaseIterator(p.readNext)
	return p, nil
}

// ProjectColumns is NewProject with fields named as ResolveField accepts
// them.
func ProjectColumns(names []string, child iterator.DbIterator) (*Project, error) {
	if child == nil {
		return nil, dberror.NewInvalidArgument("child operator cannot be nil")
	}

	fieldList := make([]int, len(names))
	for i, name := range names {
		idx, err := ResolveField(child.GetTupleDesc(), name)
		if err != nil {
			return nil, err
		}
		fieldList[i] = idx
	}
	return NewProject(fieldList, child)
}

func (p *Project) GetTupleDesc() *tuple.TupleDescription {
	return p.tupleDesc
}

func (p *Project) Open() error {
	if err := p.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}

	p.base.MarkOpened()
	return nil
}

func (p *Project) Close() error {
	_ = p.child.Close()
	return p.base.Close()
}

func (p *Project) Rewind() error {
	if err := p.child.Rewind(); err != nil {
		return err
	}

	p.base.ClearCache()
	return nil
}

func (p *Project) HasNext() (bool, error)      { return p.base.HasNext() }
func (p *Project) Next() (*tuple.Tuple, error) { return p.base.Next() }

func (p *Project) readNext() (*tuple.Tuple, error) {
	hasNext, err := p.child.HasNext()
	if err != nil || !hasNext {
		return nil, err
	}

	childTuple, err := p.child.Next()
	if err != nil {
		return nil, err
	}

	projected := tuple.NewTuple(p.tupleDesc)
	for i, idx := range p.fieldList {
		field, err := childTuple.GetField(idx)
		if err != nil {
			return nil, err
		}
		if err := projected.SetField(i, field); err != nil {
			return nil, err
		}
	}

	projected.RecordID = childTuple.RecordID
	return projected, nil
}
