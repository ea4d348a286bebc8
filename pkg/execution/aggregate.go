package execution

import (
	"fmt"
	"strings"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/iterator"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// NoGrouping is the group field index of an aggregate over the whole input.
const NoGrouping = -1

type AggregateOp int

const (
	Min AggregateOp = iota
	Max
	Sum
	Avg
	Count
)

func (op AggregateOp) String() string {
	switch op {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

// ParseAggregateOp accepts the operator names in any case.
func ParseAggregateOp(s string) (AggregateOp, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MIN":
		return Min, nil
	case "MAX":
		return Max, nil
	case "SUM":
		return Sum, nil
	case "AVG":
		return Avg, nil
	case "COUNT":
		return Count, nil
	default:
		return 0, dberror.NewInvalidArgument(fmt.Sprintf("unsupported aggregate operation: %s", s))
	}
}

// aggState is the running value of one group.
type aggState struct {
	group types.Field
	value int64
	count int64
}

func (s *aggState) merge(op AggregateOp, f types.Field) error {
	if op == Count {
		s.count++
		return nil
	}

	intField, ok := f.(*types.IntField)
	if !ok {
		return dberror.NewSchemaMismatch(fmt.Sprintf("%s needs an int field, got %T", op, f))
	}

	v := intField.Value
	switch {
	case s.count == 0:
		s.value = v
	case op == Min && v < s.value:
		s.value = v
	case op == Max && v > s.value:
		s.value = v
	case op == Sum || op == Avg:
		s.value += v
	}
	s.count++
	return nil
}

func (s *aggState) result(op AggregateOp) int64 {
	switch op {
	case Count:
		return s.count
	case Avg:
		return s.value / s.count
	default:
		return s.value
	}
}

// Aggregate computes one aggregate over its child, optionally grouped by one
// field. Int fields support every operator; string fields support only
// COUNT. Results are (group, value) or (value), with groups in the order
// they first appear. AVG is truncated to an integer.
//
// Over an empty input an ungrouped COUNT yields 0 and the other operators
// yield nothing.
type Aggregate struct {
	base      *BaseIterator
	child     iterator.DbIterator
	aField    int
	gField    int
	op        AggregateOp
	tupleDesc *tuple.TupleDescription

	results []*tuple.Tuple
	pos     int
}

func NewAggregate(child iterator.DbIterator, aField, gField int, op AggregateOp) (*Aggregate, error) {
	if child == nil {
		return nil, dberror.NewInvalidArgument("child operator cannot be nil")
	}

	childDesc := child.GetTupleDesc()
	aType, err := childDesc.TypeAtIndex(aField)
	if err != nil {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("invalid aggregate field index: %d", aField))
	}
	if aType != types.IntType && op != Count {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("%s is not supported on %s fields", op, aType))
	}

	aName, _ := childDesc.GetFieldName(aField)
	valueName := fmt.Sprintf("%s(%s)", op, aName)

	fieldTypes := []types.Type{types.IntType}
	fieldNames := []string{valueName}
	if gField != NoGrouping {
		gType, err := childDesc.TypeAtIndex(gField)
		if err != nil {
			return nil, dberror.NewInvalidArgument(fmt.Sprintf("invalid group field index: %d", gField))
		}
		gName, _ := childDesc.GetFieldName(gField)
		fieldTypes = []types.Type{gType, types.IntType}
		fieldNames = []string{gName, valueName}
	}

	tupleDesc, err := tuple.NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		return nil, err
	}

	a := &Aggregate{
		child:     child,
		aField:    aField,
		gField:    gField,
		op:        op,
		tupleDesc: tupleDesc,
	}
	a.base = NewBaseIterator(a.readNext)
	return a, nil
}

// AggregateColumns is NewAggregate with fields named as ResolveField
// accepts them. An empty groupBy means no grouping.
func AggregateColumns(child iterator.DbIterator, column, groupBy string, op AggregateOp) (*Aggregate, error) {
	if child == nil {
		return nil, dberror.NewInvalidArgument("child operator cannot be nil")
	}

	aField, err := ResolveField(child.GetTupleDesc(), column)
	if err != nil {
		return nil, err
	}

	gField := NoGrouping
	if groupBy != "" {
		if gField, err = ResolveField(child.GetTupleDesc(), groupBy); err != nil {
			return nil, err
		}
	}
	return NewAggregate(child, aField, gField, op)
}

func (a *Aggregate) GetTupleDesc() *tuple.TupleDescription {
	return a.tupleDesc
}

// Open drains the child and computes every group before the first tuple
// is returned.
func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return fmt.Errorf("failed to open child operator: %w", err)
	}

	results, err := a.compute()
	if err != nil {
		return err
	}

	a.results = results
	a.pos = 0
	a.base.MarkOpened()
	return nil
}

func (a *Aggregate) Close() error {
	_ = a.child.Close()
	a.results = nil
	return a.base.Close()
}

func (a *Aggregate) HasNext() (bool, error)      { return a.base.HasNext() }
func (a *Aggregate) Next() (*tuple.Tuple, error) { return a.base.Next() }

// Rewind replays the computed groups without reading the child again.
func (a *Aggregate) Rewind() error {
	if !a.base.opened {
		return dberror.NewIteratorClosed("operator not opened")
	}
	a.pos = 0
	a.base.ClearCache()
	return nil
}

func (a *Aggregate) readNext() (*tuple.Tuple, error) {
	if a.pos >= len(a.results) {
		return nil, nil
	}
	t := a.results[a.pos]
	a.pos++
	return t, nil
}

func (a *Aggregate) compute() ([]*tuple.Tuple, error) {
	var order []*aggState
	groups := make(map[string]*aggState)

	err := iterator.ForEach(a.child, func(t *tuple.Tuple) error {
		var group types.Field
		key := ""
		if a.gField != NoGrouping {
			g, err := t.GetField(a.gField)
			if err != nil {
				return err
			}
			group = g
			key = g.String()
		}

		state, ok := groups[key]
		if !ok {
			state = &aggState{group: group}
			groups[key] = state
			order = append(order, state)
		}

		f, err := t.GetField(a.aField)
		if err != nil {
			return err
		}
		return state.merge(a.op, f)
	})
	if err != nil {
		return nil, err
	}

	if len(order) == 0 && a.gField == NoGrouping && a.op == Count {
		order = append(order, &aggState{})
	}

	results := make([]*tuple.Tuple, 0, len(order))
	for _, state := range order {
		b := tuple.NewBuilder(a.tupleDesc)
		if a.gField != NoGrouping {
			b.AddField(state.group)
		}
		t, err := b.AddInt(state.result(a.op)).Build()
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, nil
}
