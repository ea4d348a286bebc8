package execution

import (
	"fmt"
	"strings"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"
)

// Predicate compares one field of a tuple with a constant.
type Predicate struct {
	fieldIndex int
	op         primitives.Predicate
	operand    types.Field
}

func NewPredicate(fieldIndex int, op primitives.Predicate, operand types.Field) *Predicate {
	return &Predicate{
		fieldIndex: fieldIndex,
		op:         op,
		operand:    operand,
	}
}

// Filter reports whether t satisfies the predicate.
func (p *Predicate) Filter(t *tuple.Tuple) (bool, error) {
	field, err := t.GetField(p.fieldIndex)
	if err != nil {
		return false, err
	}
	if field == nil {
		return false, nil
	}
	return field.Compare(p.op, p.operand)
}

func (p *Predicate) String() string {
	return fmt.Sprintf("field[%d] %s %s", p.fieldIndex, p.op, p.operand)
}

// Longer operators first so "<=" is not read as "<".
var predicateOps = []struct {
	token string
	op    primitives.Predicate
}{
	{"<=", primitives.LessThanOrEqual},
	{">=", primitives.GreaterThanOrEqual},
	{"!=", primitives.NotEqual},
	{"<>", primitives.NotEqual},
	{"=", primitives.Equals},
	{"<", primitives.LessThan},
	{">", primitives.GreaterThan},
}

// ParsePredicate reads expressions such as "id>=3" or "name = bob" against
// td. Field names resolve exactly first, then by their unprefixed name, so
// "id" finds "t.id". A LIKE match is written "name~substr".
func ParsePredicate(td *tuple.TupleDescription, expr string) (*Predicate, error) {
	name, op, value, ok := splitPredicate(expr)
	if !ok {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("cannot parse predicate %q", expr))
	}

	idx, err := ResolveField(td, name)
	if err != nil {
		return nil, err
	}

	fieldType, err := td.TypeAtIndex(idx)
	if err != nil {
		return nil, err
	}

	operand, err := types.CreateFieldFromConstant(fieldType, value)
	if err != nil {
		return nil, dberror.NewInvalidArgument(err.Error())
	}
	return NewPredicate(idx, op, operand), nil
}

func splitPredicate(expr string) (name string, op primitives.Predicate, value string, ok bool) {
	if i := strings.Index(expr, "~"); i > 0 {
		return strings.TrimSpace(expr[:i]), primitives.Like, strings.TrimSpace(expr[i+1:]), true
	}

	for _, candidate := range predicateOps {
		if i := strings.Index(expr, candidate.token); i > 0 {
			name = strings.TrimSpace(expr[:i])
			value = strings.TrimSpace(expr[i+len(candidate.token):])
			return name, candidate.op, value, name != ""
		}
	}
	return "", 0, "", false
}

// ResolveField finds the index of name in td, matching "alias.name" fields
// by their suffix when no field is called name exactly. An ambiguous suffix
// is an error.
func ResolveField(td *tuple.TupleDescription, name string) (int, error) {
	if idx, err := td.FindFieldIndex(name); err == nil {
		return idx, nil
	}

	found := -1
	for i := 0; i < td.NumFields(); i++ {
		fieldName, _ := td.GetFieldName(i)
		if strings.HasSuffix(fieldName, "."+name) {
			if found >= 0 {
				return -1, dberror.NewInvalidArgument(fmt.Sprintf("column %s is ambiguous", name))
			}
			found = i
		}
	}

	if found < 0 {
		return -1, dberror.NewInvalidArgument(fmt.Sprintf("column %s not found", name))
	}
	return found, nil
}
