package tuple

import (
	"bytes"
	"fmt"
	"heapstore/pkg/types"
	"io"
	"strings"
)

// Tuple represents a row of data: a schema, one value per field, and the
// record id of the slot it is stored in (nil until stored).
type Tuple struct {
	TupleDesc *TupleDescription
	fields    []types.Field
	RecordID  *RecordID
}

// NewTuple creates an empty tuple with the given schema.
func NewTuple(td *TupleDescription) *Tuple {
	return &Tuple{
		TupleDesc: td,
		fields:    make([]types.Field, td.NumFields()),
	}
}

// SetField sets the ith value. The field type must match the schema.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}

	expectedType := t.TupleDesc.Types[i]
	if field.Type() != expectedType {
		return fmt.Errorf("field type mismatch: expected %v, got %v",
			expectedType, field.Type())
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Fields returns the tuple's values in schema order.
func (t *Tuple) Fields() []types.Field {
	return t.fields
}

// String returns field1\tfield2\t...\tfieldN\n.
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, field := range t.fields {
		if field != nil {
			parts[i] = field.String()
		} else {
			parts[i] = "null"
		}
	}
	return strings.Join(parts, "\t") + "\n"
}

// Equals compares values field by field. Schemas must match; record ids are
// ignored.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || !t.TupleDesc.Equals(other.TupleDesc) {
		return false
	}
	for i, f := range t.fields {
		o := other.fields[i]
		if f == nil || o == nil {
			if f != o {
				return false
			}
			continue
		}
		if !f.Equals(o) {
			return false
		}
	}
	return true
}

// Clone copies the tuple's schema and values. The copy has no record id.
func (t *Tuple) Clone() *Tuple {
	newTup := NewTuple(t.TupleDesc)
	copy(newTup.fields, t.fields)
	return newTup
}

// Serialize writes every field in schema order, exactly
// TupleDesc.GetSize() bytes. All fields must be set.
func (t *Tuple) Serialize(w io.Writer) error {
	for i, field := range t.fields {
		if field == nil {
			return fmt.Errorf("field %d is not set", i)
		}
		if err := field.Serialize(w); err != nil {
			return fmt.Errorf("failed to serialize field %d: %w", i, err)
		}
	}
	return nil
}

// Bytes returns the serialized form of the tuple.
func (t *Tuple) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(t.TupleDesc.GetSize()))
	if err := t.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse reads one tuple with schema td from r.
func Parse(td *TupleDescription, r io.Reader) (*Tuple, error) {
	t := NewTuple(td)
	for i, fieldType := range td.Types {
		field, err := types.ParseField(r, fieldType)
		if err != nil {
			return nil, fmt.Errorf("failed to parse field %d: %w", i, err)
		}
		t.fields[i] = field
	}
	return t, nil
}

// CombineTuples concatenates the values of t1 and t2 under the combined
// schema.
func CombineTuples(t1, t2 *Tuple) (*Tuple, error) {
	if t1 == nil || t2 == nil {
		return nil, fmt.Errorf("cannot combine nil tuples")
	}

	combined := NewTuple(Combine(t1.TupleDesc, t2.TupleDesc))
	copy(combined.fields, t1.fields)
	copy(combined.fields[len(t1.fields):], t2.fields)
	return combined, nil
}
