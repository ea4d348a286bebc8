package tuple

import (
	"fmt"
	"heapstore/pkg/types"
	"strings"
)

// TupleDescription describes the schema of a tuple: the ordered field types
// and, optionally, their names. The on-disk size of a tuple is the sum of its
// field type sizes.
type TupleDescription struct {
	// Types contains the data type of each field in order
	Types []types.Type
	// FieldNames contains the name of each field (optional, may be nil)
	FieldNames []string
}

// NewTupleDesc creates a new TupleDescription given field types and optional
// field names. fieldTypes must not be empty; fieldNames, when not nil, must be
// the same length as fieldTypes.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldTypes) < 1 {
		return nil, fmt.Errorf("must provide at least one field type")
	}

	var namesCopy []string
	if fieldNames != nil {
		if len(fieldNames) != len(fieldTypes) {
			return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
				len(fieldNames), len(fieldTypes))
		}
		namesCopy = append([]string(nil), fieldNames...)
	}

	return &TupleDescription{
		Types:      append([]types.Type(nil), fieldTypes...),
		FieldNames: namesCopy,
	}, nil
}

// MustTupleDesc is NewTupleDesc for static schemas; it panics on error.
func MustTupleDesc(fieldTypes []types.Type, fieldNames []string) *TupleDescription {
	td, err := NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		panic(err)
	}
	return td
}

func (td *TupleDescription) NumFields() int {
	return len(td.Types)
}

// GetFieldName returns the name of the ith field, or "" when the schema is
// unnamed.
func (td *TupleDescription) GetFieldName(i int) (string, error) {
	if i < 0 || i >= len(td.Types) {
		return "", fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}

	if td.FieldNames == nil {
		return "", nil
	}

	return td.FieldNames[i], nil
}

func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Types) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Types))
	}
	return td.Types[i], nil
}

// GetSize returns the size in bytes of tuples with this schema.
func (td *TupleDescription) GetSize() uint32 {
	var size uint32
	for _, fieldType := range td.Types {
		size += fieldType.Size()
	}
	return size
}

// Equals reports whether both schemas have the same field types in the same
// order. Field names are not compared.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Types) != len(other.Types) {
		return false
	}

	for i, fieldType := range td.Types {
		if fieldType != other.Types[i] {
			return false
		}
	}
	return true
}

// String returns "Type1(fieldName1),Type2(fieldName2),...". Unnamed fields
// print as "null".
func (td *TupleDescription) String() string {
	parts := make([]string, 0, len(td.Types))

	for i, fieldType := range td.Types {
		fieldName := "null"
		if td.FieldNames != nil && td.FieldNames[i] != "" {
			fieldName = td.FieldNames[i]
		}
		parts = append(parts, fmt.Sprintf("%s(%s)", fieldType.String(), fieldName))
	}

	return strings.Join(parts, ",")
}

// FindFieldIndex returns the index of the first field named fieldName.
func (td *TupleDescription) FindFieldIndex(fieldName string) (int, error) {
	for i, name := range td.FieldNames {
		if name == fieldName {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %s not found", fieldName)
}

// WithPrefix returns a copy of the schema with every field name prefixed by
// "prefix.". Unnamed fields become "prefix.null".
func (td *TupleDescription) WithPrefix(prefix string) *TupleDescription {
	names := make([]string, td.NumFields())
	for i := range names {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = "null"
		}
		names[i] = prefix + "." + name
	}
	return &TupleDescription{
		Types:      append([]types.Type(nil), td.Types...),
		FieldNames: names,
	}
}

// Combine merges two TupleDescriptions: all fields of td1 followed by all
// fields of td2. If either descriptor is nil the other is returned.
func Combine(td1, td2 *TupleDescription) *TupleDescription {
	if td1 == nil {
		return td2
	}
	if td2 == nil {
		return td1
	}

	newTypes := make([]types.Type, 0, len(td1.Types)+len(td2.Types))
	newTypes = append(newTypes, td1.Types...)
	newTypes = append(newTypes, td2.Types...)

	var newFieldNames []string
	if td1.FieldNames != nil || td2.FieldNames != nil {
		newFieldNames = make([]string, 0, len(newTypes))
		newFieldNames = appendNames(newFieldNames, td1)
		newFieldNames = appendNames(newFieldNames, td2)
	}

	return &TupleDescription{Types: newTypes, FieldNames: newFieldNames}
}

func appendNames(names []string, td *TupleDescription) []string {
	if td.FieldNames != nil {
		return append(names, td.FieldNames...)
	}
	return append(names, make([]string, len(td.Types))...)
}
