package types

import (
	"fmt"
	"strings"
)

// Type is the type of a fixed-width field. Every value of a type serializes
// to exactly Size() bytes.
type Type int

const (
	IntType Type = iota
	StringType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Size returns the number of bytes a field of this type occupies on disk.
func (t Type) Size() uint32 {
	switch t {
	case IntType:
		return 8
	case StringType:
		return 4 + StringMaxSize
	default:
		return 0
	}
}

// ParseType maps a type name as written in schema files ("int", "string")
// to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer", "int_type":
		return IntType, nil
	case "string", "str", "text", "string_type":
		return StringType, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", name)
	}
}
