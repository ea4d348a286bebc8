package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseField reads one field of fieldType from r. It consumes exactly
// fieldType.Size() bytes on success.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	size := fieldType.Size()
	if size == 0 {
		return nil, fmt.Errorf("invalid field type size: %v", fieldType)
	}

	switch fieldType {
	case IntType:
		return parseIntField(r, size)

	case StringType:
		return parseStringField(r)

	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}

func parseIntField(r io.Reader, size uint32) (*IntField, error) {
	b, err := readBytes(r, size)
	if err != nil {
		return nil, err
	}
	return NewIntField(int64(binary.BigEndian.Uint64(b))), nil // #nosec G115
}

// parseStringField reads a length-prefixed, zero-padded string. A length
// prefix larger than StringMaxSize means the bytes are not a string field.
func parseStringField(r io.Reader) (*StringField, error) {
	lengthBytes, err := readBytes(r, 4)
	if err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lengthBytes)
	if length > StringMaxSize {
		return nil, fmt.Errorf("string length %d exceeds maximum %d", length, StringMaxSize)
	}

	body, err := readBytes(r, StringMaxSize)
	if err != nil {
		return nil, err
	}

	return NewStringField(string(body[:length]), StringMaxSize), nil
}

// CreateFieldFromConstant builds a field of type t from its textual form,
// as found in CSV input or on the command line.
func CreateFieldFromConstant(t Type, constant string) (Field, error) {
	switch t {
	case IntType:
		v, err := strconv.ParseInt(strings.TrimSpace(constant), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", constant, err)
		}
		return NewIntField(v), nil

	case StringType:
		return NewStringField(constant, StringMaxSize), nil

	default:
		return nil, fmt.Errorf("unsupported field type: %v", t)
	}
}
