package types

import (
	"heapstore/pkg/primitives"
	"io"
)

// Field is a single typed value inside a tuple.
type Field interface {
	// Serialize writes exactly Type().Size() bytes to w.
	Serialize(w io.Writer) error

	Compare(op primitives.Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	Hash() (primitives.HashCode, error)

	Length() uint32
}
