package tuple

import (
	"fmt"
	"heapstore/pkg/types"
)

// Builder fills a tuple field by field, in schema order. The first error
// sticks and is returned by Build.
type Builder struct {
	tuple *Tuple
	index int
	err   error
}

func NewBuilder(td *TupleDescription) *Builder {
	return &Builder{tuple: NewTuple(td)}
}

func (b *Builder) AddInt(value int64) *Builder {
	return b.AddField(types.NewIntField(value))
}

func (b *Builder) AddString(value string) *Builder {
	return b.AddField(types.NewStringField(value, types.StringMaxSize))
}

func (b *Builder) AddField(field types.Field) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.tuple.SetField(b.index, field); err != nil {
		b.err = err
		return b
	}
	b.index++
	return b
}

// Build returns the tuple once every field has been added.
func (b *Builder) Build() (*Tuple, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.index != b.tuple.TupleDesc.NumFields() {
		return nil, fmt.Errorf("incomplete tuple: set %d of %d fields", b.index, b.tuple.TupleDesc.NumFields())
	}
	return b.tuple, nil
}

func (b *Builder) MustBuild() *Tuple {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
