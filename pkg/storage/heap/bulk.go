package heap

import (
	"fmt"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// BulkLoader packs tuples into new pages appended straight to a heap file,
// bypassing the buffer pool. It is meant for offline conversion of data
// into a fresh file; nothing else may access the file while a load runs.
type BulkLoader struct {
	file    *HeapFile
	current *HeapPage
	pages   int
	tuples  int
}

func NewBulkLoader(file *HeapFile) (*BulkLoader, error) {
	b := &BulkLoader{file: file}
	if err := b.startPage(); err != nil {
		return nil, err
	}
	return b, nil
}

// Add places t on the page being filled, writing the page out first when
// it is full. t.RecordID is set to its final location.
func (b *BulkLoader) Add(t *tuple.Tuple) error {
	if !t.TupleDesc.Equals(b.file.tupleDesc) {
		return dberror.NewSchemaMismatch(fmt.Sprintf("tuple %s, table %s", t.TupleDesc, b.file.tupleDesc))
	}

	if b.current.GetNumEmptySlots() == 0 {
		if err := b.Flush(); err != nil {
			return err
		}
	}

	if err := b.current.AddTuple(t); err != nil {
		return err
	}
	b.tuples++
	return nil
}

// Flush writes the page being filled, if it holds any tuple, and starts a
// new one.
func (b *BulkLoader) Flush() error {
	if b.current.GetNumEmptySlots() == b.current.NumSlots() {
		return nil
	}

	pageNo, err := b.file.AllocateNewPage(b.current.GetPageData())
	if err != nil {
		return err
	}
	if want := b.current.GetID().PageNo(); pageNo != want {
		return fmt.Errorf("heap file modified during bulk load: wrote page %d, expected %d", pageNo, want)
	}
	b.pages++
	return b.startPage()
}

// Pages returns the number of pages written so far.
func (b *BulkLoader) Pages() int {
	return b.pages
}

// Tuples returns the number of tuples added so far.
func (b *BulkLoader) Tuples() int {
	return b.tuples
}

func (b *BulkLoader) startPage() error {
	numPages, err := b.file.NumPages()
	if err != nil {
		return err
	}
	hp, err := NewEmptyHeapPage(primitives.NewPageID(b.file.GetID(), numPages), b.file.PageSize(), b.file.tupleDesc)
	if err != nil {
		return err
	}
	b.current = hp
	return nil
}

// BulkLoad appends tuples to file with a BulkLoader and flushes the last page.
func BulkLoad(file *HeapFile, tuples []*tuple.Tuple) error {
	b, err := NewBulkLoader(file)
	if err != nil {
		return err
	}
	for _, t := range tuples {
		if err := b.Add(t); err != nil {
			return err
		}
	}
	return b.Flush()
}
