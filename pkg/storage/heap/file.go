package heap

import (
	"fmt"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/iterator"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// PagePool is the part of the buffer pool a heap file needs: locked,
// cached access to pages.
type PagePool interface {
	GetPage(tid *primitives.TransactionID, pid primitives.PageID, perm primitives.Permissions) (page.Page, error)
}

// HeapFile is an unordered collection of tuples stored in one OS file of
// fixed-size HeapPages. It implements page.DbFile.
//
// Storage Layout:
//   - Each page is exactly PageSize() bytes
//   - Pages are numbered sequentially starting from 0
//   - Page offsets are calculated as: pageNo * PageSize()
type HeapFile struct {
	*page.BaseFile
	tupleDesc *tuple.TupleDescription
	pool      PagePool
}

// NewHeapFile opens or creates the heap file at filename. Tuple access
// through InsertTuple, DeleteTuple and Iterator goes through pool.
func NewHeapFile(filename primitives.Filepath, td *tuple.TupleDescription, pageSize int, pool PagePool) (*HeapFile, error) {
	if td == nil {
		return nil, dberror.NewInvalidArgument("tuple description cannot be nil")
	}
	if NumSlots(pageSize, td) < 1 {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf(
			"page size %d cannot hold a tuple of %d bytes", pageSize, td.GetSize()))
	}

	baseFile, err := page.NewBaseFile(filename, pageSize)
	if err != nil {
		return nil, err
	}

	return &HeapFile{
		BaseFile:  baseFile,
		tupleDesc: td,
		pool:      pool,
	}, nil
}

func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.tupleDesc
}

// SlotsPerPage returns the slot capacity of every page in this file.
func (hf *HeapFile) SlotsPerPage() int {
	return NumSlots(hf.PageSize(), hf.tupleDesc)
}

// ReadPage reads page pid from disk. It performs physical I/O; tuple access
// goes through the buffer pool instead.
func (hf *HeapFile) ReadPage(pid primitives.PageID) (page.Page, error) {
	if err := hf.checkOwnership(pid); err != nil {
		return nil, err
	}

	pageData, err := hf.ReadPageData(pid.PageNo())
	if err != nil {
		return nil, err
	}

	return NewHeapPage(pid, pageData, hf.tupleDesc)
}

// WritePage writes p at its position in the file and syncs.
func (hf *HeapFile) WritePage(p page.Page) error {
	if p == nil {
		return dberror.NewInvalidArgument("page cannot be nil")
	}
	if err := hf.checkOwnership(p.GetID()); err != nil {
		return err
	}

	return hf.WritePageData(p.GetID().PageNo(), p.GetPageData())
}

// InsertTuple stores t in the first page with a free slot. Pages are
// scanned in order with READ_WRITE permission. When every page is full, an
// empty page is appended to the file synchronously and t is inserted into
// its cached copy. The returned page is the one that now holds t; it is
// marked dirty before it changes so the pool never evicts it mid-write.
func (hf *HeapFile) InsertTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]page.Page, error) {
	if !t.TupleDesc.Equals(hf.tupleDesc) {
		return nil, dberror.NewSchemaMismatch(fmt.Sprintf("tuple %s, table %s", t.TupleDesc, hf.tupleDesc))
	}

	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}

	for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
		hp, err := hf.fetch(tid, pageNo, primitives.ReadWrite)
		if err != nil {
			return nil, err
		}
		if hp.GetNumEmptySlots() == 0 {
			continue
		}
		hp.MarkDirty(true, tid)
		if err := hp.AddTuple(t); err != nil {
			return nil, err
		}
		return []page.Page{hp}, nil
	}

	empty, err := NewEmptyHeapPage(primitives.NewPageID(hf.GetID(), numPages), hf.PageSize(), hf.tupleDesc)
	if err != nil {
		return nil, err
	}
	pageNo, err := hf.AllocateNewPage(empty.GetPageData())
	if err != nil {
		return nil, err
	}
	logging.WithTx(tid).WithField("page", uint64(pageNo)).Debug("heap file grew by one page")

	hp, err := hf.fetch(tid, pageNo, primitives.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	if err := hp.AddTuple(t); err != nil {
		return nil, err
	}
	return []page.Page{hp}, nil
}

// DeleteTuple clears the slot addressed by t.RecordID.
func (hf *HeapFile) DeleteTuple(tid *primitives.TransactionID, t *tuple.Tuple) ([]page.Page, error) {
	if t.RecordID == nil {
		return nil, dberror.NewTupleNotFound("tuple has no record id")
	}
	pid := t.RecordID.PageID
	if pid.GetTableID() != hf.GetID() {
		return nil, dberror.NewTupleNotFound(fmt.Sprintf("%s does not belong to table %d", t.RecordID, hf.GetID()))
	}

	numPages, err := hf.NumPages()
	if err != nil {
		return nil, err
	}
	if pid.PageNo() >= numPages {
		return nil, dberror.NewTupleNotFound(fmt.Sprintf("%s is past the end of the file", t.RecordID))
	}

	hp, err := hf.fetch(tid, pid.PageNo(), primitives.ReadWrite)
	if err != nil {
		return nil, err
	}
	hp.MarkDirty(true, tid)
	if err := hp.DeleteTuple(t); err != nil {
		return nil, err
	}
	return []page.Page{hp}, nil
}

// Iterator returns a READ_ONLY cursor over every tuple in the file.
func (hf *HeapFile) Iterator(tid *primitives.TransactionID) iterator.DbFileIterator {
	return NewHeapFileIterator(hf, tid, primitives.ReadOnly)
}

func (hf *HeapFile) fetch(tid *primitives.TransactionID, pageNo primitives.PageNumber, perm primitives.Permissions) (*HeapPage, error) {
	if hf.pool == nil {
		return nil, dberror.NewInvalidArgument("heap file has no buffer pool")
	}

	p, err := hf.pool.GetPage(tid, primitives.NewPageID(hf.GetID(), pageNo), perm)
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		return nil, dberror.NewPageCorrupted(fmt.Sprintf("page %d of table %d is not a heap page", pageNo, hf.GetID()))
	}
	return hp, nil
}

func (hf *HeapFile) checkOwnership(pid primitives.PageID) error {
	if pid.GetTableID() != hf.GetID() {
		return dberror.NewInvalidArgument(fmt.Sprintf("%s does not belong to table %d", pid, hf.GetID()))
	}
	return nil
}
