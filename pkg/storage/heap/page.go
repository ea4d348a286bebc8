package heap

import (
	"bytes"
	"fmt"
	"sync"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
)

// HeapPage is one fixed-size page of a heap file.
//
// Page layout, for page size P and tuple size T:
//
//	[header: ceil(S/8) bytes][slot 0][slot 1]...[slot S-1][unused]
//
// where S = floor(8P / (8T + 1)) is the number of slots. Bit i of the header
// (byte i/8, least significant bit first) is set iff slot i holds a tuple.
// Slot i starts at byte headerSize + i*T. The bytes of empty slots and the
// unused tail are carried through unchanged when the page is rewritten.
type HeapPage struct {
	pageID     primitives.PageID
	tupleDesc  *tuple.TupleDescription
	data       []byte         // current page image
	tuples     []*tuple.Tuple // decoded tuple per slot, nil when empty
	numSlots   int
	headerSize int
	tupleSize  int
	dirtier    *primitives.TransactionID
	mutex      sync.RWMutex
}

// NumSlots returns how many tuples of schema td fit on a page of pageSize
// bytes, accounting for one header bit per slot.
func NumSlots(pageSize int, td *tuple.TupleDescription) int {
	tupleSize := int(td.GetSize())
	if tupleSize == 0 {
		return 0
	}
	return (pageSize * 8) / (tupleSize*8 + 1)
}

// HeaderSize returns the number of header bytes for numSlots slots.
func HeaderSize(numSlots int) int {
	return (numSlots + 7) / 8
}

// NewEmptyHeapPage creates a page with every slot empty.
func NewEmptyHeapPage(pid primitives.PageID, pageSize int, td *tuple.TupleDescription) (*HeapPage, error) {
	return NewHeapPage(pid, make([]byte, pageSize), td)
}

// NewHeapPage decodes a page image. The image length is the page size. Every
// slot marked occupied must decode as a tuple of schema td, otherwise the
// page is reported as corrupted.
func NewHeapPage(pid primitives.PageID, data []byte, td *tuple.TupleDescription) (*HeapPage, error) {
	numSlots := NumSlots(len(data), td)
	if numSlots < 1 {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf(
			"page size %d cannot hold a tuple of %d bytes", len(data), td.GetSize()))
	}

	hp := &HeapPage{
		pageID:     pid,
		tupleDesc:  td,
		data:       append([]byte(nil), data...),
		tuples:     make([]*tuple.Tuple, numSlots),
		numSlots:   numSlots,
		headerSize: HeaderSize(numSlots),
		tupleSize:  int(td.GetSize()),
	}

	for i := 0; i < numSlots; i++ {
		if !hp.isSlotUsed(i) {
			continue
		}
		t, err := tuple.Parse(td, bytes.NewReader(hp.slotBytes(i)))
		if err != nil {
			return nil, dberror.NewPageCorrupted(fmt.Sprintf("%s slot %d: %v", pid, i, err))
		}
		t.RecordID = tuple.NewRecordID(pid, primitives.SlotID(i))
		hp.tuples[i] = t
	}

	return hp, nil
}

func (hp *HeapPage) GetID() primitives.PageID {
	return hp.pageID
}

func (hp *HeapPage) GetTupleDesc() *tuple.TupleDescription {
	return hp.tupleDesc
}

// IsDirty returns the transaction that last modified this page, or nil.
func (hp *HeapPage) IsDirty() *primitives.TransactionID {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.dirtier
}

func (hp *HeapPage) MarkDirty(dirty bool, tid *primitives.TransactionID) {
	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	if dirty {
		hp.dirtier = tid
	} else {
		hp.dirtier = nil
	}
}

// GetPageData returns a copy of the page image.
func (hp *HeapPage) GetPageData() []byte {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return append([]byte(nil), hp.data...)
}

// NumSlots returns the slot capacity of the page.
func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

func (hp *HeapPage) GetNumEmptySlots() int {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	empty := 0
	for i := 0; i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			empty++
		}
	}
	return empty
}

// IsSlotUsed reports whether slot i holds a tuple.
func (hp *HeapPage) IsSlotUsed(i int) bool {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()
	return hp.isSlotUsed(i)
}

// AddTuple stores a copy of t in the lowest-numbered empty slot and sets
// t.RecordID. Later changes to t do not reach the page.
func (hp *HeapPage) AddTuple(t *tuple.Tuple) error {
	if !t.TupleDesc.Equals(hp.tupleDesc) {
		return dberror.NewSchemaMismatch(fmt.Sprintf("tuple %s, page %s", t.TupleDesc, hp.tupleDesc))
	}

	encoded, err := t.Bytes()
	if err != nil {
		return dberror.NewInvalidArgument(err.Error())
	}

	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	slot := -1
	for i := 0; i < hp.numSlots; i++ {
		if !hp.isSlotUsed(i) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return dberror.NewPageFull(hp.pageID.String())
	}

	stored, err := tuple.Parse(hp.tupleDesc, bytes.NewReader(encoded))
	if err != nil {
		return dberror.NewInvalidArgument(err.Error())
	}
	stored.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(slot))

	copy(hp.slotBytes(slot), encoded)
	hp.setSlot(slot, true)
	hp.tuples[slot] = stored
	t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(slot))
	return nil
}

// DeleteTuple clears the slot addressed by t.RecordID. The slot bytes are
// left in place; only the header bit changes.
func (hp *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	rid := t.RecordID
	if rid == nil {
		return dberror.NewTupleNotFound("tuple has no record id")
	}
	if rid.PageID != hp.pageID {
		return dberror.NewTupleNotFound(fmt.Sprintf("%s is not on %s", rid, hp.pageID))
	}

	hp.mutex.Lock()
	defer hp.mutex.Unlock()

	slot := int(rid.Slot)
	if slot >= hp.numSlots || !hp.isSlotUsed(slot) {
		return dberror.NewTupleNotFound(fmt.Sprintf("slot %d of %s is not occupied", slot, hp.pageID))
	}

	hp.setSlot(slot, false)
	hp.tuples[slot] = nil
	t.RecordID = nil
	return nil
}

// GetTuples returns copies of the stored tuples in slot order, each with its
// own record id.
func (hp *HeapPage) GetTuples() []*tuple.Tuple {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	tuples := make([]*tuple.Tuple, 0, hp.numSlots)
	for i := range hp.tuples {
		if t := hp.tupleCopy(i); t != nil {
			tuples = append(tuples, t)
		}
	}
	return tuples
}

// GetTupleAt returns a copy of the tuple in slot idx, or nil if the slot is
// empty.
func (hp *HeapPage) GetTupleAt(idx int) (*tuple.Tuple, error) {
	hp.mutex.RLock()
	defer hp.mutex.RUnlock()

	if idx < 0 || idx >= hp.numSlots {
		return nil, fmt.Errorf("slot index %d out of bounds [0, %d)", idx, hp.numSlots)
	}
	return hp.tupleCopy(idx), nil
}

// Iterator returns a cursor over the tuples currently on the page.
func (hp *HeapPage) Iterator() *tuple.Iterator {
	return tuple.NewIterator(hp.GetTuples(), hp.tupleDesc)
}

func (hp *HeapPage) tupleCopy(i int) *tuple.Tuple {
	stored := hp.tuples[i]
	if stored == nil {
		return nil
	}
	t := stored.Clone()
	t.RecordID = tuple.NewRecordID(hp.pageID, primitives.SlotID(i))
	return t
}

func (hp *HeapPage) isSlotUsed(i int) bool {
	if i < 0 || i >= hp.numSlots {
		return false
	}
	return hp.data[i/8]&(1<<(uint(i)%8)) != 0
}

func (hp *HeapPage) setSlot(i int, used bool) {
	mask := byte(1 << (uint(i) % 8))
	if used {
		hp.data[i/8] |= mask
	} else {
		hp.data[i/8] &^= mask
	}
}

func (hp *HeapPage) slotBytes(i int) []byte {
	start := hp.headerSize + i*hp.tupleSize
	return hp.data[start : start+hp.tupleSize]
}
