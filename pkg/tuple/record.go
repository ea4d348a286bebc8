package tuple

import (
	"fmt"
	"heapstore/pkg/primitives"
)

// RecordID is the physical address of a stored tuple: the page holding it
// and the slot within that page.
type RecordID struct {
	PageID primitives.PageID
	Slot   primitives.SlotID
}

func NewRecordID(pageID primitives.PageID, slot primitives.SlotID) *RecordID {
	return &RecordID{
		PageID: pageID,
		Slot:   slot,
	}
}

func (rid *RecordID) Equals(other *RecordID) bool {
	if rid == nil || other == nil {
		return rid == other
	}
	return rid.PageID == other.PageID && rid.Slot == other.Slot
}

func (rid *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%s, slot=%d)", rid.PageID.String(), rid.Slot)
}
