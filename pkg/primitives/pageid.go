package primitives

import (
	"encoding/binary"
	"fmt"
)

// PageID addresses one page: the storage unit it belongs to and its page
// number within that unit. It is a plain comparable value and can be used
// directly as a map key.
type PageID struct {
	tableID TableID
	pageNo  PageNumber
}

// NewPageID creates a page identifier for page pageNo of table tableID.
func NewPageID(tableID TableID, pageNo PageNumber) PageID {
	return PageID{tableID: tableID, pageNo: pageNo}
}

// GetTableID returns the table this page belongs to.
func (p PageID) GetTableID() TableID {
	return p.tableID
}

// PageNo returns the page number within the table.
func (p PageID) PageNo() PageNumber {
	return p.pageNo
}

// Serialize returns the 16-byte big-endian encoding (table id, page number).
func (p PageID) Serialize() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(p.tableID))
	binary.BigEndian.PutUint64(b[8:16], uint64(p.pageNo))
	return b
}

func (p PageID) Equals(other PageID) bool {
	return p == other
}

// Less orders page ids by table first, then by page number.
func (p PageID) Less(other PageID) bool {
	if p.tableID != other.tableID {
		return p.tableID < other.tableID
	}
	return p.pageNo < other.pageNo
}

func (p PageID) String() string {
	return fmt.Sprintf("PageID(table=%d, page=%d)", uint64(p.tableID), p.pageNo)
}

func (p PageID) HashCode() HashCode {
	return HashCode(uint64(p.tableID)*31 + uint64(p.pageNo))
}
