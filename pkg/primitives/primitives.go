package primitives

import "fmt"

// HashCode represents a hash value computed for fast comparisons or lookups.
type HashCode uint64

// TableID identifies a storage unit (heap file). It is derived from the
// canonical path of the backing file, see Filepath.Hash.
type TableID uint64

// PageNumber is the zero-based position of a page within its file.
type PageNumber uint64

// SlotID is the index of a tuple slot within a heap page.
type SlotID uint16

// InvalidTableID marks an unset table identifier.
const InvalidTableID TableID = 0

func (t TableID) IsValid() bool {
	return t != InvalidTableID
}

func (t TableID) String() string {
	return fmt.Sprintf("TableID(%d)", uint64(t))
}

// Permissions is the access mode requested when fetching a page from the
// buffer pool. ReadOnly maps to a shared lock, ReadWrite to an exclusive one.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

func (p Permissions) String() string {
	switch p {
	case ReadOnly:
		return "READ_ONLY"
	case ReadWrite:
		return "READ_WRITE"
	default:
		return "UNKNOWN"
	}
}

// IsExclusive reports whether the permission requires an exclusive lock.
func (p Permissions) IsExclusive() bool {
	return p == ReadWrite
}
