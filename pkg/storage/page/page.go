package page

import (
	"heapstore/pkg/primitives"
)

const (
	// DefaultPageSize is the page size used when none is configured (4KB).
	DefaultPageSize = 4096
)

// Page is a page resident in the buffer pool. A page is dirty when it has
// been modified in memory by a transaction and not yet written back.
type Page interface {
	// GetID returns the ID of this page
	GetID() primitives.PageID

	// IsDirty returns the transaction that last dirtied this page, or nil if
	// the page is clean.
	IsDirty() *primitives.TransactionID

	// MarkDirty sets or clears the dirty state of this page.
	MarkDirty(dirty bool, tid *primitives.TransactionID)

	// GetPageData returns the exact on-disk image of this page, always
	// page-size bytes long.
	GetPageData() []byte
}
