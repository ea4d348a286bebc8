package primitives

import (
	"fmt"
	"sync/atomic"
)

var transactionCounter int64

// TransactionID is an opaque transaction identity. Two ids are equal only if
// they were produced by the same call to NewTransactionID.
type TransactionID struct {
	id int64
}

// NewTransactionID returns a fresh, process-unique transaction id.
func NewTransactionID() *TransactionID {
	return &TransactionID{
		id: atomic.AddInt64(&transactionCounter, 1),
	}
}

func (tid *TransactionID) ID() int64 {
	return tid.id
}

func (tid *TransactionID) String() string {
	if tid == nil {
		return "TID-nil"
	}
	return fmt.Sprintf("TID-%d", tid.id)
}

func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}
