package error

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBError_Is(t *testing.T) {
	err := NewTransactionAborted("lock wait on page 3 timed out")
	wrapped := fmt.Errorf("insert failed: %w", err)

	assert.True(t, errors.Is(err, ErrTransactionAborted))
	assert.True(t, errors.Is(wrapped, ErrTransactionAborted))
	assert.False(t, errors.Is(wrapped, ErrIO))
	assert.True(t, IsTransactionAborted(wrapped))
}

func TestDBError_Categories(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
	}{
		{"aborted", NewTransactionAborted("x"), ErrCategoryConcurrency, true},
		{"cache", NewCacheExhausted("x"), ErrCategoryTransient, true},
		{"io", NewIO(io.ErrUnexpectedEOF, "ReadPage", "HeapFile"), ErrCategorySystem, false},
		{"schema", NewSchemaMismatch("x"), ErrCategoryUser, false},
		{"corrupt", NewPageCorrupted("x"), ErrCategoryData, false},
		{"plain error", errors.New("boom"), ErrCategorySystem, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, CategoryOf(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
	assert.False(t, IsRetryable(nil))
}

func TestDBError_Format(t *testing.T) {
	err := NewIO(io.ErrUnexpectedEOF, "FlushPage", "PageStore")

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "[IO_ERROR] i/o failure"))
	assert.Contains(t, msg, "operation: FlushPage, component: PageStore")
	assert.Contains(t, msg, io.ErrUnexpectedEOF.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.FormatStack(), "Stack trace:")
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeIO, "op", "comp"))

	base := errors.New("disk gone")
	wrapped := Wrap(base, CodeIO, "WritePage", "HeapFile")
	assert.Equal(t, CodeIO, wrapped.Code)
	assert.Equal(t, ErrCategorySystem, wrapped.Category)
	assert.Equal(t, base, wrapped.Unwrap())

	existing := NewTupleNotFound("slot 4")
	again := Wrap(existing, CodeIO, "DeleteTuple", "HeapPage")
	assert.Same(t, existing, again)
	assert.Equal(t, CodeTupleNotFound, again.Code)
	assert.Equal(t, "DeleteTuple", again.Operation)
}
