package error

import "errors"

// Error codes raised by the storage engine.
const (
	CodeSchemaMismatch     = "SCHEMA_MISMATCH"
	CodePageFull           = "PAGE_FULL"
	CodeTupleNotFound      = "TUPLE_NOT_FOUND"
	CodeTransactionAborted = "TRANSACTION_ABORTED"
	CodeIO                 = "IO_ERROR"
	CodeCacheExhausted     = "CACHE_EXHAUSTED"
	CodeNoSuchElement      = "NO_SUCH_ELEMENT"
	CodePageCorrupted      = "PAGE_CORRUPTED"
	CodeTableNotFound      = "TABLE_NOT_FOUND"
	CodeIteratorClosed     = "ITERATOR_CLOSED"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
)

var codeCategories = map[string]ErrorCategory{
	CodeSchemaMismatch:     ErrCategoryUser,
	CodePageFull:           ErrCategoryUser,
	CodeTupleNotFound:      ErrCategoryUser,
	CodeTransactionAborted: ErrCategoryConcurrency,
	CodeIO:                 ErrCategorySystem,
	CodeCacheExhausted:     ErrCategoryTransient,
	CodeNoSuchElement:      ErrCategoryUser,
	CodePageCorrupted:      ErrCategoryData,
	CodeTableNotFound:      ErrCategoryUser,
	CodeIteratorClosed:     ErrCategoryUser,
	CodeInvalidArgument:    ErrCategoryUser,
}

func categoryOf(code string) ErrorCategory {
	if c, ok := codeCategories[code]; ok {
		return c
	}
	return ErrCategorySystem
}

// Sentinels for errors.Is. They carry no stack and must not be returned
// directly; use the constructors below.
var (
	ErrSchemaMismatch     = &DBError{Code: CodeSchemaMismatch}
	ErrPageFull           = &DBError{Code: CodePageFull}
	ErrTupleNotFound      = &DBError{Code: CodeTupleNotFound}
	ErrTransactionAborted = &DBError{Code: CodeTransactionAborted}
	ErrIO                 = &DBError{Code: CodeIO}
	ErrCacheExhausted     = &DBError{Code: CodeCacheExhausted}
	ErrNoSuchElement      = &DBError{Code: CodeNoSuchElement}
	ErrPageCorrupted      = &DBError{Code: CodePageCorrupted}
	ErrTableNotFound      = &DBError{Code: CodeTableNotFound}
	ErrIteratorClosed     = &DBError{Code: CodeIteratorClosed}
	ErrInvalidArgument    = &DBError{Code: CodeInvalidArgument}
)

func newCoded(code, message string) *DBError {
	return New(categoryOf(code), code, message)
}

func NewSchemaMismatch(detail string) *DBError {
	return newCoded(CodeSchemaMismatch, "tuple schema does not match table schema").WithDetail("%s", detail)
}

func NewPageFull(detail string) *DBError {
	return newCoded(CodePageFull, "no free slot on page").WithDetail("%s", detail)
}

func NewTupleNotFound(detail string) *DBError {
	return newCoded(CodeTupleNotFound, "tuple not found").WithDetail("%s", detail)
}

// NewTransactionAborted reports a transaction that must be aborted by its
// caller, typically after a lock wait timed out.
func NewTransactionAborted(detail string) *DBError {
	return newCoded(CodeTransactionAborted, "transaction aborted").
		WithDetail("%s", detail).
		WithHint("abort the transaction and run it again")
}

func NewCacheExhausted(detail string) *DBError {
	return newCoded(CodeCacheExhausted, "buffer pool exhausted").
		WithDetail("%s", detail).
		WithHint("commit or abort transactions holding dirty pages, or raise buffer_pages")
}

func NewNoSuchElement(detail string) *DBError {
	return newCoded(CodeNoSuchElement, "no more elements").WithDetail("%s", detail)
}

func NewPageCorrupted(detail string) *DBError {
	return newCoded(CodePageCorrupted, "malformed page").WithDetail("%s", detail)
}

func NewTableNotFound(detail string) *DBError {
	return newCoded(CodeTableNotFound, "table not found").WithDetail("%s", detail)
}

func NewIteratorClosed(detail string) *DBError {
	return newCoded(CodeIteratorClosed, "iterator not open").WithDetail("%s", detail)
}

func NewInvalidArgument(detail string) *DBError {
	return newCoded(CodeInvalidArgument, "invalid argument").WithDetail("%s", detail)
}

// NewIO wraps an underlying file system error.
func NewIO(cause error, operation, component string) *DBError {
	e := newCoded(CodeIO, "i/o failure")
	e.Cause = cause
	return e.At(operation, component)
}

// CategoryOf returns the category of the first DBError in err's chain.
// Errors that are not DBErrors are classified as system errors.
func CategoryOf(err error) ErrorCategory {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Category
	}
	return ErrCategorySystem
}

// IsRetryable reports whether re-running the failed operation or
// transaction may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch CategoryOf(err) {
	case ErrCategoryTransient, ErrCategoryConcurrency:
		return true
	default:
		return false
	}
}

// IsTransactionAborted is shorthand for errors.Is(err, ErrTransactionAborted).
func IsTransactionAborted(err error) bool {
	return errors.Is(err, ErrTransactionAborted)
}
