package page

import (
	"fmt"
	"os"
	"sync"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
)

// BaseFile provides the page-granular file I/O shared by storage units.
//
// Pages are never partially written: every write covers exactly one page at
// offset pageNo*pageSize followed by an fsync, so the file length is always a
// multiple of the page size. A file whose length is not such a multiple is
// reported as corrupted.
//
// Thread-safety: All public methods take the internal read/write lock.
type BaseFile struct {
	file     *os.File
	tableID  primitives.TableID
	pageSize int
	mutex    sync.RWMutex
	filePath primitives.Filepath
}

// NewBaseFile opens (creating if necessary) the file at filePath. The id of
// the file is the hash of its canonical path, so the same file opened twice
// yields the same id.
func NewBaseFile(filePath primitives.Filepath, pageSize int) (*BaseFile, error) {
	if filePath.IsEmpty() {
		return nil, dberror.NewInvalidArgument("file path cannot be empty")
	}
	if pageSize <= 0 {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("invalid page size %d", pageSize))
	}

	canonical, err := filePath.Canonical()
	if err != nil {
		return nil, dberror.NewIO(err, "NewBaseFile", "BaseFile")
	}

	file, err := os.OpenFile(canonical.String(), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberror.NewIO(err, "NewBaseFile", "BaseFile")
	}

	return &BaseFile{
		file:     file,
		tableID:  canonical.Hash(),
		pageSize: pageSize,
		filePath: canonical,
	}, nil
}

// GetID returns the identity derived from the file's canonical path.
func (bf *BaseFile) GetID() primitives.TableID {
	return bf.tableID
}

func (bf *BaseFile) PageSize() int {
	return bf.pageSize
}

// FilePath returns the canonical path of the file.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns file length / page size.
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()
	return bf.numPages()
}

func (bf *BaseFile) numPages() (primitives.PageNumber, error) {
	if bf.file == nil {
		return 0, dberror.NewIO(os.ErrClosed, "NumPages", "BaseFile")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, dberror.NewIO(err, "NumPages", "BaseFile")
	}

	size := fileInfo.Size()
	if size%int64(bf.pageSize) != 0 {
		return 0, dberror.NewPageCorrupted(fmt.Sprintf(
			"%s: length %d is not a multiple of page size %d", bf.filePath, size, bf.pageSize))
	}

	return primitives.PageNumber(size / int64(bf.pageSize)), nil
}

// ReadPageData reads exactly one page-size image of page pageNo.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	numPages, err := bf.numPages()
	if err != nil {
		return nil, err
	}
	if pageNo >= numPages {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf(
			"page %d does not exist in %s (%d pages)", pageNo, bf.filePath, numPages))
	}

	pageData := make([]byte, bf.pageSize)
	offset := int64(pageNo) * int64(bf.pageSize)

	if _, err := bf.file.ReadAt(pageData, offset); err != nil {
		return nil, dberror.NewIO(err, "ReadPageData", "BaseFile")
	}
	return pageData, nil
}

// WritePageData writes one page image at offset pageNo*pageSize and syncs
// the file before returning.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return dberror.NewIO(os.ErrClosed, "WritePageData", "BaseFile")
	}

	if len(pageData) != bf.pageSize {
		return dberror.NewInvalidArgument(fmt.Sprintf(
			"invalid page data size: expected %d, got %d", bf.pageSize, len(pageData)))
	}

	offset := int64(pageNo) * int64(bf.pageSize)
	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return dberror.NewIO(err, "WritePageData", "BaseFile")
	}

	if err := bf.file.Sync(); err != nil {
		return dberror.NewIO(err, "WritePageData", "BaseFile")
	}

	return nil
}

// AllocateNewPage appends image as a new page at the end of the file and
// returns its page number. The write is synchronous and happens under the
// write lock, so concurrent callers always receive distinct page numbers.
func (bf *BaseFile) AllocateNewPage(image []byte) (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if len(image) != bf.pageSize {
		return 0, dberror.NewInvalidArgument(fmt.Sprintf(
			"invalid page data size: expected %d, got %d", bf.pageSize, len(image)))
	}

	pageNo, err := bf.numPages()
	if err != nil {
		return 0, err
	}

	offset := int64(pageNo) * int64(bf.pageSize)
	if _, err := bf.file.WriteAt(image, offset); err != nil {
		return 0, dberror.NewIO(err, "AllocateNewPage", "BaseFile")
	}

	if err := bf.file.Sync(); err != nil {
		return 0, dberror.NewIO(err, "AllocateNewPage", "BaseFile")
	}

	return pageNo, nil
}

// Close closes the underlying file handle. Closing twice is a no-op.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}
