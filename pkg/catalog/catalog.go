// Package catalog keeps the registry of open tables: their names, storage
// files and schemas.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/logging"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/page"
	"heapstore/pkg/tuple"
)

// TableInfo holds metadata about a table.
type TableInfo struct {
	File       page.DbFile
	Name       string
	PrimaryKey string
}

func (ti *TableInfo) GetID() primitives.TableID {
	return ti.File.GetID()
}

func (ti *TableInfo) GetTupleDesc() *tuple.TupleDescription {
	return ti.File.GetTupleDesc()
}

// Catalog maps table names and IDs to their files. It is safe for
// concurrent use.
type Catalog struct {
	nameToTable map[string]*TableInfo
	idToTable   map[primitives.TableID]*TableInfo
	mutex       sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{
		nameToTable: make(map[string]*TableInfo),
		idToTable:   make(map[primitives.TableID]*TableInfo),
	}
}

// AddTable registers f under name. A table already registered under the
// same name or the same ID is replaced; its file is left open.
func (c *Catalog) AddTable(f page.DbFile, name, primaryKey string) error {
	if f == nil {
		return dberror.NewInvalidArgument("file cannot be nil")
	}
	if strings.TrimSpace(name) == "" {
		return dberror.NewInvalidArgument("table name cannot be empty")
	}
	if primaryKey != "" {
		if _, err := f.GetTupleDesc().FindFieldIndex(primaryKey); err != nil {
			return dberror.NewInvalidArgument(fmt.Sprintf("primary key %q is not a column of %s", primaryKey, name))
		}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	info := &TableInfo{File: f, Name: name, PrimaryKey: primaryKey}
	id := f.GetID()

	c.removeExistingTable(name, id)
	c.nameToTable[name] = info
	c.idToTable[id] = info

	logging.WithTable(name).WithField("table_id", uint64(id)).Debug("table registered")
	return nil
}

func (c *Catalog) GetTableID(name string) (primitives.TableID, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info, exists := c.nameToTable[name]
	if !exists {
		return primitives.InvalidTableID, dberror.NewTableNotFound(fmt.Sprintf("table %q", name))
	}
	return info.GetID(), nil
}

func (c *Catalog) GetTableName(id primitives.TableID) (string, error) {
	info, err := c.GetTableInfo(id)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// GetTupleDesc returns the schema of table id.
func (c *Catalog) GetTupleDesc(id primitives.TableID) (*tuple.TupleDescription, error) {
	info, err := c.GetTableInfo(id)
	if err != nil {
		return nil, err
	}
	return info.GetTupleDesc(), nil
}

func (c *Catalog) GetDbFile(id primitives.TableID) (page.DbFile, error) {
	info, err := c.GetTableInfo(id)
	if err != nil {
		return nil, err
	}
	return info.File, nil
}

func (c *Catalog) GetPrimaryKey(id primitives.TableID) (string, error) {
	info, err := c.GetTableInfo(id)
	if err != nil {
		return "", err
	}
	return info.PrimaryKey, nil
}

func (c *Catalog) GetTableInfo(id primitives.TableID) (*TableInfo, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	info, exists := c.idToTable[id]
	if !exists {
		return nil, dberror.NewTableNotFound(id.String())
	}
	return info, nil
}

func (c *Catalog) TableExists(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.nameToTable[name]
	return exists
}

// TableNames returns the registered table names in sorted order.
func (c *Catalog) TableNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.nameToTable))
	for name := range c.nameToTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveTable unregisters name and closes its file.
func (c *Catalog) RemoveTable(name string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	info, exists := c.nameToTable[name]
	if !exists {
		return dberror.NewTableNotFound(fmt.Sprintf("table %q", name))
	}

	delete(c.nameToTable, name)
	delete(c.idToTable, info.GetID())
	return info.File.Close()
}

// Clear unregisters every table and closes their files. Close errors are
// logged and the first one is returned.
func (c *Catalog) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var firstErr error
	for _, info := range c.idToTable {
		if err := info.File.Close(); err != nil {
			logging.WithTable(info.Name).WithError(err).Warn("failed to close table file")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	clear(c.nameToTable)
	clear(c.idToTable)
	return firstErr
}

// ValidateIntegrity checks that the name and ID indexes agree.
func (c *Catalog) ValidateIntegrity() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if len(c.nameToTable) != len(c.idToTable) {
		return fmt.Errorf("catalog integrity violation: map size mismatch")
	}

	for name, info := range c.nameToTable {
		if other, exists := c.idToTable[info.GetID()]; !exists || other != info {
			return fmt.Errorf("catalog integrity violation: table %s missing from ID map", name)
		}
	}
	return nil
}

// removeExistingTable drops any entry sharing name or id. Caller holds the write lock.
func (c *Catalog) removeExistingTable(name string, id primitives.TableID) {
	if existing, exists := c.nameToTable[name]; exists {
		delete(c.idToTable, existing.GetID())
	}
	if existing, exists := c.idToTable[id]; exists {
		delete(c.nameToTable, existing.Name)
	}
}
