// Package database ties the catalog, the page store and the table files of
// one instance together. A Database replaces process-wide singletons: every
// component reaches its collaborators through it.
package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"heapstore/pkg/catalog"
	"heapstore/pkg/concurrency/transaction"
	"heapstore/pkg/config"
	dberror "heapstore/pkg/error"
	"heapstore/pkg/execution"
	"heapstore/pkg/logging"
	"heapstore/pkg/memory"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
)

// Database is an open instance rooted at Config.DataDir.
type Database struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	pageStore *memory.PageStore
	txns      *transaction.Registry
	tables    map[string]TableDef
	mutex     sync.RWMutex
	closed    bool

	started atomic.Int64
	commits atomic.Int64
	aborts  atomic.Int64
}

// DatabaseInfo is a point-in-time summary of an instance.
type DatabaseInfo struct {
	DataDir             string
	PageSize            int
	Tables              []string
	TransactionsStarted int64
	ActiveTransactions  int
	Commits             int64
	Aborts              int64
	Pool                memory.Stats
}

// Open creates the data directory if needed and opens every table listed in
// the schema file, when one exists. A nil cfg means config.Default().
func Open(cfg *config.Config) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, dberror.NewInvalidArgument(err.Error())
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, dberror.NewIO(err, "Open", "Database")
	}

	if !logging.IsInitialized() {
		if err := logging.Init(cfg.LoggingConfig()); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	cat := catalog.NewCatalog()
	db := &Database{
		cfg:       cfg,
		catalog:   cat,
		pageStore: memory.NewPageStore(cat, cfg.BufferPages, cfg.LockTimeout),
		txns:      transaction.NewRegistry(),
		tables:    make(map[string]TableDef),
	}

	if err := db.loadSchema(); err != nil {
		_ = cat.Clear()
		return nil, err
	}

	logging.WithComponent("Database").WithField("data_dir", cfg.DataDir).
		WithField("tables", len(db.tables)).Info("database opened")
	return db, nil
}

func (db *Database) loadSchema() error {
	path := db.cfg.CatalogPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	defs, err := LoadSchema(path)
	if err != nil {
		return err
	}

	for _, def := range defs {
		if _, err := db.openTable(def); err != nil {
			return err
		}
	}
	return nil
}

// CreateTable creates a new table file and records the table in the schema
// file. An empty file name defaults to "<name>.dat". The file must not
// already exist with data in it.
func (db *Database) CreateTable(name string, td *tuple.TupleDescription, file, primaryKey string) (*heap.HeapFile, error) {
	if td == nil {
		return nil, dberror.NewInvalidArgument("tuple description cannot be nil")
	}
	if file == "" {
		file = name + ".dat"
	}

	if info, err := os.Stat(db.cfg.TablePath(file)); err == nil && info.Size() > 0 {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("file %s already holds data", file))
	}

	def := TableDef{Name: name, File: file, PrimaryKey: primaryKey, Columns: ColumnsOf(td)}
	hf, err := db.openTable(def)
	if err != nil {
		return nil, err
	}

	if err := db.SaveSchema(); err != nil {
		return nil, err
	}
	return hf, nil
}

// OpenTable registers an existing (or new, empty) table file without
// touching the schema file.
func (db *Database) OpenTable(name string, td *tuple.TupleDescription, file, primaryKey string) (*heap.HeapFile, error) {
	if td == nil {
		return nil, dberror.NewInvalidArgument("tuple description cannot be nil")
	}
	if file == "" {
		file = name + ".dat"
	}
	return db.openTable(TableDef{Name: name, File: file, PrimaryKey: primaryKey, Columns: ColumnsOf(td)})
}

func (db *Database) openTable(def TableDef) (*heap.HeapFile, error) {
	td, err := def.TupleDesc()
	if err != nil {
		return nil, dberror.NewInvalidArgument(err.Error())
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.closed {
		return nil, dberror.NewInvalidArgument("database is closed")
	}
	if _, exists := db.tables[def.Name]; exists {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("table %s is already open", def.Name))
	}

	path := primitives.Filepath(db.cfg.TablePath(def.File))
	hf, err := heap.NewHeapFile(path, td, db.cfg.PageSize, db.pageStore)
	if err != nil {
		return nil, err
	}

	if err := db.catalog.AddTable(hf, def.Name, def.PrimaryKey); err != nil {
		_ = hf.Close()
		return nil, err
	}
	db.tables[def.Name] = def

	logging.WithTable(def.Name).WithField("file", path.String()).Debug("table opened")
	return hf, nil
}

// Table returns the heap file registered under name.
func (db *Database) Table(name string) (*heap.HeapFile, error) {
	id, err := db.catalog.GetTableID(name)
	if err != nil {
		return nil, err
	}

	f, err := db.catalog.GetDbFile(id)
	if err != nil {
		return nil, err
	}

	hf, ok := f.(*heap.HeapFile)
	if !ok {
		return nil, dberror.NewInvalidArgument(fmt.Sprintf("table %s is not a heap file", name))
	}
	return hf, nil
}

// SaveSchema writes the definitions of all open tables to the schema file.
func (db *Database) SaveSchema() error {
	db.mutex.RLock()
	defs := make([]TableDef, 0, len(db.tables))
	for _, def := range db.tables {
		defs = append(defs, def)
	}
	db.mutex.RUnlock()

	path := db.cfg.CatalogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return dberror.NewIO(err, "SaveSchema", "Database")
	}
	if err := os.WriteFile(path, []byte(FormatSchema(defs)), 0o644); err != nil {
		return dberror.NewIO(err, "SaveSchema", "Database")
	}
	return nil
}

// Begin starts a transaction. Nothing is recorded in the page store until
// the first page is requested.
func (db *Database) Begin() *primitives.TransactionID {
	ctx := db.txns.Begin()
	db.started.Add(1)
	logging.WithTx(ctx.ID).Debug("transaction started")
	return ctx.ID
}

// Commit flushes the pages tid dirtied and releases its locks. When the
// flush fails the transaction stays active and still holds its locks.
func (db *Database) Commit(tid *primitives.TransactionID) error {
	ctx := db.txns.GetOrCreate(tid)
	ctx.SetStatus(transaction.Committing)

	if err := db.pageStore.CommitTransaction(tid); err != nil {
		ctx.SetStatus(transaction.Active)
		return err
	}

	db.txns.Finish(tid, transaction.Committed)
	db.commits.Add(1)
	logging.WithTx(tid).WithField("duration", ctx.Duration()).WithField("stats", ctx.Stats()).
		Debug("transaction committed")
	return nil
}

// Abort discards the pages tid dirtied and releases its locks.
func (db *Database) Abort(tid *primitives.TransactionID) error {
	ctx := db.txns.GetOrCreate(tid)
	ctx.SetStatus(transaction.Aborting)

	if err := db.pageStore.AbortTransaction(tid); err != nil {
		ctx.SetStatus(transaction.Active)
		return err
	}

	db.txns.Finish(tid, transaction.Aborted)
	db.aborts.Add(1)
	logging.WithTx(tid).WithField("duration", ctx.Duration()).Debug("transaction aborted")
	return nil
}

// RunInTransaction runs fn in a fresh transaction, committing when fn
// returns nil and aborting otherwise. A failed commit is aborted too. The
// error of fn or of the commit is returned; fn is never re-run.
func (db *Database) RunInTransaction(fn func(tid *primitives.TransactionID) error) error {
	tid := db.Begin()

	if err := fn(tid); err != nil {
		if abortErr := db.Abort(tid); abortErr != nil {
			logging.WithTx(tid).WithError(abortErr).Error("abort failed")
		}
		return err
	}

	if err := db.Commit(tid); err != nil {
		if abortErr := db.Abort(tid); abortErr != nil {
			logging.WithTx(tid).WithError(abortErr).Error("abort after failed commit failed")
		}
		return err
	}
	return nil
}

// Insert adds t to the named table under tid.
func (db *Database) Insert(tid *primitives.TransactionID, table string, t *tuple.Tuple) error {
	id, err := db.catalog.GetTableID(table)
	if err != nil {
		return err
	}
	if err := db.pageStore.InsertTuple(tid, id, t); err != nil {
		return err
	}
	db.txns.GetOrCreate(tid).RecordInsert()
	return nil
}

// Scan returns an unopened sequential scan of the named table under tid.
func (db *Database) Scan(tid *primitives.TransactionID, table, alias string) (*execution.SeqScan, error) {
	id, err := db.catalog.GetTableID(table)
	if err != nil {
		return nil, err
	}
	return execution.NewSeqScan(tid, id, alias, db.catalog)
}

// Delete removes t, identified by its record id, under tid.
func (db *Database) Delete(tid *primitives.TransactionID, t *tuple.Tuple) error {
	if err := db.pageStore.DeleteTuple(tid, t); err != nil {
		return err
	}
	db.txns.GetOrCreate(tid).RecordDelete()
	return nil
}

func (db *Database) Catalog() *catalog.Catalog {
	return db.catalog
}

func (db *Database) PageStore() *memory.PageStore {
	return db.pageStore
}

func (db *Database) Config() *config.Config {
	return db.cfg
}

// Info reports table names, transaction counts and buffer pool stats.
func (db *Database) Info() DatabaseInfo {
	names := db.catalog.TableNames()
	sort.Strings(names)

	return DatabaseInfo{
		DataDir:             db.cfg.DataDir,
		PageSize:            db.cfg.PageSize,
		Tables:              names,
		TransactionsStarted: db.started.Load(),
		ActiveTransactions:  len(db.txns.Active()),
		Commits:             db.commits.Load(),
		Aborts:              db.aborts.Load(),
		Pool:                db.pageStore.Stats(),
	}
}

// Close flushes every cached page and closes all table files. Uncommitted
// work of transactions still running is written too, so callers finish
// their transactions first. Closing twice is a no-op.
func (db *Database) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	flushErr := db.pageStore.Close()
	closeErr := db.catalog.Clear()
	clear(db.tables)

	logging.WithComponent("Database").WithField("data_dir", db.cfg.DataDir).Info("database closed")

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
