package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"heapstore/pkg/config"
	dberror "heapstore/pkg/error"
	"heapstore/pkg/iterator"
	"heapstore/pkg/primitives"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	// five tuples of two int fields per page
	cfg.PageSize = 96
	cfg.BufferPages = 10
	cfg.LockTimeout = 100 * time.Millisecond
	return cfg
}

func openTestDB(t *testing.T, cfg *config.Config) *Database {
	t.Helper()
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func pairDesc() *tuple.TupleDescription {
	return tuple.MustTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"id", "value"})
}

func pair(id, value int64) *tuple.Tuple {
	return tuple.NewBuilder(pairDesc()).AddInt(id).AddInt(value).MustBuild()
}

func scanIDs(t *testing.T, db *Database, table string) []int64 {
	t.Helper()

	var out []int64
	err := db.RunInTransaction(func(tid *primitives.TransactionID) error {
		scan, err := db.Scan(tid, table, "")
		if err != nil {
			return err
		}
		if err := scan.Open(); err != nil {
			return err
		}
		defer scan.Close()

		return iterator.ForEach(scan, func(tup *tuple.Tuple) error {
			f, err := tup.GetField(0)
			if err != nil {
				return err
			}
			out = append(out, f.(*types.IntField).Value)
			return nil
		})
	})
	require.NoError(t, err)
	return out
}

func TestOpen_CreatesDataDir(t *testing.T) {
	cfg := testConfig(t)
	db := openTestDB(t, cfg)

	info, err := os.Stat(cfg.DataDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Empty(t, db.Info().Tables)
	assert.Same(t, cfg, db.Config())
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.BufferPages = 0

	_, err := Open(cfg)
	assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
}

func TestCreateTable_InsertAndScan(t *testing.T) {
	db := openTestDB(t, testConfig(t))

	hf, err := db.CreateTable("pairs", pairDesc(), "", "id")
	require.NoError(t, err)
	assert.Equal(t, 5, hf.SlotsPerPage())

	err = db.RunInTransaction(func(tid *primitives.TransactionID) error {
		for i := int64(1); i <= 7; i++ {
			if err := db.Insert(tid, "pairs", pair(i, i*10)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	numPages, err := hf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(2), numPages)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, scanIDs(t, db, "pairs"))

	info := db.Info()
	assert.Equal(t, []string{"pairs"}, info.Tables)
	assert.Equal(t, int64(2), info.Commits)
	assert.Equal(t, int64(2), info.TransactionsStarted)
	assert.Zero(t, info.ActiveTransactions)
}

func TestInfo_ActiveTransactions(t *testing.T) {
	db := openTestDB(t, testConfig(t))
	_, err := db.CreateTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	tid := db.Begin()
	require.NoError(t, db.Insert(tid, "pairs", pair(1, 10)))
	assert.Equal(t, 1, db.Info().ActiveTransactions)

	require.NoError(t, db.Abort(tid))
	info := db.Info()
	assert.Zero(t, info.ActiveTransactions)
	assert.Equal(t, int64(1), info.Aborts)
}

func TestCreateTable_SurvivesReopen(t *testing.T) {
	cfg := testConfig(t)

	db, err := Open(cfg)
	require.NoError(t, err)
	_, err = db.CreateTable("pairs", pairDesc(), "pairs.dat", "id")
	require.NoError(t, err)
	require.NoError(t, db.RunInTransaction(func(tid *primitives.TransactionID) error {
		return db.Insert(tid, "pairs", pair(1, 10))
	}))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = os.Stat(cfg.CatalogPath())
	require.NoError(t, err)

	reopened := openTestDB(t, cfg)
	assert.True(t, reopened.Catalog().TableExists("pairs"))
	assert.Equal(t, []int64{1}, scanIDs(t, reopened, "pairs"))

	id, err := reopened.Catalog().GetTableID("pairs")
	require.NoError(t, err)
	pk, err := reopened.Catalog().GetPrimaryKey(id)
	require.NoError(t, err)
	assert.Equal(t, "id", pk)
}

func TestCreateTable_Errors(t *testing.T) {
	cfg := testConfig(t)
	db := openTestDB(t, cfg)

	_, err := db.CreateTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := db.CreateTable("pairs", pairDesc(), "other.dat", "")
		assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
	})

	t.Run("nil schema", func(t *testing.T) {
		_, err := db.CreateTable("x", nil, "", "")
		assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
	})

	t.Run("unknown primary key", func(t *testing.T) {
		_, err := db.CreateTable("y", pairDesc(), "", "missing")
		assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
	})

	t.Run("file holds data", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "full.dat"), make([]byte, 96), 0o644))
		_, err := db.CreateTable("full", pairDesc(), "full.dat", "")
		assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
	})
}

func TestOpenTable_ExistingFile(t *testing.T) {
	cfg := testConfig(t)
	db := openTestDB(t, cfg)

	hf, err := db.OpenTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	got, err := db.Table("pairs")
	require.NoError(t, err)
	assert.Same(t, hf, got)

	_, err = db.Table("missing")
	assert.True(t, errors.Is(err, dberror.ErrTableNotFound))

	_, err = os.Stat(cfg.CatalogPath())
	assert.True(t, os.IsNotExist(err))
}

func TestRunInTransaction_AbortsOnError(t *testing.T) {
	db := openTestDB(t, testConfig(t))
	_, err := db.CreateTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.RunInTransaction(func(tid *primitives.TransactionID) error {
		if err := db.Insert(tid, "pairs", pair(1, 10)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, scanIDs(t, db, "pairs"))
	assert.Equal(t, int64(1), db.Info().Aborts)
}

func TestRunInTransaction_LockTimeoutAborts(t *testing.T) {
	db := openTestDB(t, testConfig(t))
	_, err := db.CreateTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	writer := db.Begin()
	require.NoError(t, db.Insert(writer, "pairs", pair(1, 10)))

	start := time.Now()
	err = db.RunInTransaction(func(tid *primitives.TransactionID) error {
		return db.Insert(tid, "pairs", pair(2, 20))
	})
	assert.True(t, dberror.IsTransactionAborted(err), "got %v", err)
	assert.True(t, dberror.IsRetryable(err))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	require.NoError(t, db.Commit(writer))
	assert.Equal(t, []int64{1}, scanIDs(t, db, "pairs"))
}

func TestInsert_Errors(t *testing.T) {
	db := openTestDB(t, testConfig(t))
	_, err := db.CreateTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	tid := db.Begin()
	defer func() { require.NoError(t, db.Abort(tid)) }()

	err = db.Insert(tid, "missing", pair(1, 1))
	assert.True(t, errors.Is(err, dberror.ErrTableNotFound))

	wrong := tuple.NewBuilder(tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"id"})).AddInt(1).MustBuild()
	err = db.Insert(tid, "pairs", wrong)
	assert.True(t, errors.Is(err, dberror.ErrSchemaMismatch))
}

func TestDelete(t *testing.T) {
	db := openTestDB(t, testConfig(t))
	_, err := db.CreateTable("pairs", pairDesc(), "", "")
	require.NoError(t, err)

	first, second := pair(1, 10), pair(2, 20)
	require.NoError(t, db.RunInTransaction(func(tid *primitives.TransactionID) error {
		if err := db.Insert(tid, "pairs", first); err != nil {
			return err
		}
		return db.Insert(tid, "pairs", second)
	}))
	require.NotNil(t, first.RecordID)

	require.NoError(t, db.RunInTransaction(func(tid *primitives.TransactionID) error {
		return db.Delete(tid, first)
	}))
	assert.Equal(t, []int64{2}, scanIDs(t, db, "pairs"))
}

func TestClose_RejectsNewTables(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.OpenTable("pairs", pairDesc(), "", "")
	assert.True(t, errors.Is(err, dberror.ErrInvalidArgument))
}
