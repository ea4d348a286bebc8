package transaction

import (
	"sync"
	"testing"
	"time"

	"heapstore/pkg/primitives"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{Active, "ACTIVE"},
		{Committing, "COMMITTING"},
		{Aborting, "ABORTING"},
		{Committed, "COMMITTED"},
		{Aborted, "ABORTED"},
		{Status(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestContext_Lifecycle(t *testing.T) {
	ctx := NewContext(primitives.NewTransactionID())
	assert.True(t, ctx.IsActive())

	ctx.RecordInsert()
	ctx.RecordInsert()
	ctx.RecordDelete()
	assert.Equal(t, Stats{TuplesInserted: 2, TuplesDeleted: 1}, ctx.Stats())
	assert.Contains(t, ctx.String(), "inserted=2")

	ctx.SetStatus(Committing)
	assert.False(t, ctx.IsActive())
	assert.Equal(t, Committing, ctx.Status())

	ctx.SetStatus(Committed)
	d := ctx.Duration()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, d, ctx.Duration(), "duration is frozen once ended")
}

func TestRegistry_BeginFinish(t *testing.T) {
	r := NewRegistry()
	a := r.Begin()
	b := r.Begin()
	assert.False(t, a.ID.Equals(b.ID))
	assert.Equal(t, 2, r.Count())

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	b.SetStatus(Committing)
	assert.Len(t, r.Active(), 1)

	ended := r.Finish(a.ID, Aborted)
	require.NotNil(t, ended)
	assert.Equal(t, Aborted, ended.Status())
	assert.Equal(t, 1, r.Count())

	_, err = r.Get(a.ID)
	assert.Error(t, err)
	assert.Nil(t, r.Finish(a.ID, Aborted))
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	tid := primitives.NewTransactionID()

	first := r.GetOrCreate(tid)
	assert.Same(t, first, r.GetOrCreate(tid))
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := r.Begin()
			ctx.RecordInsert()
			r.Finish(ctx.ID, Committed)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}
