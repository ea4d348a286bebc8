package heapreader

import (
	"path/filepath"
	"testing"

	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
	"heapstore/pkg/tuple"
	"heapstore/pkg/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// five slots of two int fields per page
const testPageSize = 96

func loadedFile(t *testing.T, rows int) *heap.HeapFile {
	t.Helper()

	td := tuple.MustTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"id", "value"})
	hf, err := heap.NewHeapFile(primitives.Filepath(filepath.Join(t.TempDir(), "t.dat")), td, testPageSize, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hf.Close() })

	tuples := make([]*tuple.Tuple, rows)
	for i := range tuples {
		tuples[i] = tuple.NewBuilder(td).AddInt(int64(i)).AddInt(int64(i * 10)).MustBuild()
	}
	require.NoError(t, heap.BulkLoad(hf, tuples))
	return hf
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestSummarizeFile(t *testing.T) {
	hf := loadedFile(t, 7)

	summaries, err := SummarizeFile(hf)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, PageSummary{PageNo: 0, NumSlots: 5, UsedSlots: 5, FreeSlots: 0, HeaderBytes: 1}, summaries[0])
	assert.Equal(t, PageSummary{PageNo: 1, NumSlots: 5, UsedSlots: 2, FreeSlots: 3, HeaderBytes: 1}, summaries[1])
	assert.InDelta(t, 0.4, summaries[1].Fill(), 1e-9)
	assert.Zero(t, PageSummary{}.Fill())
}

func TestBitmapAndSlotLines(t *testing.T) {
	hf := loadedFile(t, 7)

	hp, err := ReadPage(hf, 1)
	require.NoError(t, err)
	assert.Equal(t, "##...", Bitmap(hp, 0))
	assert.Equal(t, "##\n...", Bitmap(hp, 2))
	assert.Equal(t, []string{"slot 0: 5 | 50", "slot 1: 6 | 60"}, SlotLines(hp))

	_, err = ReadPage(hf, 2)
	assert.Error(t, err)
}

func TestSlotLines_KeepsSlotNumbersAcrossHoles(t *testing.T) {
	hf := loadedFile(t, 4)

	hp, err := ReadPage(hf, 0)
	require.NoError(t, err)
	tuples := hp.GetTuples()
	require.Len(t, tuples, 4)
	require.NoError(t, hp.DeleteTuple(tuples[1]))
	require.NoError(t, hp.DeleteTuple(tuples[2]))

	assert.Equal(t, []string{"slot 0: 0 | 0", "slot 3: 3 | 30"}, SlotLines(hp))
}

func TestModel_Navigation(t *testing.T) {
	hf := loadedFile(t, 12)

	m, err := New(hf)
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(0), m.CurrentPage())
	assert.Contains(t, m.View(), "slot 4: 4 | 40")

	m, _ = press(t, m, "n")
	assert.Equal(t, primitives.PageNumber(1), m.CurrentPage())

	m, _ = press(t, m, "G")
	assert.Equal(t, primitives.PageNumber(2), m.CurrentPage())
	assert.Contains(t, m.View(), "slot 1: 11 | 110")

	m, _ = press(t, m, "n")
	assert.Equal(t, primitives.PageNumber(2), m.CurrentPage())

	m, _ = press(t, m, "p")
	assert.Equal(t, primitives.PageNumber(1), m.CurrentPage())

	m, _ = press(t, m, "g")
	assert.Equal(t, primitives.PageNumber(0), m.CurrentPage())

	m, _ = press(t, m, "p")
	assert.Equal(t, primitives.PageNumber(0), m.CurrentPage())
}

func TestModel_Quit(t *testing.T) {
	m, err := New(loadedFile(t, 1))
	require.NoError(t, err)

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_EmptyFile(t *testing.T) {
	m, err := New(loadedFile(t, 0))
	require.NoError(t, err)
	assert.Contains(t, m.View(), "file has no pages")

	m, _ = press(t, m, "n")
	assert.Equal(t, primitives.PageNumber(0), m.CurrentPage())
}

func TestModel_WindowResize(t *testing.T) {
	m, err := New(loadedFile(t, 3))
	require.NoError(t, err)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	resized := next.(Model)
	assert.Equal(t, 96, resized.viewport.Width)
	assert.Equal(t, 24, resized.viewport.Height)
}
