// Package heapreader inspects heap files page by page, straight from disk.
// It backs the inspect and browse commands and never goes through the page
// store, so it must not be pointed at files a running instance is writing.
package heapreader

import (
	"fmt"
	"strings"

	dberror "heapstore/pkg/error"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"
)

// PageSummary describes the occupancy of one page.
type PageSummary struct {
	PageNo      primitives.PageNumber
	NumSlots    int
	UsedSlots   int
	FreeSlots   int
	HeaderBytes int
}

// Fill returns the fraction of used slots.
func (s PageSummary) Fill() float64 {
	if s.NumSlots == 0 {
		return 0
	}
	return float64(s.UsedSlots) / float64(s.NumSlots)
}

// ReadPage reads page pageNo of file from disk.
func ReadPage(file *heap.HeapFile, pageNo primitives.PageNumber) (*heap.HeapPage, error) {
	p, err := file.ReadPage(primitives.NewPageID(file.GetID(), pageNo))
	if err != nil {
		return nil, err
	}

	hp, ok := p.(*heap.HeapPage)
	if !ok {
		return nil, dberror.NewPageCorrupted(fmt.Sprintf("page %d is not a heap page", pageNo))
	}
	return hp, nil
}

func Summarize(hp *heap.HeapPage) PageSummary {
	free := hp.GetNumEmptySlots()
	return PageSummary{
		PageNo:      hp.GetID().PageNo(),
		NumSlots:    hp.NumSlots(),
		UsedSlots:   hp.NumSlots() - free,
		FreeSlots:   free,
		HeaderBytes: heap.HeaderSize(hp.NumSlots()),
	}
}

// SummarizeFile reads every page of file in order.
func SummarizeFile(file *heap.HeapFile) ([]PageSummary, error) {
	numPages, err := file.NumPages()
	if err != nil {
		return nil, err
	}

	summaries := make([]PageSummary, 0, numPages)
	for pageNo := primitives.PageNumber(0); pageNo < numPages; pageNo++ {
		hp, err := ReadPage(file, pageNo)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summarize(hp))
	}
	return summaries, nil
}

// Bitmap renders the slot bitmap of hp, width cells per line, with '#' for
// a used slot and '.' for a free one.
func Bitmap(hp *heap.HeapPage, width int) string {
	if width <= 0 {
		width = 32
	}

	var b strings.Builder
	for i := 0; i < hp.NumSlots(); i++ {
		if i > 0 && i%width == 0 {
			b.WriteByte('\n')
		}
		if hp.IsSlotUsed(i) {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// SlotLines lists the used slots of hp as "slot <n>: <tuple>".
func SlotLines(hp *heap.HeapPage) []string {
	it := hp.Iterator()
	if err := it.Open(); err != nil {
		return nil
	}
	defer it.Close()

	var lines []string
	for {
		ok, err := it.HasNext()
		if err != nil || !ok {
			return lines
		}
		t, err := it.Next()
		if err != nil {
			return lines
		}
		row := strings.ReplaceAll(strings.TrimRight(t.String(), "\n"), "\t", " | ")
		lines = append(lines, fmt.Sprintf("slot %d: %s", t.RecordID.Slot, row))
	}
}
