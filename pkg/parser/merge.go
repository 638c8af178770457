package parser

import (
	"container/heap"
	"context"
	"io"
)

// MergedSource combines several EventSources into one stream ordered by
// timestamp (oldest first). Records with equal timestamps keep the order of
// the sources they came from, so a friendly log and a hostile log of the same
// pull interleave deterministically.
type MergedSource struct {
	sources []EventSource
	heap    *recordHeap
	started bool
	closed  bool
}

// NewMergedSource creates an EventSource that merges sources by timestamp.
func NewMergedSource(sources ...EventSource) *MergedSource {
	return &MergedSource{
		sources: sources,
		heap:    &recordHeap{},
	}
}

// Next returns the next record in timestamp order across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*Record, error) {
	if !m.started && !m.closed {
		m.started = true
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)

	// Refill from the same source
	next, err := m.sources[item.sourceIdx].Next(ctx)
	switch {
	case err == nil:
		heap.Push(m.heap, &heapItem{record: next, sourceIdx: item.sourceIdx, seq: item.seq + 1})
	case err != io.EOF:
		return nil, err
	}

	return item.record, nil
}

func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)

	for i, src := range m.sources {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return err
		}
		heap.Push(m.heap, &heapItem{record: rec, sourceIdx: i})
	}

	return nil
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	m.closed = true
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type heapItem struct {
	record    *Record
	sourceIdx int
	seq       int
}

// recordHeap implements heap.Interface for timestamp-ordered merging.
type recordHeap []*heapItem

func (h recordHeap) Len() int { return len(h) }

func (h recordHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.record.Event.Timestamp != b.record.Event.Timestamp {
		return a.record.Event.Timestamp < b.record.Event.Timestamp
	}
	if a.sourceIdx != b.sourceIdx {
		return a.sourceIdx < b.sourceIdx
	}
	return a.seq < b.seq
}

func (h recordHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *recordHeap) Push(x any) {
	*h = append(*h, x.(*heapItem))
}

func (h *recordHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
