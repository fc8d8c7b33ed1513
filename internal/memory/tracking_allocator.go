package memory

import (
	"sync/atomic"

	"github.com/23skdu/tracearena/internal/metrics"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TrackingAllocator counts the slabs an arena commits through it and
// mirrors the totals into the allocator metrics.
type TrackingAllocator struct {
	base        memory.Allocator
	outstanding atomic.Int64
	live        atomic.Int64
}

// NewTrackingAllocator wraps base, or memory.DefaultAllocator when base is nil.
func NewTrackingAllocator(base memory.Allocator) *TrackingAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &TrackingAllocator{base: base}
}

// Base returns the wrapped allocator.
func (a *TrackingAllocator) Base() memory.Allocator { return a.base }

func (a *TrackingAllocator) Allocate(size int) []byte {
	b := a.base.Allocate(size)
	a.outstanding.Add(int64(len(b)))
	a.live.Add(1)
	metrics.AllocatorBytesAllocatedTotal.Add(float64(len(b)))
	metrics.AllocatorAllocationsActive.Inc()
	return b
}

// Reallocate accounts only for the change in length.
func (a *TrackingAllocator) Reallocate(size int, b []byte) []byte {
	old := len(b)
	nb := a.base.Reallocate(size, b)
	switch delta := len(nb) - old; {
	case delta > 0:
		metrics.AllocatorBytesAllocatedTotal.Add(float64(delta))
		a.outstanding.Add(int64(delta))
	case delta < 0:
		metrics.AllocatorBytesFreedTotal.Add(float64(-delta))
		a.outstanding.Add(int64(delta))
	}
	return nb
}

func (a *TrackingAllocator) Free(b []byte) {
	a.outstanding.Add(-int64(len(b)))
	a.live.Add(-1)
	metrics.AllocatorBytesFreedTotal.Add(float64(len(b)))
	metrics.AllocatorAllocationsActive.Dec()
	a.base.Free(b)
}

// Outstanding returns bytes allocated and not yet freed.
func (a *TrackingAllocator) Outstanding() int64 { return a.outstanding.Load() }

// Live returns the number of allocations not yet freed.
func (a *TrackingAllocator) Live() int64 { return a.live.Load() }

var _ memory.Allocator = (*TrackingAllocator)(nil)
