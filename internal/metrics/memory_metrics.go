package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AllocatorBytesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracearena_allocator_bytes_allocated_total",
			Help: "Total bytes allocated by the backing allocator",
		},
	)

	AllocatorAllocationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracearena_allocator_allocations_active",
			Help: "Current number of live backing allocations",
		},
	)

	AllocatorBytesFreedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracearena_allocator_bytes_freed_total",
			Help: "Total bytes freed by the backing allocator",
		},
	)

	// ArenaAllocationsTotal counts mutator allocations by outcome
	ArenaAllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearena_arena_allocations_total",
			Help: "Allocations requested through arenas, by outcome",
		},
		[]string{"outcome"}, // ok, exhausted, unknown_handle
	)
)
