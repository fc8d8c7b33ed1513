package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ArenasLive tracks arenas created and not yet destroyed
	ArenasLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracearena_arenas_live",
			Help: "Number of arenas created and not yet destroyed",
		},
	)

	// ArenaLifecycleTotal counts arena create/destroy attempts by outcome
	ArenaLifecycleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearena_arena_lifecycle_total",
			Help: "Arena create and destroy attempts by operation and outcome",
		},
		[]string{"operation", "outcome"}, // operation: create|destroy
	)

	// ArenaReservedBytes tracks address space reserved by all live arenas
	ArenaReservedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracearena_arena_reserved_bytes",
			Help: "Total bytes reserved by live arenas",
		},
	)

	// ArenaCommittedBytes tracks memory committed by arenas, by class
	ArenaCommittedBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tracearena_arena_committed_bytes",
			Help: "Bytes committed by live arenas",
		},
		[]string{"class"},
	)

	// ArenaSlabsTotal tracks total number of slabs committed
	ArenaSlabsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracearena_arena_slabs_total",
			Help: "Total number of slabs committed",
		},
	)
)
