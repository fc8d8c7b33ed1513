package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutatorsRegistered tracks live mutator registrations across all arenas
	MutatorsRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracearena_mutators_registered",
			Help: "Number of mutator threads currently registered",
		},
	)

	// RegistrationsTotal counts thread registration attempts by outcome
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearena_registrations_total",
			Help: "Thread registration attempts by outcome",
		},
		[]string{"outcome"}, // ok, already_registered, resource_exhausted
	)

	// DeregistrationsTotal counts thread deregistration attempts by outcome
	DeregistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearena_deregistrations_total",
			Help: "Thread deregistration attempts by outcome",
		},
		[]string{"outcome"}, // ok, unknown_handle
	)

	// AssertionsTotal counts checked assertions that fired, by error type
	AssertionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearena_assertions_total",
			Help: "Checked assertions that failed, by error type",
		},
		[]string{"type"},
	)

	// ThreadScansTotal counts root enumeration passes over registration tables
	ThreadScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracearena_thread_scans_total",
			Help: "Number of registration table enumerations",
		},
	)
)
