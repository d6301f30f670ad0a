// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsStarted counts call sessions created by setup events.
	CallsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialflow_calls_started_total",
		Help: "Total number of call sessions started.",
	})

	// ActiveCalls tracks currently live call sessions.
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialflow_active_calls",
		Help: "Number of call sessions currently active.",
	})

	// NodeExecutions counts node executions by node kind.
	NodeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialflow_node_executions_total",
		Help: "Total number of node executions.",
	}, []string{"kind"})

	// NodeDuration observes per-kind node execution latency.
	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dialflow_node_execution_duration_seconds",
		Help:    "Duration of node execution in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// TerminationIntents counts positive termination classifications by rule.
	TerminationIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialflow_termination_intents_total",
		Help: "Total number of detected termination intents.",
	}, []string{"rule"})
)
