// Package metrics collects the Prometheus instrumentation shared by both
// node roles beyond what internal/mempool already registers for itself:
// executor batch throughput and inbound decode failures.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Executor groups the collectors a node's actor updates: DecodeErrors on
// each undecodable inbound message, the rest once per tick.
type Executor struct {
	BatchSize     prometheus.Histogram
	InvalidTxs    prometheus.Counter
	DecodeErrors  prometheus.Counter
	FinalizedFrames prometheus.Counter
}

// NewExecutor registers a fresh Executor collector set under component
// (typically "oracle" or "swarm") against reg. If reg is nil the counters
// are created but never registered, which is convenient for tests that
// don't care about exposition.
func NewExecutor(reg prometheus.Registerer, component string) *Executor {
	e := &Executor{
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "breadchain",
			Subsystem: component,
			Name:      "batch_size",
			Help:      "Number of transactions processed per executor invocation.",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		InvalidTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "breadchain",
			Subsystem: component,
			Name:      "invalid_transactions_total",
			Help:      "Total number of transactions rejected by the executor.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "breadchain",
			Subsystem: component,
			Name:      "decode_errors_total",
			Help:      "Total number of inbound messages dropped for failing to decode.",
		}),
		FinalizedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "breadchain",
			Subsystem: component,
			Name:      "finalized_frames_total",
			Help:      "Total number of fork-choice frames finalized.",
		}),
	}
	if reg != nil {
		reg.MustRegister(e.BatchSize, e.InvalidTxs, e.DecodeErrors, e.FinalizedFrames)
	}
	return e
}
