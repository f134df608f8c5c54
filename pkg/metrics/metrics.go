// Package metrics provides Prometheus metrics for the conversion
// pipeline: rows converted, batches finalized, values skipped by the
// lossy-continue policy, and queue depth.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsConverted counts rows pushed through the converter, labeled by
	// outcome ("ok" or "partial" when at least one value was skipped).
	RowsConverted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sasarrow",
		Name:      "rows_converted_total",
		Help:      "Total rows converted from row to columnar form",
	}, []string{"outcome"})

	// BatchesFinalized counts finalized record batches.
	BatchesFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sasarrow",
		Name:      "batches_finalized_total",
		Help:      "Total record batches finalized",
	})

	// ValuesSkipped counts individual values dropped by the
	// lossy-continue conversion policy, labeled by column type.
	ValuesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sasarrow",
		Name:      "values_skipped_total",
		Help:      "Values skipped due to per-value conversion failures",
	}, []string{"column_type"})

	// QueueDepth tracks batches produced but not yet consumed.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sasarrow",
		Name:      "queue_depth",
		Help:      "Finalized batches awaiting consumption",
	})

	// FinalizeLatency observes the duration of chunk finalization.
	FinalizeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sasarrow",
		Name:      "finalize_latency_seconds",
		Help:      "Chunk finalization latency",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
	})
)

// Timer measures one operation's duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveFinalize records the elapsed time on the finalize histogram.
func (t *Timer) ObserveFinalize() {
	FinalizeLatency.Observe(time.Since(t.start).Seconds())
}
