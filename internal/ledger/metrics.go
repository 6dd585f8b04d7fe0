package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FillsServedTotal tracks which tier answered a fill read.
	FillsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_ledger_fills_served_total",
			Help: "Total fill reads served, by source tier",
		},
		[]string{"source"},
	)

	// FillsAppendedTotal tracks fills recorded in the local cache.
	FillsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_fills_appended_total",
		Help: "Total fills appended to the local cache",
	})

	// RemoteFailuresTotal tracks remote fill fetches that fell back to
	// the cache.
	RemoteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_remote_fill_failures_total",
		Help: "Total remote fill fetches that failed",
	})

	// RemoteRecordsDroppedTotal tracks remote records discarded during
	// mapping.
	RemoteRecordsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_remote_fill_records_dropped_total",
		Help: "Total remote fill records dropped as unusable",
	})

	// RemoteRequestDurationSeconds tracks fill fetch latency.
	RemoteRequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_ledger_remote_fill_request_duration_seconds",
		Help:    "Duration of remote fill HTTP requests",
		Buckets: prometheus.DefBuckets,
	})
)
