package portfolio

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PositionComputeDurationSeconds tracks position snapshot latency,
// including the fill fetch.
var PositionComputeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "pm_ledger_portfolio_position_compute_duration_seconds",
	Help:    "Duration of one position snapshot computation",
	Buckets: prometheus.DefBuckets,
})
