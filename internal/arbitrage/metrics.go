package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProposalsDetectedTotal tracks basket proposals generated.
	ProposalsDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_arb_proposals_detected_total",
		Help: "Total number of basket proposals generated",
	})

	// ProposalMarginBPS tracks proposal margins in basis points.
	ProposalMarginBPS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_ledger_arb_proposal_margin_bps",
		Help:    "Basket proposal per-unit margin in basis points",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// ProposalsRejectedTotal tracks evaluations that did not become
	// proposals, by reason.
	ProposalsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_ledger_arb_proposals_rejected_total",
			Help: "Total number of actionable evaluations rejected",
		},
		[]string{"reason"},
	)

	// BasketsRejectedTotal tracks basket compositions that failed
	// their all-or-nothing precondition, by reason.
	BasketsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_ledger_arb_baskets_rejected_total",
			Help: "Total number of basket compositions rejected",
		},
		[]string{"reason"},
	)

	// DetectionDurationSeconds tracks detection loop latency.
	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_ledger_arb_detection_duration_seconds",
		Help:    "Duration of one arbitrage detection pass",
		Buckets: prometheus.DefBuckets,
	})
)
