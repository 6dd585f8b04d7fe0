package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LegsSubmittedTotal tracks submitted order legs by mode and
	// outcome.
	LegsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_ledger_execution_legs_submitted_total",
			Help: "Total order legs submitted",
		},
		[]string{"mode", "outcome"},
	)

	// SubmissionDurationSeconds tracks full-basket submission latency.
	SubmissionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_ledger_execution_submission_duration_seconds",
		Help:    "Duration of basket submission",
		Buckets: prometheus.DefBuckets,
	})

	// SubmissionErrorsTotal tracks baskets that did not fully submit.
	SubmissionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_execution_submission_errors_total",
		Help: "Total basket submissions that failed part way",
	})
)
