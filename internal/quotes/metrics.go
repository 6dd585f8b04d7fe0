package quotes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubscriptionCount tracks active quote subscriptions.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pm_ledger_quotes_subscriptions",
		Help: "Number of active quote subscriptions",
	})

	// SnapshotsTracked tracks tokens with a current snapshot.
	SnapshotsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pm_ledger_quotes_snapshots_tracked",
		Help: "Number of tokens with a tracked top-of-book snapshot",
	})

	// StaleResponsesDiscardedTotal tracks responses discarded because
	// their subscription generation was superseded.
	StaleResponsesDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_quotes_stale_responses_discarded_total",
		Help: "Total book responses discarded as stale",
	})

	// FetchErrorsTotal tracks failed book fetches.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_quotes_fetch_errors_total",
		Help: "Total book fetch failures",
	})

	// UpdatesDroppedTotal tracks updates dropped because the update
	// channel was full.
	UpdatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_quotes_updates_dropped_total",
		Help: "Total quote updates dropped on a full channel",
	})

	// BookRequestDurationSeconds tracks book fetch latency.
	BookRequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pm_ledger_quotes_book_request_duration_seconds",
		Help:    "Duration of book HTTP requests",
		Buckets: prometheus.DefBuckets,
	})

	// StreamMessagesTotal tracks websocket messages by event type.
	StreamMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_ledger_quotes_stream_messages_total",
			Help: "Total websocket market messages received",
		},
		[]string{"event_type"},
	)

	// StreamReconnectsTotal tracks websocket reconnect attempts.
	StreamReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_quotes_stream_reconnects_total",
		Help: "Total websocket reconnect attempts",
	})
)
