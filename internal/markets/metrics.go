package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsTracked tracks markets currently in the index.
	MarketsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pm_ledger_markets_tracked",
		Help: "Number of markets currently tracked",
	})

	// MarketsFetchedTotal tracks markets returned by discovery.
	MarketsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_markets_fetched_total",
		Help: "Total markets returned by the discovery API",
	})

	// MetadataCacheHitsTotal tracks metadata cache hits.
	MetadataCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_markets_metadata_cache_hits_total",
		Help: "Total metadata lookups served from cache",
	})

	// MetadataCacheMissesTotal tracks metadata cache misses.
	MetadataCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_markets_metadata_cache_misses_total",
		Help: "Total metadata lookups that missed the cache",
	})
)
