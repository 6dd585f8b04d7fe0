package pnl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FillsDroppedTotal tracks fills rejected at the engine boundary
	// (non-positive size, invalid price or unknown side).
	FillsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_pnl_fills_dropped_total",
		Help: "Total number of fills dropped by validation during P&L computation",
	})

	// ShortOverflowTotal tracks sells that exceeded open inventory and
	// were realized against a zero cost basis.
	ShortOverflowTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_ledger_pnl_short_overflow_total",
		Help: "Total number of sell fills that exceeded open inventory",
	})
)
