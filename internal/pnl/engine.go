package pnl

import (
	"math"
	"sort"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// Result holds the outcome of a FIFO pass over a fill sequence.
type Result struct {
	Realized     float64
	RemainingQty float64
	AvgCost      float64
}

// lot is an open inventory position created by a buy fill. Price is
// immutable once created; qty only shrinks as sells consume it.
type lot struct {
	qty   float64
	price float64
}

// Compute runs FIFO lot matching over a fill sequence and returns the
// cumulative realized P&L, the remaining open quantity and its
// volume-weighted average cost.
//
// Fills are processed in ascending timestamp order; fills without a
// timestamp sort earliest and ties keep their input order. Fills with
// size <= 0 or an invalid price are skipped. A sell that exceeds the
// open inventory realizes the excess against a zero cost basis; no
// short lot is tracked, so a later buy does not cover it.
//
// The function is pure: it never fails, never mutates its input, and
// two calls on the same slice yield identical results.
func Compute(fills []types.Fill) Result {
	ordered := make([]types.Fill, len(fills))
	copy(ordered, fills)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	var realized float64
	inv := make([]lot, 0, len(ordered))

	for _, f := range ordered {
		size := math.Floor(f.Size)
		// The price check is written to also reject NaN.
		if size <= 0 || !(f.Price >= 0) {
			FillsDroppedTotal.Inc()
			continue
		}

		switch f.Side {
		case types.SideBuy:
			inv = append(inv, lot{qty: size, price: f.Price})

		case types.SideSell:
			remaining := size
			for remaining > 0 && len(inv) > 0 {
				front := &inv[0]
				take := math.Min(remaining, front.qty)
				realized += (f.Price - front.price) * take
				front.qty -= take
				remaining -= take
				if front.qty == 0 {
					inv = inv[1:]
				}
			}
			// Oversized sell: the excess is a zero-cost-basis short.
			if remaining > 0 {
				realized += f.Price * remaining
				ShortOverflowTotal.Inc()
			}

		default:
			FillsDroppedTotal.Inc()
		}
	}

	var remainingQty, remainingCost float64
	for _, l := range inv {
		remainingQty += l.qty
		remainingCost += l.qty * l.price
	}

	avgCost := 0.0
	if remainingQty > 0 {
		avgCost = remainingCost / remainingQty
	}

	return Result{
		Realized:     realized,
		RemainingQty: remainingQty,
		AvgCost:      avgCost,
	}
}

// MarkToMarket returns the unrealized P&L of an open position valued at
// the supplied mark price.
func MarkToMarket(qty, markPrice, avgCost float64) float64 {
	return (markPrice - avgCost) * qty
}
