package arbitrage

import (
	"fmt"
	"math"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// SnapToTick aligns a price to the nearest multiple of the tick size.
// Halfway values round away from zero.
func SnapToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	return math.Round(price/tickSize) * tickSize
}

// ComposeBasket builds one order leg per outcome from a market quote
// set: buy-all baskets take each outcome's best ask, sell-all baskets
// each best bid, snapped to the market tick size.
//
// Composition is all-or-nothing. A partial basket is not riskless, so
// if any outcome lacks a usable quote (snapped price <= 0) no legs are
// returned at all.
func ComposeBasket(qs types.MarketQuoteSet, side string, sizePerOutcome float64) ([]types.OrderLeg, error) {
	if side != types.SideBuy && side != types.SideSell {
		return nil, fmt.Errorf("invalid basket side %q", side)
	}
	if sizePerOutcome <= 0 {
		return nil, fmt.Errorf("size per outcome must be positive, got %v", sizePerOutcome)
	}
	if len(qs.Outcomes) == 0 {
		return nil, fmt.Errorf("market %s has no outcomes", qs.MarketID)
	}

	legs := make([]types.OrderLeg, 0, len(qs.Outcomes))
	for _, o := range qs.Outcomes {
		quote := o.BestAsk
		if side == types.SideSell {
			quote = o.BestBid
		}

		price := SnapToTick(quote, qs.TickSize)
		if price <= 0 {
			BasketsRejectedTotal.WithLabelValues("missing_quote").Inc()
			return nil, fmt.Errorf("no usable %s quote for outcome token %s", side, o.TokenID)
		}

		legs = append(legs, types.OrderLeg{
			TokenID: o.TokenID,
			Outcome: o.Outcome,
			Side:    side,
			Price:   price,
			Size:    sizePerOutcome,
		})
	}

	if len(legs) != len(qs.Outcomes) {
		BasketsRejectedTotal.WithLabelValues("leg_count_mismatch").Inc()
		return nil, fmt.Errorf("composed %d legs for %d outcomes", len(legs), len(qs.Outcomes))
	}

	return legs, nil
}
