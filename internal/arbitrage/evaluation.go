package arbitrage

import "github.com/synapsefi/pm-ledger/pkg/types"

// Evaluation is the result of checking one market's outcomes for a
// negative-risk discrepancy at top of book.
type Evaluation struct {
	SumAsk     float64 `json:"sum_ask"`
	SumBid     float64 `json:"sum_bid"`
	BuyArb     bool    `json:"buy_arbitrage"`
	SellArb    bool    `json:"sell_arbitrage"`
	BuyMargin  float64 `json:"buy_margin"`
	SellMargin float64 `json:"sell_margin"`
}

// Evaluate classifies a market quote set. Buying one unit of every
// outcome pays $1 at settlement, so sumAsk < 1 is a riskless buy-all;
// selling one unit of every outcome owes $1, so sumBid > 1 is a
// riskless sell-all. Outcomes without a quote contribute 0 to the sums,
// which disables buy-all (an unquoted leg cannot be bought) only via
// the sumAsk > 0 guard on a fully empty book; composition enforces the
// per-leg precondition.
//
// Evaluate never fails; an efficient market simply reports no
// arbitrage on either side.
func Evaluate(qs types.MarketQuoteSet) Evaluation {
	var sumAsk, sumBid float64
	for _, o := range qs.Outcomes {
		if o.BestAsk > 0 {
			sumAsk += o.BestAsk
		}
		if o.BestBid > 0 {
			sumBid += o.BestBid
		}
	}

	ev := Evaluation{SumAsk: sumAsk, SumBid: sumBid}
	ev.BuyArb = sumAsk > 0 && sumAsk < 1
	ev.SellArb = sumBid > 1

	if ev.BuyArb {
		ev.BuyMargin = 1 - sumAsk
	}
	if ev.SellArb {
		ev.SellMargin = sumBid - 1
	}

	return ev
}

// Actionable reports whether either side of the market shows a
// riskless opportunity.
func (e Evaluation) Actionable() bool {
	return e.BuyArb || e.SellArb
}

// Side returns the basket side to trade, preferring buy-all when both
// sides somehow qualify. Empty string when no arbitrage exists.
func (e Evaluation) Side() string {
	switch {
	case e.BuyArb:
		return types.SideBuy
	case e.SellArb:
		return types.SideSell
	default:
		return ""
	}
}

// Margin returns the per-unit margin of the actionable side.
func (e Evaluation) Margin() float64 {
	if e.BuyArb {
		return e.BuyMargin
	}
	return e.SellMargin
}
