package types

// PositionSnapshot is the derived state of one (owner, token) position.
// It is recomputed on every evaluation and never persisted.
type PositionSnapshot struct {
	TokenID    string  `json:"token_id"`
	Outcome    string  `json:"outcome,omitempty"`
	Realized   float64 `json:"realized"`
	OpenQty    float64 `json:"open_qty"`
	AvgCost    float64 `json:"avg_cost"`
	MarkPrice  float64 `json:"mark_price"`
	Unrealized float64 `json:"unrealized"`
}

// PortfolioView aggregates the positions of one owner across the
// outcomes of a market. Totals are plain sums; no netting across
// instruments is applied.
type PortfolioView struct {
	Owner           string             `json:"owner"`
	MarketID        string             `json:"market_id"`
	Positions       []PositionSnapshot `json:"positions"`
	TotalQty        float64            `json:"total_qty"`
	TotalValue      float64            `json:"total_value"`
	TotalRealized   float64            `json:"total_realized"`
	TotalUnrealized float64            `json:"total_unrealized"`
}
