package types

// OrderLeg is a single ready-to-submit order of a basket: one outcome
// token, its side, a tick-aligned price and a per-outcome size.
type OrderLeg struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome,omitempty"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
}
