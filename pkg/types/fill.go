package types

import "strings"

// Order sides as used by the CLOB API.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Fill represents a single executed trade leg for an outcome token.
// Price is probability-denominated (0..1); Size is a whole number of
// outcome-token units. Timestamp is epoch seconds; 0 means unknown and
// sorts earliest.
type Fill struct {
	TokenID   string  `json:"token_id"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// NormalizeSide maps the side spellings seen across the CLOB and Data
// APIs ("buy", "Buy", "BUY", ...) to the canonical constants.
// Returns ("", false) for anything else.
func NormalizeSide(side string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case SideBuy:
		return SideBuy, true
	case SideSell:
		return SideSell, true
	default:
		return "", false
	}
}
