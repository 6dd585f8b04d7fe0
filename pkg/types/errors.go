package types

import "fmt"

// OrderError represents an error that occurred while submitting one leg
// of a basket.
type OrderError struct {
	Code    string // API error code or internal error code
	Message string // Human-readable error message
	OrderID string // Order ID if available
	TokenID string // Outcome token of the failed leg
	Side    string // BUY or SELL
}

func (e *OrderError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("%s order for token %s failed (ID: %s): %s (%s)", e.Side, e.TokenID, e.OrderID, e.Message, e.Code)
	}

	return fmt.Sprintf("%s order for token %s failed: %s (%s)", e.Side, e.TokenID, e.Message, e.Code)
}

// Known Polymarket CLOB API error codes
const (
	ErrInvalidMinTickSize = "INVALID_ORDER_MIN_TICK_SIZE"
	ErrNotEnoughBalance   = "INVALID_ORDER_NOT_ENOUGH_BALANCE"
	ErrFOKNotFilled       = "FOK_ORDER_NOT_FILLED_ERROR"
	ErrMarketNotReady     = "MARKET_NOT_READY"
	ErrUnmatched          = "UNMATCHED"
	ErrUnknownStatus      = "UNKNOWN_STATUS"
)
