package types

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// PriceLevel is a single price level as returned on the wire (CLOB APIs
// encode both fields as strings).
type PriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Float parses the level into numeric price and size.
func (l PriceLevel) Float() (price, size float64, err error) {
	price, err = strconv.ParseFloat(l.Price, 64)
	if err != nil {
		return 0, 0, err
	}
	size, err = strconv.ParseFloat(l.Size, 64)
	if err != nil {
		return 0, 0, err
	}
	return price, size, nil
}

// BookResponse is the CLOB GET /book payload for a single token.
// Bids are sorted best-first, as are asks. tick_size arrives as a string.
type BookResponse struct {
	Market   string       `json:"market"`
	AssetID  string       `json:"asset_id"`
	Bids     []PriceLevel `json:"bids"`
	Asks     []PriceLevel `json:"asks"`
	TickSize string       `json:"tick_size"`
	NegRisk  bool         `json:"neg_risk"`
}

// BookMessage represents a message from the market WebSocket channel.
// Timestamp arrives as a string and is normalized by UnmarshalJSON.
type BookMessage struct {
	EventType string       `json:"event_type"` // "book", "price_change", "last_trade_price"
	AssetID   string       `json:"asset_id"`
	Market    string       `json:"market"`
	Timestamp int64        `json:"-"`
	Bids      []PriceLevel `json:"bids,omitempty"`
	Asks      []PriceLevel `json:"asks,omitempty"`
}

// UnmarshalJSON handles the string-encoded timestamp field.
func (b *BookMessage) UnmarshalJSON(data []byte) error {
	type Alias BookMessage
	aux := &struct {
		TimestampStr string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(b),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.TimestampStr != "" {
		ts, err := strconv.ParseInt(aux.TimestampStr, 10, 64)
		if err != nil {
			return err
		}
		b.Timestamp = ts
	}

	return nil
}

// QuoteSnapshot is the current top-of-book state for a token.
// A zero BestBid/BestAsk means that side of the book is empty.
type QuoteSnapshot struct {
	TokenID     string
	BestBid     float64
	BestBidSize float64
	BestAsk     float64
	BestAskSize float64
	TickSize    float64
	NegRisk     bool
	LastUpdated time.Time
}

// Mid returns the reference mark price for valuation: the bid/ask
// midpoint when both sides exist, otherwise whichever side does.
func (q QuoteSnapshot) Mid() float64 {
	if q.BestBid > 0 && q.BestAsk > 0 {
		return (q.BestBid + q.BestAsk) / 2
	}
	if q.BestBid > 0 {
		return q.BestBid
	}
	return q.BestAsk
}

// OutcomeQuote pairs an outcome token with its best bid/ask for
// arbitrage evaluation. Zero values mean "no quote on that side".
type OutcomeQuote struct {
	TokenID string
	Outcome string
	BestBid float64
	BestAsk float64
}

// MarketQuoteSet is a per-market snapshot of every outcome's top of
// book, taken from live quotes. It is never persisted.
type MarketQuoteSet struct {
	MarketID string
	TickSize float64
	NegRisk  bool
	Outcomes []OutcomeQuote
}
