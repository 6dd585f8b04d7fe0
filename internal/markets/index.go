package markets

import (
	"sync"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// Index is the in-memory registry of tracked markets. It answers the
// reverse token-to-market lookup the detector and portfolio surfaces
// need.
type Index struct {
	mu      sync.RWMutex
	byID    map[string]*types.Market
	byToken map[string]*types.Market
	logger  *zap.Logger
}

// NewIndex creates an empty market index.
func NewIndex(logger *zap.Logger) *Index {
	return &Index{
		byID:    make(map[string]*types.Market),
		byToken: make(map[string]*types.Market),
		logger:  logger,
	}
}

// Track registers a market and all of its outcome tokens. Re-tracking
// a market replaces the previous entry.
func (i *Index) Track(market *types.Market) {
	i.mu.Lock()
	if prev, exists := i.byID[market.ID]; exists {
		for _, token := range prev.Tokens {
			delete(i.byToken, token.TokenID)
		}
	}
	i.byID[market.ID] = market
	for _, token := range market.Tokens {
		i.byToken[token.TokenID] = market
	}
	tracked := len(i.byID)
	i.mu.Unlock()

	MarketsTracked.Set(float64(tracked))
	i.logger.Debug("market-tracked",
		zap.String("market-id", market.ID),
		zap.String("slug", market.Slug),
		zap.Int("outcome-count", len(market.Tokens)))
}

// Untrack removes a market and its token mappings.
func (i *Index) Untrack(marketID string) {
	i.mu.Lock()
	market, exists := i.byID[marketID]
	if exists {
		for _, token := range market.Tokens {
			delete(i.byToken, token.TokenID)
		}
		delete(i.byID, marketID)
	}
	tracked := len(i.byID)
	i.mu.Unlock()

	if exists {
		MarketsTracked.Set(float64(tracked))
	}
}

// MarketForToken resolves the market an outcome token belongs to.
func (i *Index) MarketForToken(tokenID string) (*types.Market, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	market, ok := i.byToken[tokenID]
	return market, ok
}

// Market returns a tracked market by ID.
func (i *Index) Market(marketID string) (*types.Market, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	market, ok := i.byID[marketID]
	return market, ok
}

// All returns every tracked market.
func (i *Index) All() []*types.Market {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]*types.Market, 0, len(i.byID))
	for _, market := range i.byID {
		out = append(out, market)
	}
	return out
}

// TokenIDs returns every tracked outcome token.
func (i *Index) TokenIDs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]string, 0, len(i.byToken))
	for tokenID := range i.byToken {
		out = append(out, tokenID)
	}
	return out
}
