package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/quotes"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// runDiscovery keeps the market index in sync with the Gamma API and
// manages quote subscriptions for tracked outcome tokens.
func (a *App) runDiscovery() {
	defer a.wg.Done()

	err := a.refreshMarkets(a.ctx)
	if err != nil {
		a.logger.Error("initial-market-discovery-failed", zap.Error(err))
	}

	a.maybeStartStream()

	ticker := time.NewTicker(a.cfg.MarketPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			err := a.refreshMarkets(a.ctx)
			if err != nil && a.ctx.Err() == nil {
				a.logger.Warn("market-discovery-failed", zap.Error(err))
			}
		}
	}
}

func (a *App) refreshMarkets(ctx context.Context) error {
	fetched, err := a.fetchMarkets(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(fetched))
	for i := range fetched {
		market := &fetched[i]
		if market.Closed || len(market.Tokens) < 2 {
			continue
		}
		seen[market.ID] = true
		a.trackMarket(ctx, market)
	}

	// Drop markets that fell out of the active set so their quotes stop
	// polling. Single-market mode never untracks.
	if a.singleMarket == "" {
		for _, market := range a.index.All() {
			if !seen[market.ID] {
				a.untrackMarket(market)
			}
		}
	}

	return nil
}

func (a *App) fetchMarkets(ctx context.Context) ([]types.Market, error) {
	if a.singleMarket != "" {
		market, err := a.gammaClient.FetchMarketBySlug(ctx, a.singleMarket)
		if err != nil {
			return nil, fmt.Errorf("fetch market %q: %w", a.singleMarket, err)
		}
		return []types.Market{*market}, nil
	}

	return a.gammaClient.FetchActiveMarkets(ctx, a.cfg.MarketLimit, 0, "volume24hr")
}

func (a *App) trackMarket(ctx context.Context, market *types.Market) {
	// Gamma omits the neg-risk flag on some older markets; the CLOB
	// metadata endpoint is authoritative.
	if !market.NegRisk && len(market.Tokens) > 0 {
		_, negRisk, err := a.metadata.GetTokenMetadata(ctx, market.Tokens[0].TokenID)
		if err == nil {
			market.NegRisk = negRisk
		}
	}

	a.index.Track(market)

	for _, token := range market.Tokens {
		if a.subscribed[token.TokenID] {
			continue
		}
		a.quoteManager.Subscribe(token.TokenID)
		a.subscribed[token.TokenID] = true
	}
}

func (a *App) untrackMarket(market *types.Market) {
	a.index.Untrack(market.ID)
	for _, token := range market.Tokens {
		if a.subscribed[token.TokenID] {
			a.quoteManager.Unsubscribe(token.TokenID)
			delete(a.subscribed, token.TokenID)
		}
	}

	a.logger.Info("market-untracked",
		zap.String("market-id", market.ID),
		zap.String("slug", market.Slug))
}

// maybeStartStream starts the websocket quote stream over the tokens
// known after the first discovery pass. Tokens tracked later are
// covered by polling until the next reconnect.
func (a *App) maybeStartStream() {
	if !a.cfg.StreamEnabled || a.quoteStream != nil {
		return
	}

	tokenIDs := a.index.TokenIDs()
	if len(tokenIDs) == 0 {
		a.logger.Warn("quote-stream-not-started", zap.String("reason", "no tracked tokens"))
		return
	}

	a.quoteStream = quotes.NewStream(quotes.StreamConfig{
		URL:      a.cfg.WSURL,
		TokenIDs: tokenIDs,
		Logger:   a.logger,
	}, a.quoteManager)

	err := a.quoteStream.Start(a.ctx)
	if err != nil {
		a.logger.Error("quote-stream-start-failed", zap.Error(err))
	}
}
