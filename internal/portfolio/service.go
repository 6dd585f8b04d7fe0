package portfolio

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/pnl"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// FillSource provides an owner's fill history and manual cost basis.
type FillSource interface {
	Fills(ctx context.Context, owner, tokenID string) []types.Fill
	CostOverride(ctx context.Context, owner, tokenID string) (float64, bool)
}

// QuoteSource provides current top-of-book snapshots for marking.
type QuoteSource interface {
	Snapshot(tokenID string) (types.QuoteSnapshot, bool)
}

// Service computes per-outcome position snapshots and market-level
// portfolio views from fills and live quotes.
type Service struct {
	fills  FillSource
	quotes QuoteSource
	logger *zap.Logger
}

// New creates a portfolio service.
func New(fills FillSource, quotes QuoteSource, logger *zap.Logger) *Service {
	return &Service{fills: fills, quotes: quotes, logger: logger}
}

// Position computes the snapshot for one owner on one outcome token.
//
// The cost basis is the FIFO average cost when the owner has fills;
// a position with no fills falls back to the manually stored cost, if
// any. Without a live quote the mark price is zero and the position is
// valued flat.
func (s *Service) Position(ctx context.Context, owner string, token types.Token) types.PositionSnapshot {
	start := time.Now()

	fills := s.fills.Fills(ctx, owner, token.TokenID)
	res := pnl.Compute(fills)

	costBasis := res.AvgCost
	if len(fills) == 0 {
		if stored, ok := s.fills.CostOverride(ctx, owner, token.TokenID); ok {
			costBasis = stored
		}
	}

	var markPrice float64
	if snap, ok := s.quotes.Snapshot(token.TokenID); ok {
		markPrice = snap.Mid()
	}

	var unrealized float64
	if markPrice > 0 {
		unrealized = pnl.MarkToMarket(res.RemainingQty, markPrice, costBasis)
	}

	PositionComputeDurationSeconds.Observe(time.Since(start).Seconds())

	return types.PositionSnapshot{
		TokenID:    token.TokenID,
		Outcome:    token.Outcome,
		Realized:   res.Realized,
		OpenQty:    res.RemainingQty,
		AvgCost:    costBasis,
		MarkPrice:  markPrice,
		Unrealized: unrealized,
	}
}

// View aggregates the owner's positions across every outcome of a
// market.
func (s *Service) View(ctx context.Context, owner string, market *types.Market) types.PortfolioView {
	view := types.PortfolioView{
		Owner:     owner,
		MarketID:  market.ID,
		Positions: make([]types.PositionSnapshot, 0, len(market.Tokens)),
	}

	for _, token := range market.Tokens {
		pos := s.Position(ctx, owner, token)
		view.Positions = append(view.Positions, pos)

		view.TotalQty += pos.OpenQty
		view.TotalValue += pos.MarkPrice * pos.OpenQty
		view.TotalRealized += pos.Realized
		view.TotalUnrealized += pos.Unrealized
	}

	s.logger.Debug("portfolio-view-computed",
		zap.String("owner", owner),
		zap.String("market-id", market.ID),
		zap.Int("position-count", len(view.Positions)),
		zap.Float64("total-value", view.TotalValue))

	return view
}
