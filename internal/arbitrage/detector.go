package arbitrage

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// QuoteSource provides live top-of-book snapshots and a stream of
// quote updates.
type QuoteSource interface {
	Snapshot(tokenID string) (types.QuoteSnapshot, bool)
	UpdateChan() <-chan types.QuoteSnapshot
}

// MarketIndex resolves tracked markets and which market an outcome
// token belongs to.
type MarketIndex interface {
	Market(marketID string) (*types.Market, bool)
	MarketForToken(tokenID string) (*types.Market, bool)
}

// Storage persists basket proposals.
type Storage interface {
	StoreProposal(ctx context.Context, p *BasketProposal) error
	Close() error
}

// Detector watches quote updates and emits basket proposals for
// markets whose outcome prices sum away from $1.
type Detector struct {
	quotes       QuoteSource
	index        MarketIndex
	storage      Storage
	config       Config
	logger       *zap.Logger
	proposalChan chan *BasketProposal
	ctx          context.Context
	wg           sync.WaitGroup
}

// Config holds detector configuration.
type Config struct {
	MinMargin      float64 // minimum per-unit margin to act on
	SizePerOutcome float64 // units per basket leg
	Logger         *zap.Logger
}

// New creates a new arbitrage detector.
func New(cfg Config, quotes QuoteSource, index MarketIndex, storage Storage) *Detector {
	return &Detector{
		quotes:       quotes,
		index:        index,
		storage:      storage,
		config:       cfg,
		logger:       cfg.Logger,
		proposalChan: make(chan *BasketProposal, 50),
	}
}

// Start starts the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	d.ctx = ctx
	d.logger.Info("arbitrage-detector-starting",
		zap.Float64("min-margin", d.config.MinMargin),
		zap.Float64("size-per-outcome", d.config.SizePerOutcome))

	d.wg.Add(1)
	go d.detectionLoop()

	return nil
}

func (d *Detector) detectionLoop() {
	defer d.wg.Done()

	updates := d.quotes.UpdateChan()
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("arbitrage-detector-stopping")
			close(d.proposalChan)
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			start := time.Now()
			d.checkMarketForToken(update.TokenID)
			DetectionDurationSeconds.Observe(time.Since(start).Seconds())
		}
	}
}

// checkMarketForToken re-evaluates the market a token belongs to after
// one of its outcome quotes changed.
func (d *Detector) checkMarketForToken(tokenID string) {
	market, ok := d.index.MarketForToken(tokenID)
	if !ok {
		// Token not part of any tracked market
		return
	}

	qs, ok := d.quoteSet(market)
	if !ok {
		return
	}

	ev := Evaluate(qs)
	if !ev.Actionable() {
		return
	}

	if ev.Margin() < d.config.MinMargin {
		ProposalsRejectedTotal.WithLabelValues("below_min_margin").Inc()
		return
	}

	proposal, err := NewProposal(qs, ev, d.config.SizePerOutcome)
	if err != nil {
		// Missing quote on one leg; the opportunity is not actionable.
		d.logger.Debug("proposal-composition-failed",
			zap.String("market-id", market.ID),
			zap.Error(err))
		return
	}
	proposal.MarketSlug = market.Slug
	proposal.Question = market.Question

	ProposalsDetectedTotal.Inc()
	ProposalMarginBPS.Observe(float64(proposal.MarginBPS))

	err = d.storage.StoreProposal(d.ctx, proposal)
	if err != nil {
		d.logger.Error("failed-to-store-proposal",
			zap.String("proposal-id", proposal.ID),
			zap.Error(err))
	}

	// Send proposal (non-blocking)
	select {
	case d.proposalChan <- proposal:
		d.logger.Info("basket-proposal-detected",
			zap.String("proposal-id", proposal.ID),
			zap.String("market-slug", proposal.MarketSlug),
			zap.String("side", proposal.Side),
			zap.Int("margin-bps", proposal.MarginBPS),
			zap.Int("leg-count", len(proposal.Legs)))
	default:
		d.logger.Warn("proposal-channel-full", zap.String("market-id", market.ID))
	}
}

// quoteSet assembles the quote set for every outcome of a market.
// Returns false when any outcome lacks a snapshot; evaluating a
// partially-quoted market would misreport the sums.
func (d *Detector) quoteSet(market *types.Market) (types.MarketQuoteSet, bool) {
	qs := types.MarketQuoteSet{
		MarketID: market.ID,
		Outcomes: make([]types.OutcomeQuote, 0, len(market.Tokens)),
	}

	for _, token := range market.Tokens {
		snap, exists := d.quotes.Snapshot(token.TokenID)
		if !exists {
			d.logger.Debug("quote-missing-for-outcome",
				zap.String("market-id", market.ID),
				zap.String("token-id", token.TokenID))
			return types.MarketQuoteSet{}, false
		}

		qs.TickSize = snap.TickSize
		qs.NegRisk = snap.NegRisk
		qs.Outcomes = append(qs.Outcomes, types.OutcomeQuote{
			TokenID: token.TokenID,
			Outcome: token.Outcome,
			BestBid: snap.BestBid,
			BestAsk: snap.BestAsk,
		})
	}

	return qs, true
}

// MarketEvaluation is a point-in-time evaluation of one tracked
// market, as served by the evaluation API.
type MarketEvaluation struct {
	MarketID   string `json:"market_id"`
	MarketSlug string `json:"market_slug"`
	Question   string `json:"question"`
	Outcomes   int    `json:"outcomes"`
	Evaluation
}

// EvaluateMarket evaluates one tracked market on demand. Returns false
// when the market is not tracked or any of its outcomes lacks a quote
// snapshot.
func (d *Detector) EvaluateMarket(marketID string) (MarketEvaluation, bool) {
	market, ok := d.index.Market(marketID)
	if !ok {
		return MarketEvaluation{}, false
	}

	qs, ok := d.quoteSet(market)
	if !ok {
		return MarketEvaluation{}, false
	}

	return MarketEvaluation{
		MarketID:   market.ID,
		MarketSlug: market.Slug,
		Question:   market.Question,
		Outcomes:   len(qs.Outcomes),
		Evaluation: Evaluate(qs),
	}, true
}

// ProposalChan returns the channel for receiving basket proposals.
func (d *Detector) ProposalChan() <-chan *BasketProposal {
	return d.proposalChan
}

// Close gracefully closes the detector.
func (d *Detector) Close() error {
	d.logger.Info("closing-arbitrage-detector")
	d.wg.Wait()
	d.logger.Info("arbitrage-detector-closed")
	return nil
}
