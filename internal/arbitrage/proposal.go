package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// BasketProposal is a ready-to-submit basket: one leg per outcome of a
// market, generated atomically from a single quote snapshot.
type BasketProposal struct {
	ID         string
	MarketID   string
	MarketSlug string
	Question   string
	Side       string // BUY for buy-all, SELL for sell-all
	Legs       []types.OrderLeg
	SumAsk     float64
	SumBid     float64
	Margin     float64 // per-unit margin of the chosen side
	MarginBPS  int
	TickSize   float64
	NegRisk    bool
	CreatedAt  time.Time
}

// NewProposal composes a basket from an actionable evaluation. Returns
// an error when the evaluation shows no arbitrage or when composition
// fails its all-or-nothing precondition.
func NewProposal(qs types.MarketQuoteSet, ev Evaluation, sizePerOutcome float64) (*BasketProposal, error) {
	side := ev.Side()
	if side == "" {
		return nil, fmt.Errorf("market %s shows no arbitrage", qs.MarketID)
	}

	legs, err := ComposeBasket(qs, side, sizePerOutcome)
	if err != nil {
		return nil, fmt.Errorf("compose basket: %w", err)
	}

	return &BasketProposal{
		ID:        uuid.New().String(),
		MarketID:  qs.MarketID,
		Side:      side,
		Legs:      legs,
		SumAsk:    ev.SumAsk,
		SumBid:    ev.SumBid,
		Margin:    ev.Margin(),
		MarginBPS: int(ev.Margin() * 10000),
		TickSize:  qs.TickSize,
		NegRisk:   qs.NegRisk,
		CreatedAt: time.Now(),
	}, nil
}

// String returns a human-readable summary of the proposal.
func (p *BasketProposal) String() string {
	return fmt.Sprintf(
		"Proposal[%s] Market=%s Side=%s Legs=%d SumAsk=%.4f SumBid=%.4f Margin=%dbps",
		p.ID[:8],
		p.MarketID,
		p.Side,
		len(p.Legs),
		p.SumAsk,
		p.SumBid,
		p.MarginBPS,
	)
}
