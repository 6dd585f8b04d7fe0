package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// OrderSubmitter submits one order leg.
type OrderSubmitter interface {
	Submit(ctx context.Context, leg types.OrderLeg) (*types.OrderSubmissionResponse, error)
}

// FillRecorder records executed fills in the local ledger.
type FillRecorder interface {
	Append(ctx context.Context, owner string, fill types.Fill) error
}

// Submitter consumes basket proposals and submits their legs in
// sequence. Legs after the first failure are not sent, and there is no
// rollback of legs already placed; the resulting one-sided position is
// visible in the ledger and left to the operator.
type Submitter struct {
	mode     string // "paper" or "live"
	owner    string
	client   OrderSubmitter
	recorder FillRecorder
	logger   *zap.Logger

	proposalChan <-chan *arbitrage.BasketProposal
	ctx          context.Context
	wg           sync.WaitGroup
}

// SubmitterConfig holds submitter configuration.
type SubmitterConfig struct {
	Mode            string
	Owner           string
	ProposalChannel <-chan *arbitrage.BasketProposal
	Logger          *zap.Logger
}

// NewSubmitter creates a basket submitter. client may be nil in paper
// mode.
func NewSubmitter(cfg SubmitterConfig, client OrderSubmitter, recorder FillRecorder) *Submitter {
	return &Submitter{
		mode:         cfg.Mode,
		owner:        cfg.Owner,
		client:       client,
		recorder:     recorder,
		logger:       cfg.Logger,
		proposalChan: cfg.ProposalChannel,
	}
}

// Start starts the submission loop.
func (s *Submitter) Start(ctx context.Context) error {
	s.ctx = ctx
	s.logger.Info("submitter-starting", zap.String("mode", s.mode))

	s.wg.Add(1)
	go s.submissionLoop()

	return nil
}

func (s *Submitter) submissionLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("submitter-stopping")
			return
		case proposal, ok := <-s.proposalChan:
			if !ok {
				s.logger.Info("proposal-channel-closed")
				return
			}

			start := time.Now()
			submitted, err := s.SubmitBasket(s.ctx, proposal)
			SubmissionDurationSeconds.Observe(time.Since(start).Seconds())

			if err != nil {
				SubmissionErrorsTotal.Inc()
				s.logger.Error("basket-submission-failed",
					zap.String("proposal-id", proposal.ID),
					zap.Int("legs-submitted", submitted),
					zap.Int("legs-total", len(proposal.Legs)),
					zap.Error(err))
				continue
			}

			s.logger.Info("basket-submitted",
				zap.String("proposal-id", proposal.ID),
				zap.String("market-slug", proposal.MarketSlug),
				zap.String("mode", s.mode),
				zap.Int("leg-count", submitted),
				zap.Int("margin-bps", proposal.MarginBPS))
		}
	}
}

// SubmitBasket submits every leg of a proposal in order. Returns the
// number of legs that went through; on error that count tells how far
// the basket got.
func (s *Submitter) SubmitBasket(ctx context.Context, proposal *arbitrage.BasketProposal) (int, error) {
	switch s.mode {
	case "paper":
		return s.submitPaper(ctx, proposal)
	case "live":
		return s.submitLive(ctx, proposal)
	default:
		return 0, fmt.Errorf("unknown submission mode: %s", s.mode)
	}
}

// submitPaper records each leg as an immediate fill at its limit
// price.
func (s *Submitter) submitPaper(ctx context.Context, proposal *arbitrage.BasketProposal) (int, error) {
	for i, leg := range proposal.Legs {
		if err := s.recordFill(ctx, leg); err != nil {
			return i, err
		}
		LegsSubmittedTotal.WithLabelValues("paper", "ok").Inc()
	}
	return len(proposal.Legs), nil
}

func (s *Submitter) submitLive(ctx context.Context, proposal *arbitrage.BasketProposal) (int, error) {
	if s.client == nil {
		return 0, fmt.Errorf("live mode without an order client")
	}

	for i, leg := range proposal.Legs {
		resp, err := s.client.Submit(ctx, leg)
		if err != nil {
			LegsSubmittedTotal.WithLabelValues("live", "error").Inc()
			return i, fmt.Errorf("submit leg %d (%s %s): %w", i, leg.Side, leg.TokenID, err)
		}
		LegsSubmittedTotal.WithLabelValues("live", "ok").Inc()

		s.logger.Debug("leg-submitted",
			zap.String("proposal-id", proposal.ID),
			zap.String("order-id", resp.OrderID),
			zap.String("status", resp.Status),
			zap.String("token-id", leg.TokenID))

		if err := s.recordFill(ctx, leg); err != nil {
			return i + 1, err
		}
	}

	return len(proposal.Legs), nil
}

func (s *Submitter) recordFill(ctx context.Context, leg types.OrderLeg) error {
	fill := types.Fill{
		TokenID:   leg.TokenID,
		Side:      leg.Side,
		Price:     leg.Price,
		Size:      leg.Size,
		Timestamp: time.Now().Unix(),
	}

	if err := s.recorder.Append(ctx, s.owner, fill); err != nil {
		return fmt.Errorf("record fill for token %s: %w", leg.TokenID, err)
	}
	return nil
}

// Close waits for the submission loop to finish.
func (s *Submitter) Close() error {
	s.logger.Info("closing-submitter")
	s.wg.Wait()
	s.logger.Info("submitter-closed")
	return nil
}
