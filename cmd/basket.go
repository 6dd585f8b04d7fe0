package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/internal/execution"
	"github.com/synapsefi/pm-ledger/internal/markets"
	"github.com/synapsefi/pm-ledger/internal/quotes"
	"github.com/synapsefi/pm-ledger/pkg/config"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var basketCmd = &cobra.Command{
	Use:   "basket",
	Short: "Compose a basket of orders across a market's outcomes",
	Long: `Pulls every outcome's top of book for one market, snaps prices to
the market tick size, and composes one order leg per outcome. Without
--side the side is taken from the evaluation; with --submit the legs
are sent through the configured execution mode and recorded in the
local fill ledger.

Examples:
  # Show the basket an evaluation would trade
  pm-ledger basket --market will-it-rain-tomorrow

  # Force a buy-all basket and paper-trade it
  pm-ledger basket --market will-it-rain-tomorrow --side buy --submit`,
	RunE: runBasket,
}

var (
	basketMarket string
	basketSide   string
	basketSize   float64
	basketOwner  string
	basketSubmit bool
	basketFormat string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(basketCmd)

	basketCmd.Flags().StringVarP(&basketMarket, "market", "m", "", "Market slug (required)")
	basketCmd.Flags().StringVar(&basketSide, "side", "", "Force basket side: buy or sell (default: from evaluation)")
	basketCmd.Flags().Float64Var(&basketSize, "size", 0, "Units per leg, 0 = ARB_SIZE_PER_OUTCOME from env")
	basketCmd.Flags().StringVar(&basketOwner, "owner", "", "Owner address for recorded fills (default: OWNER_ADDRESS env)")
	basketCmd.Flags().BoolVar(&basketSubmit, "submit", false, "Submit the basket via the configured execution mode")
	basketCmd.Flags().StringVar(&basketFormat, "format", "table", "Output format: table, json")

	_ = basketCmd.MarkFlagRequired("market")
}

func runBasket(_ *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	size := basketSize
	if size == 0 {
		size = cfg.SizePerOutcome
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	gamma := markets.NewGammaClient(cfg.GammaBaseURL, logger)
	market, err := gamma.FetchMarketBySlug(ctx, basketMarket)
	if err != nil {
		return fmt.Errorf("fetch market %s: %w", basketMarket, err)
	}

	bookClient := quotes.NewClient(quotes.ClientConfig{
		BaseURL:        cfg.ClobBaseURL,
		Timeout:        cfg.RemoteTimeout,
		RequestsPerSec: cfg.RemoteRequestsSec,
		Logger:         logger,
	})

	qs, ok := fetchQuoteSet(ctx, market, bookClient, logger)
	if !ok {
		return fmt.Errorf("market %s is not fully quoted", basketMarket)
	}

	proposal, err := composeProposal(qs, market, size)
	if err != nil {
		return err
	}
	if proposal == nil {
		fmt.Printf("No arbitrage on %s (sum ask %.4f, sum bid %.4f)\n",
			basketMarket, arbitrage.Evaluate(qs).SumAsk, arbitrage.Evaluate(qs).SumBid)
		return nil
	}

	if basketFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(proposal); err != nil {
			return err
		}
	} else {
		printBasket(proposal)
	}

	if !basketSubmit {
		return nil
	}

	return submitBasket(ctx, cfg, logger, proposal)
}

// composeProposal builds the proposal from the evaluation, or from a
// forced side. Returns nil without error when no side is forced and
// the evaluation shows no arbitrage.
func composeProposal(qs types.MarketQuoteSet, market *types.Market, size float64) (*arbitrage.BasketProposal, error) {
	ev := arbitrage.Evaluate(qs)

	if basketSide == "" {
		if !ev.Actionable() {
			return nil, nil
		}

		proposal, err := arbitrage.NewProposal(qs, ev, size)
		if err != nil {
			return nil, fmt.Errorf("compose basket: %w", err)
		}
		proposal.MarketSlug = market.Slug
		proposal.Question = market.Question
		return proposal, nil
	}

	side, ok := types.NormalizeSide(basketSide)
	if !ok {
		return nil, fmt.Errorf("invalid --side %q, want buy or sell", basketSide)
	}

	legs, err := arbitrage.ComposeBasket(qs, side, size)
	if err != nil {
		return nil, fmt.Errorf("compose basket: %w", err)
	}

	margin := 1 - ev.SumAsk
	if side == types.SideSell {
		margin = ev.SumBid - 1
	}

	return &arbitrage.BasketProposal{
		ID:         uuid.New().String(),
		MarketID:   market.ID,
		MarketSlug: market.Slug,
		Question:   market.Question,
		Side:       side,
		Legs:       legs,
		SumAsk:     ev.SumAsk,
		SumBid:     ev.SumBid,
		Margin:     margin,
		MarginBPS:  int(margin * 10000),
		TickSize:   qs.TickSize,
		NegRisk:    qs.NegRisk,
		CreatedAt:  time.Now(),
	}, nil
}

func printBasket(p *arbitrage.BasketProposal) {
	fmt.Printf("\n%s  %s  margin %d bps\n\n", p.MarketSlug, p.Side, p.MarginBPS)
	if p.Margin < 0 {
		fmt.Println("WARNING: negative margin, this basket loses money at these quotes")
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Outcome", "Side", "Price", "Size")
	for _, leg := range p.Legs {
		table.Append(leg.Outcome, leg.Side, fmt.Sprintf("%.4f", leg.Price), fmt.Sprintf("%.2f", leg.Size))
	}
	table.Render()
}

func submitBasket(ctx context.Context, cfg *config.Config, logger *zap.Logger, proposal *arbitrage.BasketProposal) error {
	owner := basketOwner
	if owner == "" {
		owner = cfg.OwnerAddress
	}
	if owner == "" {
		return fmt.Errorf("no owner: pass --owner or set OWNER_ADDRESS")
	}

	recorder, err := newLocalRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = recorder.Close()
	}()

	var orderClient execution.OrderSubmitter
	if cfg.ExecutionMode == "live" {
		client, err := execution.NewOrderClient(&execution.OrderClientConfig{
			BaseURL:    cfg.ClobBaseURL,
			APIKey:     cfg.APIKey,
			Secret:     cfg.Secret,
			Passphrase: cfg.Passphrase,
			PrivateKey: cfg.PrivateKey,
			Address:    cfg.OwnerAddress,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("create order client: %w", err)
		}
		orderClient = client
	}

	submitter := execution.NewSubmitter(execution.SubmitterConfig{
		Mode:   cfg.ExecutionMode,
		Owner:  owner,
		Logger: logger,
	}, orderClient, recorder)

	submitted, err := submitter.SubmitBasket(ctx, proposal)
	if err != nil {
		return fmt.Errorf("submitted %d of %d legs: %w", submitted, len(proposal.Legs), err)
	}

	fmt.Printf("Submitted %d legs in %s mode\n", submitted, cfg.ExecutionMode)
	return nil
}
