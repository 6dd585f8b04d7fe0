package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/internal/markets"
	"github.com/synapsefi/pm-ledger/internal/quotes"
	"github.com/synapsefi/pm-ledger/pkg/config"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "One-shot negative-risk scan over active markets",
	Long: `Fetches active markets from the Gamma API, pulls each outcome's top
of book, and reports markets whose outcome asks sum below $1 (buy-all)
or bids sum above $1 (sell-all).

Examples:
  # Scan the 50 highest-volume markets
  pm-ledger scan

  # Wider scan with a tighter margin floor
  pm-ledger scan --limit 200 --min-margin 0.01`,
	RunE: runScan,
}

var (
	scanLimit     int
	scanMinMargin float64
	scanSize      float64
	scanFormat    string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanLimit, "limit", 0, "Markets to scan, 0 = MARKET_LIMIT from env")
	scanCmd.Flags().Float64Var(&scanMinMargin, "min-margin", 0, "Minimum per-unit margin, 0 = ARB_MIN_MARGIN from env")
	scanCmd.Flags().Float64Var(&scanSize, "size", 0, "Units per basket leg, 0 = ARB_SIZE_PER_OUTCOME from env")
	scanCmd.Flags().StringVar(&scanFormat, "format", "table", "Output format: table, json")
}

func runScan(_ *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	limit := scanLimit
	if limit == 0 {
		limit = cfg.MarketLimit
	}
	minMargin := scanMinMargin
	if minMargin == 0 {
		minMargin = cfg.MinMargin
	}
	size := scanSize
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
	active, err := gamma.FetchActiveMarkets(ctx, limit, 0, "volume24hr")
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	bookClient := quotes.NewClient(quotes.ClientConfig{
		BaseURL:        cfg.ClobBaseURL,
		Timeout:        cfg.RemoteTimeout,
		RequestsPerSec: cfg.RemoteRequestsSec,
		Logger:         logger,
	})

	proposals := scanMarkets(ctx, active, bookClient, logger, minMargin, size)

	if scanFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(proposals)
	}

	printScanTable(len(active), proposals)
	return nil
}

func scanMarkets(
	ctx context.Context,
	active []types.Market,
	bookClient *quotes.Client,
	logger *zap.Logger,
	minMargin, size float64,
) []*arbitrage.BasketProposal {
	var proposals []*arbitrage.BasketProposal

	for i := range active {
		market := &active[i]
		if market.Closed || len(market.Tokens) < 2 {
			continue
		}

		qs, ok := fetchQuoteSet(ctx, market, bookClient, logger)
		if !ok {
			continue
		}

		ev := arbitrage.Evaluate(qs)
		if !ev.Actionable() || ev.Margin() < minMargin {
			continue
		}

		proposal, err := arbitrage.NewProposal(qs, ev, size)
		if err != nil {
			logger.Debug("basket-composition-failed",
				zap.String("market-id", market.ID),
				zap.Error(err))
			continue
		}
		proposal.MarketSlug = market.Slug
		proposal.Question = market.Question

		proposals = append(proposals, proposal)
	}

	return proposals
}

// fetchQuoteSet pulls every outcome's book. A market with any
// unfetchable outcome is skipped; partial sums would misreport.
func fetchQuoteSet(
	ctx context.Context,
	market *types.Market,
	bookClient *quotes.Client,
	logger *zap.Logger,
) (types.MarketQuoteSet, bool) {
	qs := types.MarketQuoteSet{
		MarketID: market.ID,
		Outcomes: make([]types.OutcomeQuote, 0, len(market.Tokens)),
	}

	for _, token := range market.Tokens {
		snap, err := bookClient.FetchBook(ctx, token.TokenID)
		if err != nil {
			logger.Debug("book-fetch-failed",
				zap.String("token-id", token.TokenID),
				zap.Error(err))
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

func printScanTable(scanned int, proposals []*arbitrage.BasketProposal) {
	fmt.Printf("\nScanned %d markets, %d opportunities\n\n", scanned, len(proposals))

	if len(proposals) == 0 {
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Market", "Side", "Sum Ask", "Sum Bid", "Margin", "Legs")

	for _, p := range proposals {
		table.Append(
			p.MarketSlug,
			p.Side,
			fmt.Sprintf("%.4f", p.SumAsk),
			fmt.Sprintf("%.4f", p.SumBid),
			fmt.Sprintf("%d bps", p.MarginBPS),
			fmt.Sprintf("%d", len(p.Legs)),
		)
	}

	table.Render()
}
