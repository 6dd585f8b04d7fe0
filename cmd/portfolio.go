package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/synapsefi/pm-ledger/internal/markets"
	"github.com/synapsefi/pm-ledger/internal/portfolio"
	"github.com/synapsefi/pm-ledger/internal/quotes"
	"github.com/synapsefi/pm-ledger/pkg/config"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show positions and PnL for a market",
	Long: `Computes the owner's per-outcome positions for one market: FIFO
average cost over the fill history, realized PnL, and unrealized PnL
against the current bid/ask midpoint.

Fills come from the Data API when reachable, otherwise from the local
SQLite cache.

Examples:
  # Table output for one market
  pm-ledger portfolio --owner 0xabc... --market will-it-rain-tomorrow

  # Export to JSON
  pm-ledger portfolio --owner 0xabc... --market will-it-rain-tomorrow --format json`,
	RunE: runPortfolio,
}

var (
	portfolioOwner  string
	portfolioMarket string
	portfolioFormat string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(portfolioCmd)

	portfolioCmd.Flags().StringVar(&portfolioOwner, "owner", "", "Owner address (default: OWNER_ADDRESS env)")
	portfolioCmd.Flags().StringVar(&portfolioMarket, "market", "", "Market slug (required)")
	portfolioCmd.Flags().StringVar(&portfolioFormat, "format", "table", "Output format: table, json, csv")
}

// staticQuotes serves one-shot book snapshots to the portfolio service.
type staticQuotes map[string]types.QuoteSnapshot

func (s staticQuotes) Snapshot(tokenID string) (types.QuoteSnapshot, bool) {
	snap, ok := s[tokenID]
	return snap, ok
}

func runPortfolio(_ *cobra.Command, _ []string) error {
	if portfolioMarket == "" {
		return fmt.Errorf("--market is required")
	}
	validFormats := map[string]bool{"table": true, "json": true, "csv": true}
	if !validFormats[portfolioFormat] {
		return fmt.Errorf("invalid format: %s (valid: table, json, csv)", portfolioFormat)
	}

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	owner := portfolioOwner
	if owner == "" {
		owner = cfg.OwnerAddress
	}
	if owner == "" {
		return fmt.Errorf("no owner: pass --owner or set OWNER_ADDRESS")
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	repo, err := newFillRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = repo.Close()
	}()

	gamma := markets.NewGammaClient(cfg.GammaBaseURL, logger)
	market, err := gamma.FetchMarketBySlug(ctx, portfolioMarket)
	if err != nil {
		return fmt.Errorf("fetch market %q: %w", portfolioMarket, err)
	}

	bookClient := quotes.NewClient(quotes.ClientConfig{
		BaseURL:        cfg.ClobBaseURL,
		Timeout:        cfg.RemoteTimeout,
		RequestsPerSec: cfg.RemoteRequestsSec,
		Logger:         logger,
	})

	snaps := make(staticQuotes, len(market.Tokens))
	for _, token := range market.Tokens {
		snap, err := bookClient.FetchBook(ctx, token.TokenID)
		if err != nil {
			// Valuation degrades to a flat mark; the positions still print.
			continue
		}
		snaps[token.TokenID] = snap
	}

	view := portfolio.New(repo, snaps, logger).View(ctx, owner, market)

	return displayPortfolio(market, view)
}

func displayPortfolio(market *types.Market, view types.PortfolioView) error {
	switch portfolioFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(view)
	case "csv":
		return portfolioCSV(view)
	default:
		portfolioTable(market, view)
		return nil
	}
}

func portfolioTable(market *types.Market, view types.PortfolioView) {
	fmt.Printf("\n%s\n", market.Question)
	fmt.Printf("owner %s  market %s\n\n", view.Owner, market.Slug)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Outcome", "Open Qty", "Avg Cost", "Mark", "Realized", "Unrealized")

	for _, pos := range view.Positions {
		table.Append(
			pos.Outcome,
			fmt.Sprintf("%.0f", pos.OpenQty),
			fmt.Sprintf("%.4f", pos.AvgCost),
			fmt.Sprintf("%.4f", pos.MarkPrice),
			fmt.Sprintf("%+.2f", pos.Realized),
			fmt.Sprintf("%+.2f", pos.Unrealized),
		)
	}

	table.Render()

	fmt.Printf("\nTotal value $%.2f  realized %+.2f  unrealized %+.2f\n",
		view.TotalValue, view.TotalRealized, view.TotalUnrealized)
}

func portfolioCSV(view types.PortfolioView) error {
	writer := csv.NewWriter(os.Stdout)
	defer writer.Flush()

	err := writer.Write([]string{"TokenID", "Outcome", "OpenQty", "AvgCost", "Mark", "Realized", "Unrealized"})
	if err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, pos := range view.Positions {
		err = writer.Write([]string{
			pos.TokenID,
			pos.Outcome,
			fmt.Sprintf("%.2f", pos.OpenQty),
			fmt.Sprintf("%.4f", pos.AvgCost),
			fmt.Sprintf("%.4f", pos.MarkPrice),
			fmt.Sprintf("%.2f", pos.Realized),
			fmt.Sprintf("%.2f", pos.Unrealized),
		})
		if err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	return nil
}
