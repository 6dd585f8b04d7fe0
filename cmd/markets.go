package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/synapsefi/pm-ledger/internal/markets"
	"github.com/synapsefi/pm-ledger/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List active markets from the Gamma API",
	Long: `Lists active markets with their outcome tokens.

Examples:
  pm-ledger markets
  pm-ledger markets --limit 200 --format json`,
	RunE: runMarkets,
}

var (
	marketsLimit  int
	marketsFormat string
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketsCmd)

	marketsCmd.Flags().IntVar(&marketsLimit, "limit", 0, "Markets to list, 0 = MARKET_LIMIT from env")
	marketsCmd.Flags().StringVar(&marketsFormat, "format", "table", "Output format: table, json")
}

func runMarkets(_ *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	limit := marketsLimit
	if limit == 0 {
		limit = cfg.MarketLimit
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	gamma := markets.NewGammaClient(cfg.GammaBaseURL, logger)
	active, err := gamma.FetchActiveMarkets(context.Background(), limit, 0, "volume24hr")
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	if marketsFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(active)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Slug", "Question", "Outcomes", "Neg Risk")

	for _, market := range active {
		table.Append(
			market.Slug,
			truncate(market.Question, 60),
			fmt.Sprintf("%d", len(market.Tokens)),
			fmt.Sprintf("%t", market.NegRisk),
		)
	}

	table.Render()
	fmt.Printf("\n%d markets\n", len(active))

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
