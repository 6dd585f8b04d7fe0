package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/ledger"
	"github.com/synapsefi/pm-ledger/pkg/config"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var fillsCmd = &cobra.Command{
	Use:   "fills",
	Short: "Inspect and edit the local fill ledger",
}

//nolint:gochecknoglobals // Cobra boilerplate
var fillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fills for an owner and token",
	Long: `Lists the fill history used for PnL computation. Remote fills are
preferred when the Data API answers; otherwise the local cache is
shown.

Examples:
  pm-ledger fills list --owner 0xabc... --token 1234
  pm-ledger fills list --owner 0xabc... --token 1234 --format json`,
	RunE: runFillsList,
}

//nolint:gochecknoglobals // Cobra boilerplate
var fillsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a fill to the local ledger",
	Long: `Appends a manually-entered fill to the local SQLite cache. The
remote history is never modified.

Example:
  pm-ledger fills add --owner 0xabc... --token 1234 --side buy --price 0.45 --size 10`,
	RunE: runFillsAdd,
}

//nolint:gochecknoglobals // Cobra boilerplate
var fillsSetCostCmd = &cobra.Command{
	Use:   "set-cost",
	Short: "Set a manual cost basis for a position",
	Long: `Stores a manual cost basis used when a position has no fill
history, for holdings acquired outside tracked venues.

Example:
  pm-ledger fills set-cost --owner 0xabc... --token 1234 --cost 0.38`,
	RunE: runFillsSetCost,
}

var (
	fillsOwner  string
	fillsToken  string
	fillsFormat string
	fillsSide   string
	fillsPrice  float64
	fillsSize   float64
	fillsAt     int64
	fillsCost   float64
)

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(fillsCmd)
	fillsCmd.AddCommand(fillsListCmd, fillsAddCmd, fillsSetCostCmd)

	fillsCmd.PersistentFlags().StringVar(&fillsOwner, "owner", "", "Owner address (default: OWNER_ADDRESS env)")
	fillsCmd.PersistentFlags().StringVar(&fillsToken, "token", "", "Outcome token ID (required)")

	fillsListCmd.Flags().StringVar(&fillsFormat, "format", "table", "Output format: table, json")

	fillsAddCmd.Flags().StringVar(&fillsSide, "side", "", "Fill side: buy or sell (required)")
	fillsAddCmd.Flags().Float64Var(&fillsPrice, "price", 0, "Fill price in probability units, 0..1 (required)")
	fillsAddCmd.Flags().Float64Var(&fillsSize, "size", 0, "Fill size in outcome-token units (required)")
	fillsAddCmd.Flags().Int64Var(&fillsAt, "timestamp", 0, "Fill time as epoch seconds (default: now)")

	fillsSetCostCmd.Flags().Float64Var(&fillsCost, "cost", 0, "Cost basis per unit (required)")
}

func fillsSetup() (*config.Config, *zap.Logger, string, error) {
	if fillsToken == "" {
		return nil, nil, "", fmt.Errorf("--token is required")
	}

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, "", fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, "", fmt.Errorf("load config: %w", err)
	}

	owner := fillsOwner
	if owner == "" {
		owner = cfg.OwnerAddress
	}
	if owner == "" {
		return nil, nil, "", fmt.Errorf("no owner: pass --owner or set OWNER_ADDRESS")
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, nil, "", fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, owner, nil
}

func runFillsList(_ *cobra.Command, _ []string) error {
	cfg, logger, owner, err := fillsSetup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	repo, err := newFillRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = repo.Close()
	}()

	fills := repo.Fills(context.Background(), owner, fillsToken)

	if fillsFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(fills)
	}

	if len(fills) == 0 {
		fmt.Println("No fills found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Time", "Side", "Price", "Size")
	for _, fill := range fills {
		at := "-"
		if fill.Timestamp > 0 {
			at = time.Unix(fill.Timestamp, 0).UTC().Format("2006-01-02 15:04:05")
		}
		table.Append(at, fill.Side, fmt.Sprintf("%.4f", fill.Price), fmt.Sprintf("%.2f", fill.Size))
	}
	table.Render()

	return nil
}

func runFillsAdd(_ *cobra.Command, _ []string) error {
	cfg, logger, owner, err := fillsSetup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if fillsPrice <= 0 || fillsPrice >= 1 {
		return fmt.Errorf("--price must be in (0, 1), got %f", fillsPrice)
	}
	if fillsSize <= 0 {
		return fmt.Errorf("--size must be positive, got %f", fillsSize)
	}

	timestamp := fillsAt
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	// Side validation happens in Append via NormalizeSide.
	fill := types.Fill{
		TokenID:   fillsToken,
		Side:      fillsSide,
		Price:     fillsPrice,
		Size:      fillsSize,
		Timestamp: timestamp,
	}

	cacheOnly, err := newLocalRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = cacheOnly.Close()
	}()

	err = cacheOnly.Append(context.Background(), owner, fill)
	if err != nil {
		return fmt.Errorf("append fill: %w", err)
	}

	fmt.Printf("Recorded %s %s %.2f @ %.4f for %s\n", fill.Side, fillsToken, fillsSize, fillsPrice, owner)
	return nil
}

func runFillsSetCost(_ *cobra.Command, _ []string) error {
	cfg, logger, owner, err := fillsSetup()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if fillsCost < 0 {
		return fmt.Errorf("--cost must be non-negative, got %f", fillsCost)
	}

	repo, err := newLocalRepository(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = repo.Close()
	}()

	err = repo.SetCostOverride(context.Background(), owner, fillsToken, fillsCost)
	if err != nil {
		return fmt.Errorf("set cost override: %w", err)
	}

	fmt.Printf("Cost basis for %s on %s set to %.4f\n", owner, fillsToken, fillsCost)
	return nil
}

// newLocalRepository opens the fill ledger without a remote source, for
// commands that only touch local state.
func newLocalRepository(cfg *config.Config, logger *zap.Logger) (*ledger.Repository, error) {
	sqliteCache, err := ledger.NewSQLiteCache(cfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	return ledger.NewRepository(nil, sqliteCache, logger), nil
}
