package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/synapsefi/pm-ledger/internal/app"
	"github.com/synapsefi/pm-ledger/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the ledger service",
	Long: `Starts the pm-ledger service, which will:
1. Discover active markets from the Gamma API
2. Poll their top-of-book quotes (optionally supplemented by websocket)
3. Detect negative-risk baskets and store proposals
4. Serve the portfolio and fills API over HTTP

Use --single-market to track only one market for debugging.`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("single-market", "s", "", "Track only a single market by slug (for debugging)")
}

func runService(cmd *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	singleMarket, _ := cmd.Flags().GetString("single-market")

	application, err := app.New(cfg, logger, &app.Options{
		SingleMarket: singleMarket,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
