package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "pm-ledger",
	Short: "Polymarket position ledger and negative-risk scanner",
	Long: `pm-ledger keeps a local FIFO position and PnL ledger over Polymarket
fills and watches categorical markets for negative-risk arbitrage:
outcome asks summing below $1 (buy the basket) or bids summing above
$1 (sell it).

Fills are read remote-first from the Data API with a local SQLite
cache as fallback, so the ledger keeps working offline.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
