package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/ledger"
	"github.com/synapsefi/pm-ledger/pkg/config"
)

// newFillRepository assembles the two-tier fill repository the CLI
// commands share: Data API first, local SQLite cache as fallback.
func newFillRepository(cfg *config.Config, logger *zap.Logger) (*ledger.Repository, error) {
	sqliteCache, err := ledger.NewSQLiteCache(cfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	var remote ledger.RemoteSource
	if cfg.DataBaseURL != "" {
		remote = ledger.NewRemoteClient(ledger.RemoteClientConfig{
			BaseURL:        cfg.DataBaseURL,
			APIKey:         cfg.APIKey,
			Secret:         cfg.Secret,
			Passphrase:     cfg.Passphrase,
			Address:        cfg.OwnerAddress,
			Timeout:        cfg.RemoteTimeout,
			RequestsPerSec: cfg.RemoteRequestsSec,
			Logger:         logger,
		})
	}

	return ledger.NewRepository(remote, sqliteCache, logger), nil
}
