package storage

import (
	"context"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// Storage persists basket proposals and portfolio snapshots.
type Storage interface {
	// StoreProposal stores a detected basket proposal.
	StoreProposal(ctx context.Context, p *arbitrage.BasketProposal) error

	// StoreSnapshot stores a computed portfolio view.
	StoreSnapshot(ctx context.Context, view types.PortfolioView) error

	// Close closes the storage connection.
	Close() error
}
