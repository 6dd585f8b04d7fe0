package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// RemoteSource fetches fill history from the trade-history API.
type RemoteSource interface {
	Fills(ctx context.Context, owner, tokenID string) ([]types.Fill, error)
}

// LocalCache is the durable local fill store.
type LocalCache interface {
	Fills(ctx context.Context, owner, tokenID string) ([]types.Fill, error)
	Append(ctx context.Context, owner string, fill types.Fill) error
	CostOverride(ctx context.Context, owner, tokenID string) (float64, bool, error)
	SetCostOverride(ctx context.Context, owner, tokenID string, cost float64) error
	Close() error
}

// Repository is the two-tier fill ledger: the remote source is
// authoritative when reachable, the local cache answers when it is
// not. Reads prefer availability over freshness and never fail.
type Repository struct {
	remote RemoteSource
	cache  LocalCache
	logger *zap.Logger
}

// NewRepository creates a fill repository. The remote source may be
// nil, in which case all reads come from the cache.
func NewRepository(remote RemoteSource, cache LocalCache, logger *zap.Logger) *Repository {
	return &Repository{remote: remote, cache: cache, logger: logger}
}

// Fills returns the fill history for an owner on one outcome token.
// Remote fills win when the remote source answers with a non-empty
// history; otherwise the local cache answers; if both are unusable the
// result is empty. Never returns an error.
func (r *Repository) Fills(ctx context.Context, owner, tokenID string) []types.Fill {
	if r.remote != nil {
		fills, err := r.remote.Fills(ctx, owner, tokenID)
		if err == nil && len(fills) > 0 {
			FillsServedTotal.WithLabelValues("remote").Inc()
			return fills
		}
		if err != nil {
			RemoteFailuresTotal.Inc()
			r.logger.Warn("remote-fills-unavailable",
				zap.String("owner", owner),
				zap.String("token-id", tokenID),
				zap.Error(err))
		}
	}

	fills, err := r.cache.Fills(ctx, owner, tokenID)
	if err != nil {
		r.logger.Error("fill-cache-read-failed",
			zap.String("owner", owner),
			zap.String("token-id", tokenID),
			zap.Error(err))
		FillsServedTotal.WithLabelValues("empty").Inc()
		return []types.Fill{}
	}

	FillsServedTotal.WithLabelValues("cache").Inc()
	return fills
}

// Append records a fill in the local cache. Appends never touch the
// remote source; remotely-executed trades show up there on their own.
func (r *Repository) Append(ctx context.Context, owner string, fill types.Fill) error {
	side, ok := types.NormalizeSide(fill.Side)
	if !ok {
		return fmt.Errorf("invalid fill side %q", fill.Side)
	}
	if fill.TokenID == "" {
		return fmt.Errorf("fill has no token id")
	}
	fill.Side = side

	if err := r.cache.Append(ctx, owner, fill); err != nil {
		return fmt.Errorf("append fill for owner %s: %w", owner, err)
	}

	FillsAppendedTotal.Inc()
	r.logger.Debug("fill-appended",
		zap.String("owner", owner),
		zap.String("token-id", fill.TokenID),
		zap.String("side", fill.Side),
		zap.Float64("price", fill.Price),
		zap.Float64("size", fill.Size))
	return nil
}

// CostOverride returns the manually-set cost basis for a position, if
// any.
func (r *Repository) CostOverride(ctx context.Context, owner, tokenID string) (float64, bool) {
	cost, ok, err := r.cache.CostOverride(ctx, owner, tokenID)
	if err != nil {
		r.logger.Error("cost-override-read-failed",
			zap.String("owner", owner),
			zap.String("token-id", tokenID),
			zap.Error(err))
		return 0, false
	}
	return cost, ok
}

// SetCostOverride stores a manual cost basis for a position.
func (r *Repository) SetCostOverride(ctx context.Context, owner, tokenID string, cost float64) error {
	return r.cache.SetCostOverride(ctx, owner, tokenID, cost)
}

// Close closes the local cache.
func (r *Repository) Close() error {
	return r.cache.Close()
}
