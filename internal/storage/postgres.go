package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/internal/arbitrage"
	"github.com/synapsefi/pm-ledger/pkg/types"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreProposal stores a basket proposal. Legs go into a JSONB column
// so N-outcome markets need no schema change.
func (p *PostgresStorage) StoreProposal(ctx context.Context, proposal *arbitrage.BasketProposal) error {
	legsJSON, err := json.Marshal(proposal.Legs)
	if err != nil {
		return fmt.Errorf("marshal legs: %w", err)
	}

	query := `
		INSERT INTO basket_proposals (
			id, market_id, market_slug, market_question, side,
			sum_ask, sum_bid, margin, margin_bps, tick_size, neg_risk,
			legs, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err = p.db.ExecContext(ctx, query,
		proposal.ID,
		proposal.MarketID,
		proposal.MarketSlug,
		proposal.Question,
		proposal.Side,
		proposal.SumAsk,
		proposal.SumBid,
		proposal.Margin,
		proposal.MarginBPS,
		proposal.TickSize,
		proposal.NegRisk,
		legsJSON,
		proposal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}

	p.logger.Debug("proposal-stored",
		zap.String("proposal-id", proposal.ID),
		zap.String("market-slug", proposal.MarketSlug),
		zap.Int("leg-count", len(proposal.Legs)))

	return nil
}

// StoreSnapshot stores a portfolio view with its positions as JSONB.
func (p *PostgresStorage) StoreSnapshot(ctx context.Context, view types.PortfolioView) error {
	positionsJSON, err := json.Marshal(view.Positions)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}

	query := `
		INSERT INTO portfolio_snapshots (
			owner, market_id, total_qty, total_value,
			total_realized, total_unrealized, positions, taken_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err = p.db.ExecContext(ctx, query,
		view.Owner,
		view.MarketID,
		view.TotalQty,
		view.TotalValue,
		view.TotalRealized,
		view.TotalUnrealized,
		positionsJSON,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	p.logger.Debug("snapshot-stored",
		zap.String("owner", view.Owner),
		zap.String("market-id", view.MarketID),
		zap.Int("position-count", len(view.Positions)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
