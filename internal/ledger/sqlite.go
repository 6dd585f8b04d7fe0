package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fills (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	owner     TEXT NOT NULL,
	token_id  TEXT NOT NULL,
	side      TEXT NOT NULL,
	price     REAL NOT NULL,
	size      REAL NOT NULL,
	timestamp INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_fills_owner_token ON fills(owner, token_id);

CREATE TABLE IF NOT EXISTS cost_overrides (
	owner    TEXT NOT NULL,
	token_id TEXT NOT NULL,
	cost     REAL NOT NULL,
	PRIMARY KEY (owner, token_id)
);
`

// SQLiteCache is the local fill cache, keyed by (owner, token).
// Insertion order is preserved so equal-timestamp fills replay in the
// order they were recorded.
type SQLiteCache struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteCache opens (or creates) the cache database at the given
// path and applies the schema.
func NewSQLiteCache(path string, logger *zap.Logger) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fill cache %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply fill cache schema: %w", err)
	}

	logger.Info("fill-cache-opened", zap.String("path", path))
	return &SQLiteCache{db: db, logger: logger}, nil
}

// Fills returns the cached fills for an owner and token in insertion
// order.
func (c *SQLiteCache) Fills(ctx context.Context, owner, tokenID string) ([]types.Fill, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT token_id, side, price, size, timestamp
		 FROM fills WHERE owner = ? AND token_id = ? ORDER BY seq`,
		owner, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query cached fills: %w", err)
	}
	defer rows.Close()

	var fills []types.Fill
	for rows.Next() {
		var f types.Fill
		if err := rows.Scan(&f.TokenID, &f.Side, &f.Price, &f.Size, &f.Timestamp); err != nil {
			return nil, fmt.Errorf("scan cached fill: %w", err)
		}
		fills = append(fills, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached fills: %w", err)
	}

	return fills, nil
}

// Append records one fill for an owner and token.
func (c *SQLiteCache) Append(ctx context.Context, owner string, fill types.Fill) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO fills (owner, token_id, side, price, size, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		owner, fill.TokenID, fill.Side, fill.Price, fill.Size, fill.Timestamp)
	if err != nil {
		return fmt.Errorf("append fill: %w", err)
	}
	return nil
}

// CostOverride returns the manually-set cost basis for a position, if
// one exists. Used when a position has no recorded fills.
func (c *SQLiteCache) CostOverride(ctx context.Context, owner, tokenID string) (float64, bool, error) {
	var cost float64
	err := c.db.QueryRowContext(ctx,
		`SELECT cost FROM cost_overrides WHERE owner = ? AND token_id = ?`,
		owner, tokenID).Scan(&cost)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query cost override: %w", err)
	}
	return cost, true, nil
}

// SetCostOverride stores a manual cost basis for a position.
func (c *SQLiteCache) SetCostOverride(ctx context.Context, owner, tokenID string, cost float64) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cost_overrides (owner, token_id, cost) VALUES (?, ?, ?)
		 ON CONFLICT (owner, token_id) DO UPDATE SET cost = excluded.cost`,
		owner, tokenID, cost)
	if err != nil {
		return fmt.Errorf("set cost override: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
