package publisher

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/store"
)

// PostgresSignalStore appends generated signals to a `signals` audit
// table, mirroring the prepared-statement shape historyloader's
// PostgresCandleStore uses for reads.
type PostgresSignalStore struct {
	db         *store.DB
	insertStmt *sql.Stmt
}

// NewPostgresSignalStore prepares the insert once.
func NewPostgresSignalStore(db *store.DB) (*PostgresSignalStore, error) {
	stmt, err := db.Conn().Prepare(`
		INSERT INTO signals (strategy_id, symbol, timeframe, action, confidence, price, stop_loss, take_profit, strength, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare signal insert statement: %w", err)
	}
	return &PostgresSignalStore{db: db, insertStmt: stmt}, nil
}

// AppendSignal persists one signal. It is an append-only audit copy: the
// Engine and Publisher never read it back on the hot path.
func (s *PostgresSignalStore) AppendSignal(ctx context.Context, sig *models.Signal) error {
	metadata, err := json.Marshal(sig.Metadata)
	if err != nil {
		return fmt.Errorf("marshal signal metadata: %w", err)
	}

	_, err = s.insertStmt.ExecContext(ctx,
		sig.StrategyID, sig.Symbol, sig.Timeframe, string(sig.Action), sig.Confidence, sig.Price,
		sig.StopLoss, sig.TakeProfit, string(sig.Strength), metadata, sig.Timestamp,
	)
	if err != nil {
		if store.IsConnectionError(err) {
			return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("signal insert failed: %w", err)
	}
	return nil
}

// Close releases the prepared statement.
func (s *PostgresSignalStore) Close() error {
	if s.insertStmt == nil {
		return nil
	}
	return s.insertStmt.Close()
}
