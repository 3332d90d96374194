package historyloader

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/store"
)

// PostgresCandleStore reads closed candles from a relational `candles`
// table, mirroring the teacher's OHLCVRepository prepared-statement shape
// but retargeted to a read-only time-series query (spec.md excludes
// candle storage as a Non-goal -- this system only consumes candles).
type PostgresCandleStore struct {
	db       *store.DB
	selectStmt *sql.Stmt
}

// NewPostgresCandleStore prepares the recent-window query once.
func NewPostgresCandleStore(db *store.DB) (*PostgresCandleStore, error) {
	stmt, err := db.Conn().Prepare(`
		SELECT open_time, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND timeframe = $2 AND open_time <= $3
		ORDER BY open_time DESC
		LIMIT $4
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare candle select statement: %w", err)
	}
	return &PostgresCandleStore{db: db, selectStmt: stmt}, nil
}

// FetchRecent returns the most recent n candles at or before end, ordered
// ascending by open_time as the Loader expects.
func (s *PostgresCandleStore) FetchRecent(ctx context.Context, symbol, timeframe string, n int, end time.Time) ([]models.Candle, error) {
	rows, err := s.selectStmt.QueryContext(ctx, symbol, timeframe, end, n)
	if err != nil {
		if store.IsConnectionError(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
		}
		return nil, fmt.Errorf("candle query failed: %w", err)
	}
	defer rows.Close()

	var reversed []models.Candle
	for rows.Next() {
		var c models.Candle
		c.Symbol = symbol
		c.Timeframe = timeframe
		if err := rows.Scan(&c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("candle row scan failed: %w", err)
		}
		reversed = append(reversed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candle row iteration failed: %w", err)
	}

	out := make([]models.Candle, len(reversed))
	for i, c := range reversed {
		out[len(reversed)-1-i] = c
	}
	return out, nil
}

// Close releases the prepared statement.
func (s *PostgresCandleStore) Close() error {
	if s.selectStmt == nil {
		return nil
	}
	return s.selectStmt.Close()
}
