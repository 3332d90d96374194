// Package store holds the shared relational-store plumbing used by the
// History Loader's time-series reads and the Configuration Manager's
// relational fallback tier -- one pooled *sql.DB, prepared the teacher's
// way (connection string builder, pool limits, IsConnectionError).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// DSNConfig mirrors the teacher's DatabaseConfig shape, trimmed to what a
// pooled Postgres connection needs.
type DSNConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps a pooled *sql.DB the way the teacher's database.DB does.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// NewConnection opens and pings a pooled Postgres connection.
func NewConnection(cfg DSNConfig, logger zerolog.Logger) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open relational store connection: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxConnections)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping relational store: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("database", cfg.Name).
		Msg("relational store connection established")

	return &DB{conn: conn, logger: logger}, nil
}

// Conn exposes the underlying *sql.DB for repositories in this package.
func (db *DB) Conn() *sql.DB { return db.conn }

// Close closes the pooled connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks reachability with the caller's deadline.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// ExecuteInTransaction runs fn inside a transaction, committing on success
// and rolling back on error or panic.
func (db *DB) ExecuteInTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(); commitErr != nil {
				db.logger.Error().Err(commitErr).Msg("failed to commit transaction")
				err = commitErr
			}
		}
	}()
	err = fn(tx)
	return err
}

// IsConnectionError reports whether err looks like a transient connection
// failure worth retrying, following the teacher's pq.Error-code check.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "08000", "08003", "08006", "08001", "08004":
			return true
		}
	}
	if err == context.DeadlineExceeded || err == context.Canceled {
		return true
	}
	return false
}
