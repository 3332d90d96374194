package configmanager

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/store"
)

// PostgresTier is the relational fallback tier (spec.md §4.7 tier 3),
// grounded on the teacher's OHLCVRepository prepared-statement shape,
// retargeted from an ohlcv table to application_config, strategy_config
// and audit_record tables.
type PostgresTier struct {
	db *store.DB
}

// NewPostgresTier wraps an already-connected relational store.
func NewPostgresTier(db *store.DB) *PostgresTier {
	return &PostgresTier{db: db}
}

func (t *PostgresTier) Name() string { return "postgres" }

func (t *PostgresTier) GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error) {
	row := t.db.Conn().QueryRowContext(ctx, `
		SELECT enabled_strategies, symbols, candle_periods, min_confidence,
		       max_confidence, max_positions, position_sizes, version,
		       created_at, updated_at
		FROM application_config
		ORDER BY version DESC LIMIT 1
	`)

	var enabled, symbols, periods, sizes []byte
	cfg := &models.ApplicationConfig{}
	err := row.Scan(&enabled, &symbols, &periods, &cfg.MinConfidence, &cfg.MaxConfidence,
		&cfg.MaxPositions, &sizes, &cfg.Version, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, t.classify(err)
	}
	if err := json.Unmarshal(enabled, &cfg.EnabledStrategies); err != nil {
		return nil, fmt.Errorf("decode enabled_strategies: %w", err)
	}
	if err := json.Unmarshal(symbols, &cfg.Symbols); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}
	if err := json.Unmarshal(periods, &cfg.CandlePeriods); err != nil {
		return nil, fmt.Errorf("decode candle_periods: %w", err)
	}
	var rawSizes []string
	if err := json.Unmarshal(sizes, &rawSizes); err != nil {
		return nil, fmt.Errorf("decode position_sizes: %w", err)
	}
	cfg.PositionSizes = make([]decimal.Decimal, 0, len(rawSizes))
	for _, s := range rawSizes {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("decode position_sizes entry %q: %w", s, err)
		}
		cfg.PositionSizes = append(cfg.PositionSizes, d)
	}
	return cfg, nil
}

func (t *PostgresTier) PutApplicationConfig(ctx context.Context, cfg *models.ApplicationConfig) error {
	enabled, _ := json.Marshal(cfg.EnabledStrategies)
	symbols, _ := json.Marshal(cfg.Symbols)
	periods, _ := json.Marshal(cfg.CandlePeriods)
	sizes := make([]string, len(cfg.PositionSizes))
	for i, d := range cfg.PositionSizes {
		sizes[i] = d.String()
	}
	sizesJSON, _ := json.Marshal(sizes)

	return t.db.ExecuteInTransaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO application_config
				(enabled_strategies, symbols, candle_periods, min_confidence,
				 max_confidence, max_positions, position_sizes, version,
				 created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING version
		`, enabled, symbols, periods, cfg.MinConfidence, cfg.MaxConfidence,
			cfg.MaxPositions, sizesJSON, cfg.Version, cfg.CreatedAt, cfg.UpdatedAt,
		).Scan(&cfg.Version)
		if err != nil {
			return t.classify(err)
		}
		return nil
	})
}

func (t *PostgresTier) GetStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error) {
	row := t.db.Conn().QueryRowContext(ctx, `
		SELECT params, version, created_at, updated_at
		FROM strategy_config
		WHERE strategy_id = $1 AND scope = $2
		ORDER BY version DESC LIMIT 1
	`, strategyID, scope)

	var raw []byte
	cfg := &models.StrategyConfig{StrategyID: strategyID, Scope: scope}
	if err := row.Scan(&raw, &cfg.Version, &cfg.CreatedAt, &cfg.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, t.classify(err)
	}
	if err := json.Unmarshal(raw, &cfg.Params); err != nil {
		return nil, fmt.Errorf("decode strategy params: %w", err)
	}
	return cfg, nil
}

func (t *PostgresTier) PutStrategyConfig(ctx context.Context, cfg *models.StrategyConfig) error {
	raw, _ := json.Marshal(cfg.Params)
	return t.db.ExecuteInTransaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO strategy_config (strategy_id, scope, params, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING version
		`, cfg.StrategyID, cfg.Scope, raw, cfg.Version, cfg.CreatedAt, cfg.UpdatedAt).Scan(&cfg.Version)
		if err != nil {
			return t.classify(err)
		}
		return nil
	})
}

func (t *PostgresTier) DeleteStrategyConfig(ctx context.Context, strategyID, scope string) error {
	_, err := t.db.Conn().ExecContext(ctx, `
		DELETE FROM strategy_config WHERE strategy_id = $1 AND scope = $2
	`, strategyID, scope)
	if err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *PostgresTier) AppendAudit(ctx context.Context, rec *models.AuditRecord) error {
	oldCfg, _ := json.Marshal(rec.OldConfig)
	newCfg, _ := json.Marshal(rec.NewConfig)
	_, err := t.db.Conn().ExecContext(ctx, `
		INSERT INTO audit_record (action, old_config, new_config, changed_by, changed_at, reason, target)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rec.Action, oldCfg, newCfg, rec.ChangedBy, rec.ChangedAt, rec.Reason, rec.Target)
	if err != nil {
		return t.classify(err)
	}
	return nil
}

func (t *PostgresTier) ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error) {
	rows, err := t.db.Conn().QueryContext(ctx, `
		SELECT action, old_config, new_config, changed_by, changed_at, reason, target
		FROM audit_record
		WHERE target = $1
		ORDER BY changed_at DESC
		LIMIT $2
	`, target, limit)
	if err != nil {
		return nil, t.classify(err)
	}
	defer rows.Close()

	var out []models.AuditRecord
	for rows.Next() {
		var rec models.AuditRecord
		var oldCfg, newCfg []byte
		if err := rows.Scan(&rec.Action, &oldCfg, &newCfg, &rec.ChangedBy, &rec.ChangedAt, &rec.Reason, &rec.Target); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		json.Unmarshal(oldCfg, &rec.OldConfig)
		json.Unmarshal(newCfg, &rec.NewConfig)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *PostgresTier) classify(err error) error {
	if store.IsConnectionError(err) {
		return fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return err
}
