package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationConfig is the singleton versioned document governing which
// strategies run, on which symbols/timeframes, with which confidence
// window and position sizing.
type ApplicationConfig struct {
	EnabledStrategies []string          `json:"enabled_strategies" bson:"enabled_strategies" validate:"required,min=1"`
	Symbols           []string          `json:"symbols" bson:"symbols" validate:"required,min=1"`
	CandlePeriods     []string          `json:"candle_periods" bson:"candle_periods" validate:"required,min=1"`
	MinConfidence     float64           `json:"min_confidence" bson:"min_confidence"`
	MaxConfidence     float64           `json:"max_confidence" bson:"max_confidence"`
	MaxPositions      int               `json:"max_positions" bson:"max_positions" validate:"min=1"`
	PositionSizes     []decimal.Decimal `json:"position_sizes" bson:"position_sizes" validate:"required,min=1"`
	Version           int               `json:"version" bson:"version"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" bson:"updated_at"`
}

// Validate enforces the spec.md §4.7 validation rules that do not require
// consulting the known-strategy-id set or the symbol-format regex (those
// live in configmanager, which has that context).
func (c *ApplicationConfig) Validate() error {
	if len(c.EnabledStrategies) == 0 {
		return &MarketDataError{Field: "enabled_strategies", Message: "must be a non-empty set"}
	}
	if len(c.Symbols) == 0 {
		return &MarketDataError{Field: "symbols", Message: "must be non-empty"}
	}
	if len(c.CandlePeriods) == 0 {
		return &MarketDataError{Field: "candle_periods", Message: "must be non-empty"}
	}
	for _, tf := range c.CandlePeriods {
		if !IsSupportedTimeframe(tf) {
			return &MarketDataError{Field: "candle_periods", Value: tf, Message: "not in the supported timeframe set"}
		}
	}
	if !(c.MinConfidence >= 0 && c.MinConfidence < c.MaxConfidence && c.MaxConfidence <= 1) {
		return &MarketDataError{Field: "min_confidence/max_confidence", Message: "require 0 <= min < max <= 1"}
	}
	if c.MaxPositions < 1 {
		return &MarketDataError{Field: "max_positions", Message: "must be a positive integer"}
	}
	if len(c.PositionSizes) == 0 {
		return &MarketDataError{Field: "position_sizes", Message: "must be a non-empty list of positive decimals"}
	}
	for _, p := range c.PositionSizes {
		if p.Sign() <= 0 {
			return &MarketDataError{Field: "position_sizes", Value: p, Message: "all position sizes must be positive"}
		}
	}
	return nil
}

// Scope identifies the target of a StrategyConfig record: "global" or a
// per-symbol override.
const ScopeGlobal = "global"

// StrategyConfig is a per-strategy parameter bundle, either the global
// default or a per-symbol override layered on top of it.
type StrategyConfig struct {
	StrategyID string                 `json:"strategy_id" bson:"strategy_id"`
	Scope      string                 `json:"scope" bson:"scope"` // "global" or a symbol
	Params     map[string]interface{} `json:"params" bson:"params"`
	Version    int                    `json:"version" bson:"version"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at" bson:"updated_at"`
}

// AuditAction enumerates the append-only audit record kinds.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditRecord is an append-only entry describing a configuration change.
type AuditRecord struct {
	Action    AuditAction            `json:"action" bson:"action"`
	OldConfig map[string]interface{} `json:"old_config" bson:"old_config"`
	NewConfig map[string]interface{} `json:"new_config" bson:"new_config"`
	ChangedBy string                 `json:"changed_by" bson:"changed_by"`
	ChangedAt time.Time              `json:"changed_at" bson:"changed_at"`
	Reason    string                 `json:"reason" bson:"reason"`
	Target    string                 `json:"target" bson:"target"` // "application" | "strategy:<id>" | "strategy:<id>:<symbol>"
}

// StrategyTarget builds the audit target string for a strategy-global
// config change.
func StrategyTarget(strategyID string) string {
	return "strategy:" + strategyID
}

// StrategySymbolTarget builds the audit target string for a per-symbol
// strategy override change.
func StrategySymbolTarget(strategyID, symbol string) string {
	return "strategy:" + strategyID + ":" + symbol
}
