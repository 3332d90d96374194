package configmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/strategy"
)

// StrategyKnower is the subset of strategy.Registry the Manager needs for
// patch validation -- kept as an interface so configmanager never imports
// strategy's concrete registration details.
type StrategyKnower interface {
	IsKnown(id string) bool
	IDs() []string
}

// Manager is C7: the canonical source of runtime configuration, walking
// the four-tier fallback chain on every read, writing primary-only with
// multi-tier failover on every write, and serving reads from a 60-second
// cache in between (spec.md §4.7).
type Manager struct {
	tiers    []Tier
	cache    *cache
	registry StrategyKnower
	logger   zerolog.Logger
}

// New builds a Manager over tiers in priority order (data-manager HTTP,
// document store, relational store, startup defaults last).
func New(tiers []Tier, registry StrategyKnower, cacheTTL time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		tiers:    tiers,
		cache:    newCache(cacheTTL),
		registry: registry,
		logger:   logger.With().Str("component", "config_manager").Logger(),
	}
}

// GetApplicationConfig returns the current application config, consulting
// the cache first and falling back through the tier chain on a miss.
func (m *Manager) GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, bool, error) {
	if cfg, ok := m.cache.getAppConfig(); ok {
		return cfg, true, nil
	}
	cfg, err := m.readApplicationConfig(ctx)
	if err != nil {
		return nil, false, err
	}
	m.cache.putAppConfig(cfg)
	return cfg, false, nil
}

func (m *Manager) readApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error) {
	var lastErr error
	for _, t := range m.tiers {
		cfg, err := t.GetApplicationConfig(ctx)
		if err == nil {
			return cfg, nil
		}
		if errors.Is(err, ErrNotFound) {
			lastErr = err
			continue
		}
		m.logger.Warn().Err(err).Str("tier", t.Name()).Msg("application config read failed, trying next tier")
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, lastErr)
}

// GetStrategyConfig resolves the effective parameter bundle for
// (strategyID, symbol): the per-symbol override layered over the global
// default, which is in turn layered over the strategy's own
// DefaultParams(). symbol == "" resolves only the global scope.
func (m *Manager) GetStrategyConfig(ctx context.Context, strategyID, symbol string, defaults strategy.Params) (strategy.Params, error) {
	effective := strategy.Params{}
	for k, v := range defaults {
		effective[k] = v
	}

	global, err := m.readStrategyConfig(ctx, strategyID, models.ScopeGlobal)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if global != nil {
		for k, v := range global.Params {
			effective[k] = v
		}
	}

	if symbol != "" {
		override, err := m.readStrategyConfig(ctx, strategyID, symbol)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if override != nil {
			for k, v := range override.Params {
				effective[k] = v
			}
		}
	}

	return effective, nil
}

func (m *Manager) readStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error) {
	if cfg, ok := m.cache.getStrategyConfig(strategyID, scope); ok {
		return cfg, nil
	}
	var lastErr error = ErrNotFound
	for _, t := range m.tiers {
		cfg, err := t.GetStrategyConfig(ctx, strategyID, scope)
		if err == nil {
			m.cache.putStrategyConfig(cfg)
			return cfg, nil
		}
		if errors.Is(err, ErrNotFound) {
			lastErr = err
			continue
		}
		m.logger.Warn().Err(err).Str("tier", t.Name()).Str("strategy_id", strategyID).Str("scope", scope).
			Msg("strategy config read failed, trying next tier")
		lastErr = err
	}
	return nil, lastErr
}

// writeResult captures which tier accepted a write, for audit attribution.
type writeResult struct {
	tierName string
}

// writePrimaryOnly attempts each tier in order, stopping at the first
// success -- the "primary-only write, multi-read" semantics spec.md §9
// decides among the ambiguous fallback-chain options the source leaves
// unresolved.
func (m *Manager) writePrimaryOnly(ctx context.Context, write func(Tier) error) (*writeResult, error) {
	var lastErr error
	for _, t := range m.tiers {
		if err := write(t); err != nil {
			if errors.Is(err, ErrTierReadOnly) {
				continue
			}
			m.logger.Warn().Err(err).Str("tier", t.Name()).Msg("config write failed, trying next tier")
			lastErr = err
			continue
		}
		return &writeResult{tierName: t.Name()}, nil
	}
	return nil, fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, lastErr)
}

// UpdateApplicationConfig validates patch, persists it (primary-only) as a
// new version, appends an audit record, and invalidates the cache --
// unless dryRun is set, in which case only validation runs.
func (m *Manager) UpdateApplicationConfig(ctx context.Context, patch ApplicationConfigPatch, changedBy, reason string, dryRun bool) (*models.ApplicationConfig, error) {
	current, err := m.readApplicationConfig(ctx)
	if err != nil && !errors.Is(err, models.ErrConfigStoreUnavailable) {
		return nil, err
	}

	next := applyApplicationPatch(current, patch)
	if err := m.validateApplicationConfig(next); err != nil {
		return nil, err
	}
	if dryRun {
		return next, nil
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	if current == nil {
		next.CreatedAt = now
		next.Version = 1
	} else {
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
	}

	result, err := m.writePrimaryOnly(ctx, func(t Tier) error { return t.PutApplicationConfig(ctx, next) })
	if err != nil {
		return nil, err
	}

	m.appendAudit(ctx, result.tierName, models.AuditUpdate, toAuditMap(current), toAuditMap(next), changedBy, reason, "application")
	m.cache.invalidateAppConfig()
	return next, nil
}

func applyApplicationPatch(current *models.ApplicationConfig, patch ApplicationConfigPatch) *models.ApplicationConfig {
	next := &models.ApplicationConfig{}
	if current != nil {
		cp := *current
		next = &cp
	}
	if patch.EnabledStrategies != nil {
		next.EnabledStrategies = patch.EnabledStrategies
	}
	if patch.Symbols != nil {
		next.Symbols = patch.Symbols
	}
	if patch.CandlePeriods != nil {
		next.CandlePeriods = patch.CandlePeriods
	}
	if patch.MinConfidence != nil {
		next.MinConfidence = *patch.MinConfidence
	}
	if patch.MaxConfidence != nil {
		next.MaxConfidence = *patch.MaxConfidence
	}
	if patch.MaxPositions != nil {
		next.MaxPositions = *patch.MaxPositions
	}
	if patch.PositionSizes != nil {
		sizes := make([]decimal.Decimal, 0, len(patch.PositionSizes))
		for _, s := range patch.PositionSizes {
			if d, err := decimal.NewFromString(s); err == nil {
				sizes = append(sizes, d)
			}
		}
		next.PositionSizes = sizes
	}
	return next
}

// UpdateStrategyConfig validates and persists a patch to a strategy's
// global or per-symbol parameter bundle.
func (m *Manager) UpdateStrategyConfig(ctx context.Context, strategyID, scope string, patch map[string]interface{}, changedBy, reason string, dryRun bool) (*models.StrategyConfig, error) {
	if !m.registry.IsKnown(strategyID) {
		return nil, fmt.Errorf("%w: unknown strategy id %q", models.ErrValidation, strategyID)
	}
	if err := validateStrategyParams(patch); err != nil {
		return nil, err
	}

	current, _ := m.readStrategyConfig(ctx, strategyID, scope)

	next := &models.StrategyConfig{StrategyID: strategyID, Scope: scope, Params: map[string]interface{}{}}
	if current != nil {
		for k, v := range current.Params {
			next.Params[k] = v
		}
	}
	for k, v := range patch {
		next.Params[k] = v
	}

	if dryRun {
		return next, nil
	}

	now := time.Now().UTC()
	next.UpdatedAt = now
	if current == nil {
		next.CreatedAt = now
		next.Version = 1
	} else {
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
	}

	target := models.StrategyTarget(strategyID)
	action := models.AuditUpdate
	if scope != models.ScopeGlobal {
		target = models.StrategySymbolTarget(strategyID, scope)
	}
	if current == nil {
		action = models.AuditCreate
	}

	result, err := m.writePrimaryOnly(ctx, func(t Tier) error { return t.PutStrategyConfig(ctx, next) })
	if err != nil {
		return nil, err
	}

	m.appendAudit(ctx, result.tierName, action, strategyConfigAuditMap(current), strategyConfigAuditMap(next), changedBy, reason, target)
	m.cache.invalidateStrategyConfig(strategyID, scope)
	return next, nil
}

// DeleteStrategyConfig removes a strategy-global or per-symbol override.
func (m *Manager) DeleteStrategyConfig(ctx context.Context, strategyID, scope, changedBy, reason string) error {
	current, _ := m.readStrategyConfig(ctx, strategyID, scope)

	result, err := m.writePrimaryOnly(ctx, func(t Tier) error { return t.DeleteStrategyConfig(ctx, strategyID, scope) })
	if err != nil {
		return err
	}

	target := models.StrategyTarget(strategyID)
	if scope != models.ScopeGlobal {
		target = models.StrategySymbolTarget(strategyID, scope)
	}
	m.appendAudit(ctx, result.tierName, models.AuditDelete, strategyConfigAuditMap(current), nil, changedBy, reason, target)
	m.cache.invalidateStrategyConfig(strategyID, scope)
	return nil
}

// ListAudit returns the most-recent-first audit trail for target, trying
// tiers in order until one answers.
func (m *Manager) ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error) {
	var lastErr error
	for _, t := range m.tiers {
		recs, err := t.ListAudit(ctx, target, limit)
		if err == nil {
			return recs, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, lastErr)
}

// ForceRefresh bypasses the TTL and purges the cached application config,
// backing the admin "cache/refresh" endpoint (spec.md §6).
func (m *Manager) ForceRefresh() {
	m.cache.invalidateAppConfig()
}

func (m *Manager) appendAudit(ctx context.Context, tierName string, action models.AuditAction, oldCfg, newCfg map[string]interface{}, changedBy, reason, target string) {
	rec := &models.AuditRecord{
		Action: action, OldConfig: oldCfg, NewConfig: newCfg,
		ChangedBy: changedBy, ChangedAt: time.Now().UTC(), Reason: reason, Target: target,
	}
	for _, t := range m.tiers {
		if t.Name() == tierName {
			if err := t.AppendAudit(ctx, rec); err == nil {
				return
			}
			break
		}
	}
	for _, t := range m.tiers {
		if t.Name() == tierName {
			continue
		}
		if err := t.AppendAudit(ctx, rec); err == nil {
			return
		}
	}
	m.logger.Error().Str("target", target).Msg("audit record could not be persisted to any tier")
}

func toAuditMap(cfg *models.ApplicationConfig) map[string]interface{} {
	if cfg == nil {
		return nil
	}
	sizes := make([]string, len(cfg.PositionSizes))
	for i, d := range cfg.PositionSizes {
		sizes[i] = d.String()
	}
	return map[string]interface{}{
		"enabled_strategies": cfg.EnabledStrategies,
		"symbols":            cfg.Symbols,
		"candle_periods":     cfg.CandlePeriods,
		"min_confidence":     cfg.MinConfidence,
		"max_confidence":     cfg.MaxConfidence,
		"max_positions":      cfg.MaxPositions,
		"position_sizes":     sizes,
		"version":            cfg.Version,
	}
}

func strategyConfigAuditMap(cfg *models.StrategyConfig) map[string]interface{} {
	if cfg == nil {
		return nil
	}
	out := map[string]interface{}{"version": cfg.Version}
	for k, v := range cfg.Params {
		out[k] = v
	}
	return out
}
