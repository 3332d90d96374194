package configmanager

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/strategy"
)

// memTier is an in-memory Tier used to exercise Manager without a real
// data-manager/document/relational backend.
type memTier struct {
	name      string
	appConfig *models.ApplicationConfig
	strategy  map[string]*models.StrategyConfig
	audit     []models.AuditRecord
	readOnly  bool
}

func newMemTier(name string) *memTier {
	return &memTier{name: name, strategy: map[string]*models.StrategyConfig{}}
}

func (t *memTier) Name() string { return t.name }

func (t *memTier) GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error) {
	if t.appConfig == nil {
		return nil, ErrNotFound
	}
	cp := *t.appConfig
	return &cp, nil
}

func (t *memTier) PutApplicationConfig(ctx context.Context, cfg *models.ApplicationConfig) error {
	if t.readOnly {
		return ErrTierReadOnly
	}
	cp := *cfg
	t.appConfig = &cp
	return nil
}

func (t *memTier) GetStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error) {
	cfg, ok := t.strategy[strategyID+"/"+scope]
	if !ok {
		return nil, ErrNotFound
	}
	return cfg, nil
}

func (t *memTier) PutStrategyConfig(ctx context.Context, cfg *models.StrategyConfig) error {
	if t.readOnly {
		return ErrTierReadOnly
	}
	t.strategy[cfg.StrategyID+"/"+cfg.Scope] = cfg
	return nil
}

func (t *memTier) DeleteStrategyConfig(ctx context.Context, strategyID, scope string) error {
	if t.readOnly {
		return ErrTierReadOnly
	}
	delete(t.strategy, strategyID+"/"+scope)
	return nil
}

func (t *memTier) AppendAudit(ctx context.Context, rec *models.AuditRecord) error {
	if t.readOnly {
		return ErrTierReadOnly
	}
	t.audit = append(t.audit, *rec)
	return nil
}

func (t *memTier) ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error) {
	var out []models.AuditRecord
	for i := len(t.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if t.audit[i].Target == target {
			out = append(out, t.audit[i])
		}
	}
	return out, nil
}

// fakeRegistry is a minimal StrategyKnower for tests.
type fakeRegistry struct{ ids []string }

func (r *fakeRegistry) IsKnown(id string) bool {
	for _, known := range r.ids {
		if known == id {
			return true
		}
	}
	return false
}

func (r *fakeRegistry) IDs() []string { return r.ids }

func validPatch() ApplicationConfigPatch {
	minC, maxC := 0.6, 0.9
	maxPos := 5
	return ApplicationConfigPatch{
		EnabledStrategies: []string{"ema21_pullback"},
		Symbols:           []string{"BTCUSDT"},
		CandlePeriods:     []string{"1h"},
		MinConfidence:     &minC,
		MaxConfidence:     &maxC,
		MaxPositions:      &maxPos,
		PositionSizes:     []string{"0.1"},
	}
}

func TestUpdateApplicationConfigCreatesFirstVersion(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	cfg, err := mgr.UpdateApplicationConfig(context.Background(), validPatch(), "alice", "initial setup", false)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	require.Len(t, primary.audit, 1)
	assert.Equal(t, models.AuditUpdate, primary.audit[0].Action)
	assert.Equal(t, "alice", primary.audit[0].ChangedBy)
}

func TestUpdateApplicationConfigRejectsUnknownStrategy(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	patch := validPatch()
	patch.EnabledStrategies = []string{"not_a_real_strategy"}
	_, err := mgr.UpdateApplicationConfig(context.Background(), patch, "alice", "oops", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateApplicationConfigRejectsBadSymbol(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	patch := validPatch()
	patch.Symbols = []string{"nope"}
	_, err := mgr.UpdateApplicationConfig(context.Background(), patch, "alice", "oops", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateApplicationConfigDryRunDoesNotPersist(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	cfg, err := mgr.UpdateApplicationConfig(context.Background(), validPatch(), "alice", "dry run", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Symbols)
	assert.Nil(t, primary.appConfig)
	assert.Empty(t, primary.audit)
}

func TestUpdateApplicationConfigFallsBackWhenPrimaryReadOnly(t *testing.T) {
	primary := newMemTier("primary")
	primary.readOnly = true
	secondary := newMemTier("secondary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary, secondary}, registry, time.Minute, zerolog.Nop())

	cfg, err := mgr.UpdateApplicationConfig(context.Background(), validPatch(), "alice", "failover", false)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Version)
	assert.Nil(t, primary.appConfig)
	require.NotNil(t, secondary.appConfig)
	require.Len(t, secondary.audit, 1)
}

func TestGetApplicationConfigCachesAcrossCalls(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	_, err := mgr.UpdateApplicationConfig(context.Background(), validPatch(), "alice", "setup", false)
	require.NoError(t, err)

	_, cacheHit, err := mgr.GetApplicationConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, cacheHit, "cache invalidated by the write, first read should miss")

	_, cacheHit, err = mgr.GetApplicationConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cacheHit, "second read within the TTL should hit the cache")
}

func TestGetStrategyConfigOverlaysDefaultsGlobalAndSymbol(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	defaults := strategy.Params{"tolerance_pct": 0.3, "period": 21.0}

	effective, err := mgr.GetStrategyConfig(context.Background(), "ema21_pullback", "", defaults)
	require.NoError(t, err)
	assert.Equal(t, 0.3, effective["tolerance_pct"])

	_, err = mgr.UpdateStrategyConfig(context.Background(), "ema21_pullback", models.ScopeGlobal,
		map[string]interface{}{"tolerance_pct": 0.5}, "alice", "widen tolerance", false)
	require.NoError(t, err)

	effective, err = mgr.GetStrategyConfig(context.Background(), "ema21_pullback", "", defaults)
	require.NoError(t, err)
	assert.Equal(t, 0.5, effective["tolerance_pct"])
	assert.Equal(t, 21.0, effective["period"], "unrelated default should survive the global override")

	_, err = mgr.UpdateStrategyConfig(context.Background(), "ema21_pullback", "BTCUSDT",
		map[string]interface{}{"tolerance_pct": 0.8}, "alice", "btc-specific override", false)
	require.NoError(t, err)

	effective, err = mgr.GetStrategyConfig(context.Background(), "ema21_pullback", "BTCUSDT", defaults)
	require.NoError(t, err)
	assert.Equal(t, 0.8, effective["tolerance_pct"], "symbol override should win over global")

	effective, err = mgr.GetStrategyConfig(context.Background(), "ema21_pullback", "ETHUSDT", defaults)
	require.NoError(t, err)
	assert.Equal(t, 0.5, effective["tolerance_pct"], "a different symbol should not see BTC's override")
}

func TestUpdateStrategyConfigRejectsOutOfBoundParam(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	_, err := mgr.UpdateStrategyConfig(context.Background(), "ema21_pullback", models.ScopeGlobal,
		map[string]interface{}{"threshold": 500.0}, "alice", "bad threshold", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateStrategyConfigRejectsUnknownStrategy(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	_, err := mgr.UpdateStrategyConfig(context.Background(), "not_real", models.ScopeGlobal,
		map[string]interface{}{"period": 10.0}, "alice", "typo", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteStrategyConfigRemovesOverride(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	_, err := mgr.UpdateStrategyConfig(context.Background(), "ema21_pullback", "BTCUSDT",
		map[string]interface{}{"tolerance_pct": 0.8}, "alice", "override", false)
	require.NoError(t, err)

	err = mgr.DeleteStrategyConfig(context.Background(), "ema21_pullback", "BTCUSDT", "alice", "revert")
	require.NoError(t, err)

	effective, err := mgr.GetStrategyConfig(context.Background(), "ema21_pullback", "BTCUSDT", strategy.Params{"tolerance_pct": 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.3, effective["tolerance_pct"], "deleted override should fall back to the default")
}

func TestListAuditReturnsMostRecentFirst(t *testing.T) {
	primary := newMemTier("primary")
	registry := &fakeRegistry{ids: []string{"ema21_pullback"}}
	mgr := New([]Tier{primary}, registry, time.Minute, zerolog.Nop())

	_, err := mgr.UpdateApplicationConfig(context.Background(), validPatch(), "alice", "v1", false)
	require.NoError(t, err)
	patch := validPatch()
	maxPos := 10
	patch.MaxPositions = &maxPos
	_, err = mgr.UpdateApplicationConfig(context.Background(), patch, "bob", "v2", false)
	require.NoError(t, err)

	recs, err := mgr.ListAudit(context.Background(), "application", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "bob", recs[0].ChangedBy, "most recent change should come first")
	assert.Equal(t, "alice", recs[1].ChangedBy)
}
