package configmanager

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// EnvDefaultsTier is the last-resort tier (spec.md §4.7 tier 4): the
// application config an operator gets at boot when every persistence
// tier is unreachable, loaded from the environment table in spec.md §6.
// It is read-only -- writes and audit are rejected with ErrTierReadOnly,
// and strategy-config reads always miss so strategies fall back to their
// own DefaultParams().
type EnvDefaultsTier struct {
	snapshot *models.ApplicationConfig
}

// NewEnvDefaultsTier builds the tier from the process environment,
// applying the defaults spec.md §6 documents when a variable is unset.
func NewEnvDefaultsTier() *EnvDefaultsTier {
	now := time.Now().UTC()
	return &EnvDefaultsTier{snapshot: &models.ApplicationConfig{
		EnabledStrategies: []string{},
		Symbols:           splitEnv("SUPPORTED_SYMBOLS", "BTCUSDT,ETHUSDT,ADAUSDT"),
		CandlePeriods:     splitEnv("SUPPORTED_TIMEFRAMES", "15m,1h"),
		MinConfidence:     envFloat("MIN_CONFIDENCE", 0.6),
		MaxConfidence:     envFloat("MAX_CONFIDENCE", 0.95),
		MaxPositions:      envInt("MAX_POSITIONS", 5),
		PositionSizes:     []decimal.Decimal{decimal.NewFromFloat(0.1)},
		Version:           0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}}
}

// EnableAllKnownStrategies seeds enabled_strategies with every id the
// registry knows, since an empty set would fail validation -- used only
// when no persisted config exists yet at boot.
func (t *EnvDefaultsTier) EnableAllKnownStrategies(ids []string) {
	t.snapshot.EnabledStrategies = ids
}

func (t *EnvDefaultsTier) Name() string { return "env_defaults" }

func (t *EnvDefaultsTier) GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error) {
	cp := *t.snapshot
	return &cp, nil
}

func (t *EnvDefaultsTier) PutApplicationConfig(ctx context.Context, cfg *models.ApplicationConfig) error {
	return ErrTierReadOnly
}

func (t *EnvDefaultsTier) GetStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error) {
	return nil, ErrNotFound
}

func (t *EnvDefaultsTier) PutStrategyConfig(ctx context.Context, cfg *models.StrategyConfig) error {
	return ErrTierReadOnly
}

func (t *EnvDefaultsTier) DeleteStrategyConfig(ctx context.Context, strategyID, scope string) error {
	return ErrTierReadOnly
}

func (t *EnvDefaultsTier) AppendAudit(ctx context.Context, rec *models.AuditRecord) error {
	return ErrTierReadOnly
}

func (t *EnvDefaultsTier) ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error) {
	return nil, nil
}

func splitEnv(key, def string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		raw = def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
