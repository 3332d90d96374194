package configmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// MongoTier is the document-store fallback tier (spec.md §4.7 tier 2).
// Every application_config write inserts a new document and reads take the
// one with the highest version; strategy_config works the same way per
// (strategy_id, scope); audit is append-only and read back by target,
// newest changed_at first (spec.md §6). This type creates no indexes.
type MongoTier struct {
	appConfigs  *mongo.Collection
	strategyCfg *mongo.Collection
	audit       *mongo.Collection
}

// NewMongoTier wires collections on db following the names spec.md §6
// lists as the persisted-state collections.
func NewMongoTier(db *mongo.Database) *MongoTier {
	return &MongoTier{
		appConfigs:  db.Collection("application_config"),
		strategyCfg: db.Collection("strategy_config"),
		audit:       db.Collection("audit_record"),
	}
}

func (t *MongoTier) Name() string { return "mongo" }

type mongoAppConfig struct {
	EnabledStrategies []string  `bson:"enabled_strategies"`
	Symbols           []string  `bson:"symbols"`
	CandlePeriods     []string  `bson:"candle_periods"`
	MinConfidence     float64   `bson:"min_confidence"`
	MaxConfidence     float64   `bson:"max_confidence"`
	MaxPositions      int       `bson:"max_positions"`
	PositionSizes     []string  `bson:"position_sizes"`
	Version           int       `bson:"version"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func (t *MongoTier) GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	var doc mongoAppConfig
	err := t.appConfigs.FindOne(ctx, bson.D{}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return doc.toModel(), nil
}

func (t *MongoTier) PutApplicationConfig(ctx context.Context, cfg *models.ApplicationConfig) error {
	doc := fromModel(cfg)
	_, err := t.appConfigs.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return nil
}

type mongoStrategyConfig struct {
	StrategyID string                 `bson:"strategy_id"`
	Scope      string                 `bson:"scope"`
	Params     map[string]interface{} `bson:"params"`
	Version    int                    `bson:"version"`
	CreatedAt  time.Time              `bson:"created_at"`
	UpdatedAt  time.Time              `bson:"updated_at"`
}

func (t *MongoTier) GetStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	var doc mongoStrategyConfig
	err := t.strategyCfg.FindOne(ctx, bson.D{{Key: "strategy_id", Value: strategyID}, {Key: "scope", Value: scope}}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return &models.StrategyConfig{
		StrategyID: doc.StrategyID, Scope: doc.Scope, Params: doc.Params,
		Version: doc.Version, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (t *MongoTier) PutStrategyConfig(ctx context.Context, cfg *models.StrategyConfig) error {
	_, err := t.strategyCfg.InsertOne(ctx, mongoStrategyConfig{
		StrategyID: cfg.StrategyID, Scope: cfg.Scope, Params: cfg.Params,
		Version: cfg.Version, CreatedAt: cfg.CreatedAt, UpdatedAt: cfg.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return nil
}

func (t *MongoTier) DeleteStrategyConfig(ctx context.Context, strategyID, scope string) error {
	_, err := t.strategyCfg.DeleteMany(ctx, bson.D{{Key: "strategy_id", Value: strategyID}, {Key: "scope", Value: scope}})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return nil
}

func (t *MongoTier) AppendAudit(ctx context.Context, rec *models.AuditRecord) error {
	_, err := t.audit.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	return nil
}

func (t *MongoTier) ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "changed_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := t.audit.Find(ctx, bson.D{{Key: "target", Value: target}}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	defer cur.Close(ctx)
	var out []models.AuditRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode audit records: %w", err)
	}
	return out, nil
}

func fromModel(cfg *models.ApplicationConfig) mongoAppConfig {
	sizes := make([]string, len(cfg.PositionSizes))
	for i, d := range cfg.PositionSizes {
		sizes[i] = d.String()
	}
	return mongoAppConfig{
		EnabledStrategies: cfg.EnabledStrategies,
		Symbols:           cfg.Symbols,
		CandlePeriods:     cfg.CandlePeriods,
		MinConfidence:     cfg.MinConfidence,
		MaxConfidence:     cfg.MaxConfidence,
		MaxPositions:      cfg.MaxPositions,
		PositionSizes:     sizes,
		Version:           cfg.Version,
		CreatedAt:         cfg.CreatedAt,
		UpdatedAt:         cfg.UpdatedAt,
	}
}

func (d mongoAppConfig) toModel() *models.ApplicationConfig {
	cfg := &models.ApplicationConfig{
		EnabledStrategies: d.EnabledStrategies,
		Symbols:           d.Symbols,
		CandlePeriods:     d.CandlePeriods,
		MinConfidence:     d.MinConfidence,
		MaxConfidence:     d.MaxConfidence,
		MaxPositions:      d.MaxPositions,
		Version:           d.Version,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	cfg.PositionSizes = make([]decimal.Decimal, 0, len(d.PositionSizes))
	for _, s := range d.PositionSizes {
		if v, err := decimal.NewFromString(s); err == nil {
			cfg.PositionSizes = append(cfg.PositionSizes, v)
		}
	}
	return cfg
}
