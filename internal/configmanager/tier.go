// Package configmanager implements C7: the canonical, versioned, audited
// runtime configuration store, with the four-tier fallback chain spec.md
// §4.7 describes (data-manager HTTP primary, document store, relational
// store, startup defaults) and a 60-second read-through cache.
package configmanager

import (
	"context"
	"errors"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// ErrTierReadOnly is returned by a tier that cannot persist writes or
// audit records (the startup-defaults tier).
var ErrTierReadOnly = errors.New("configuration tier does not support writes")

// ErrNotFound is returned by a tier when the requested document does not
// exist there; the Manager treats it as "try the next tier" on read and
// "nothing to diff against" on write (old_config is empty).
var ErrNotFound = errors.New("configuration document not found in this tier")

// Tier is one link of the persistence fallback chain. Every tier --
// data-manager HTTP primary, document store, relational store, startup
// defaults -- implements the same shape so the Manager can walk them in
// order without type-switching.
type Tier interface {
	Name() string

	GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error)
	PutApplicationConfig(ctx context.Context, cfg *models.ApplicationConfig) error

	GetStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error)
	PutStrategyConfig(ctx context.Context, cfg *models.StrategyConfig) error
	DeleteStrategyConfig(ctx context.Context, strategyID, scope string) error

	AppendAudit(ctx context.Context, rec *models.AuditRecord) error
	ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error)
}
