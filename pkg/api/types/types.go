// Package types holds the request/response DTOs for the admin
// configuration HTTP surface, separated from the handlers that build them.
package types

import (
	"time"
)

// Envelope is the success-path response wrapper every admin endpoint uses
// (spec.md §6).
type Envelope struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ErrorEnvelope is the failure-path response wrapper.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries a stable machine-readable code alongside the message.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error codes used across the admin surface.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnavailable  = "STORE_UNAVAILABLE"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
)

// ApplicationConfigRequest is the body of POST /api/v1/config/application.
type ApplicationConfigRequest struct {
	EnabledStrategies []string `json:"enabled_strategies,omitempty"`
	Symbols           []string `json:"symbols,omitempty"`
	CandlePeriods     []string `json:"candle_periods,omitempty"`
	MinConfidence     *float64 `json:"min_confidence,omitempty"`
	MaxConfidence     *float64 `json:"max_confidence,omitempty"`
	MaxPositions      *int     `json:"max_positions,omitempty"`
	PositionSizes     []string `json:"position_sizes,omitempty"`
	ChangedBy         string   `json:"changed_by" validate:"required"`
	Reason            string   `json:"reason" validate:"required"`
	ValidateOnly      bool     `json:"validate_only"`
}

// StrategyConfigRequest is the body of POST .../strategies/{id}/config and
// .../strategies/{id}/config/{symbol}.
type StrategyConfigRequest struct {
	Params       map[string]interface{} `json:"params" validate:"required"`
	ChangedBy    string                 `json:"changed_by" validate:"required"`
	Reason       string                 `json:"reason" validate:"required"`
	ValidateOnly bool                   `json:"validate_only"`
}

// DeleteRequest names the audit attribution a DELETE call needs -- a
// changed_by/reason even though there's nothing left to patch. The DELETE
// handlers read these two values from query parameters, not from a body.
type DeleteRequest struct {
	ChangedBy string `json:"changed_by" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// StrategyListEntry describes one catalog entry in GET /api/v1/strategies.
type StrategyListEntry struct {
	ID string `json:"id"`
}

// AuditEntry mirrors models.AuditRecord for the wire, keeping the handler
// package decoupled from the domain package's bson tags.
type AuditEntry struct {
	Action    string                 `json:"action"`
	OldConfig map[string]interface{} `json:"old_config,omitempty"`
	NewConfig map[string]interface{} `json:"new_config,omitempty"`
	ChangedBy string                 `json:"changed_by"`
	ChangedAt time.Time              `json:"changed_at"`
	Reason    string                 `json:"reason"`
	Target    string                 `json:"target"`
}
