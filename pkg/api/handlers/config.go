package handlers

import (
	"net/http"
	"strconv"

	"github.com/ridopark/ta-signal-bot/internal/configmanager"
	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/pkg/api/types"
)

// ConfigHandler serves the application-config slice of the admin surface.
type ConfigHandler struct {
	mgr *configmanager.Manager
}

// NewConfigHandler builds a ConfigHandler over mgr.
func NewConfigHandler(mgr *configmanager.Manager) *ConfigHandler {
	return &ConfigHandler{mgr: mgr}
}

// GetApplicationConfig handles GET /api/v1/config/application.
func (h *ConfigHandler) GetApplicationConfig(w http.ResponseWriter, r *http.Request) {
	reqLogger, correlationID := correlatedLogger(r)

	cfg, cacheHit, err := h.mgr.GetApplicationConfig(r.Context())
	if err != nil {
		reqLogger.Error().Err(err).Msg("application config read failed")
		writeFromErr(w, correlationID, err)
		return
	}

	writeEnvelope(w, correlationID, http.StatusOK, cfg, map[string]interface{}{"cache_hit": cacheHit})
}

// UpdateApplicationConfig handles POST /api/v1/config/application.
func (h *ConfigHandler) UpdateApplicationConfig(w http.ResponseWriter, r *http.Request) {
	reqLogger, correlationID := correlatedLogger(r)

	var req types.ApplicationConfigRequest
	if err := decodeAndValidate(r, &req); err != nil {
		decodeErrorResponse(w, correlationID, err)
		return
	}

	patch := configmanager.ApplicationConfigPatch{
		EnabledStrategies: req.EnabledStrategies,
		Symbols:           req.Symbols,
		CandlePeriods:     req.CandlePeriods,
		MinConfidence:     req.MinConfidence,
		MaxConfidence:     req.MaxConfidence,
		MaxPositions:      req.MaxPositions,
		PositionSizes:     req.PositionSizes,
	}

	cfg, err := h.mgr.UpdateApplicationConfig(r.Context(), patch, req.ChangedBy, req.Reason, req.ValidateOnly)
	if err != nil {
		reqLogger.Warn().Err(err).Str("changed_by", req.ChangedBy).Msg("application config update rejected")
		writeFromErr(w, correlationID, err)
		return
	}

	reqLogger.Info().Str("changed_by", req.ChangedBy).Bool("validate_only", req.ValidateOnly).
		Int("version", cfg.Version).Msg("application config updated")
	writeEnvelope(w, correlationID, http.StatusOK, cfg, map[string]interface{}{"validate_only": req.ValidateOnly})
}

// ListApplicationAudit handles GET /api/v1/config/application/audit?limit=N.
func (h *ConfigHandler) ListApplicationAudit(w http.ResponseWriter, r *http.Request) {
	reqLogger, correlationID := correlatedLogger(r)

	limit := parseLimit(r, 50, 500)

	recs, err := h.mgr.ListAudit(r.Context(), "application", limit)
	if err != nil {
		reqLogger.Error().Err(err).Msg("application audit read failed")
		writeFromErr(w, correlationID, err)
		return
	}

	writeEnvelope(w, correlationID, http.StatusOK, toAuditEntries(recs), nil)
}

// RefreshCache handles POST /api/v1/config/application/cache/refresh.
func (h *ConfigHandler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	_, correlationID := correlatedLogger(r)
	h.mgr.ForceRefresh()
	writeEnvelope(w, correlationID, http.StatusOK, map[string]interface{}{"refreshed": true}, nil)
}

func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func toAuditEntries(recs []models.AuditRecord) []types.AuditEntry {
	out := make([]types.AuditEntry, len(recs))
	for i, r := range recs {
		out[i] = types.AuditEntry{
			Action:    string(r.Action),
			OldConfig: r.OldConfig,
			NewConfig: r.NewConfig,
			ChangedBy: r.ChangedBy,
			ChangedAt: r.ChangedAt,
			Reason:    r.Reason,
			Target:    r.Target,
		}
	}
	return out
}
