package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ridopark/ta-signal-bot/internal/configmanager"
	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/strategy"
	"github.com/ridopark/ta-signal-bot/pkg/api/types"
)

// StrategyHandler serves the per-strategy config and audit slice of the
// admin surface: the catalog listing, global/per-symbol parameter bundles,
// and their audit trails.
type StrategyHandler struct {
	mgr      *configmanager.Manager
	registry *strategy.Registry
}

// NewStrategyHandler builds a StrategyHandler over mgr and registry.
func NewStrategyHandler(mgr *configmanager.Manager, registry *strategy.Registry) *StrategyHandler {
	return &StrategyHandler{mgr: mgr, registry: registry}
}

// ListStrategies handles GET /api/v1/strategies.
func (h *StrategyHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	_, correlationID := correlatedLogger(r)

	ids := h.registry.IDs()
	entries := make([]types.StrategyListEntry, len(ids))
	for i, id := range ids {
		entries[i] = types.StrategyListEntry{ID: id}
	}
	writeEnvelope(w, correlationID, http.StatusOK, entries, nil)
}

func (h *StrategyHandler) strategyDefaults(id string) (strategy.Params, bool) {
	s, ok := h.registry.Get(id)
	if !ok {
		return nil, false
	}
	return s.DefaultParams(), true
}

func (h *StrategyHandler) requireKnownStrategy(w http.ResponseWriter, correlationID, id string) bool {
	if !h.registry.IsKnown(id) {
		writeError(w, correlationID, http.StatusNotFound, types.ErrCodeNotFound,
			fmt.Sprintf("unknown strategy id %q", id), nil)
		return false
	}
	return true
}

// GetStrategyConfig handles GET /api/v1/strategies/{id}/config -- the
// effective global parameter bundle (defaults overlaid by any persisted
// global override).
func (h *StrategyHandler) GetStrategyConfig(w http.ResponseWriter, r *http.Request) {
	h.getConfig(w, r, "")
}

// GetStrategySymbolConfig handles GET /api/v1/strategies/{id}/config/{symbol}
// -- the fully effective bundle for that symbol (defaults, then the global
// override, then the per-symbol override).
func (h *StrategyHandler) GetStrategySymbolConfig(w http.ResponseWriter, r *http.Request) {
	h.getConfig(w, r, mux.Vars(r)["symbol"])
}

func (h *StrategyHandler) getConfig(w http.ResponseWriter, r *http.Request, symbol string) {
	reqLogger, correlationID := correlatedLogger(r)
	id := mux.Vars(r)["id"]
	if !h.requireKnownStrategy(w, correlationID, id) {
		return
	}
	defaults, _ := h.strategyDefaults(id)

	effective, err := h.mgr.GetStrategyConfig(r.Context(), id, symbol, defaults)
	if err != nil {
		reqLogger.Error().Err(err).Str("strategy_id", id).Str("symbol", symbol).Msg("strategy config read failed")
		writeFromErr(w, correlationID, err)
		return
	}
	writeEnvelope(w, correlationID, http.StatusOK, effective, nil)
}

// PutStrategyConfig handles POST /api/v1/strategies/{id}/config.
func (h *StrategyHandler) PutStrategyConfig(w http.ResponseWriter, r *http.Request) {
	h.putConfig(w, r, models.ScopeGlobal)
}

// PutStrategySymbolConfig handles POST /api/v1/strategies/{id}/config/{symbol}.
func (h *StrategyHandler) PutStrategySymbolConfig(w http.ResponseWriter, r *http.Request) {
	h.putConfig(w, r, mux.Vars(r)["symbol"])
}

func (h *StrategyHandler) putConfig(w http.ResponseWriter, r *http.Request, scope string) {
	reqLogger, correlationID := correlatedLogger(r)
	id := mux.Vars(r)["id"]
	if !h.requireKnownStrategy(w, correlationID, id) {
		return
	}

	var req types.StrategyConfigRequest
	if err := decodeAndValidate(r, &req); err != nil {
		decodeErrorResponse(w, correlationID, err)
		return
	}

	cfg, err := h.mgr.UpdateStrategyConfig(r.Context(), id, scope, req.Params, req.ChangedBy, req.Reason, req.ValidateOnly)
	if err != nil {
		reqLogger.Warn().Err(err).Str("strategy_id", id).Str("scope", scope).Msg("strategy config update rejected")
		writeFromErr(w, correlationID, err)
		return
	}

	reqLogger.Info().Str("strategy_id", id).Str("scope", scope).Str("changed_by", req.ChangedBy).
		Int("version", cfg.Version).Msg("strategy config updated")
	writeEnvelope(w, correlationID, http.StatusOK, cfg, map[string]interface{}{"validate_only": req.ValidateOnly})
}

// DeleteStrategyConfig handles DELETE /api/v1/strategies/{id}/config.
func (h *StrategyHandler) DeleteStrategyConfig(w http.ResponseWriter, r *http.Request) {
	h.deleteConfig(w, r, models.ScopeGlobal)
}

// DeleteStrategySymbolConfig handles DELETE /api/v1/strategies/{id}/config/{symbol}.
func (h *StrategyHandler) DeleteStrategySymbolConfig(w http.ResponseWriter, r *http.Request) {
	h.deleteConfig(w, r, mux.Vars(r)["symbol"])
}

func (h *StrategyHandler) deleteConfig(w http.ResponseWriter, r *http.Request, scope string) {
	reqLogger, correlationID := correlatedLogger(r)
	id := mux.Vars(r)["id"]
	if !h.requireKnownStrategy(w, correlationID, id) {
		return
	}

	changedBy := r.URL.Query().Get("changed_by")
	reason := r.URL.Query().Get("reason")
	if changedBy == "" || reason == "" {
		writeError(w, correlationID, http.StatusBadRequest, types.ErrCodeBadRequest,
			"changed_by and reason query parameters are required", nil)
		return
	}

	if err := h.mgr.DeleteStrategyConfig(r.Context(), id, scope, changedBy, reason); err != nil {
		reqLogger.Warn().Err(err).Str("strategy_id", id).Str("scope", scope).Msg("strategy config delete failed")
		writeFromErr(w, correlationID, err)
		return
	}

	reqLogger.Info().Str("strategy_id", id).Str("scope", scope).Str("changed_by", changedBy).Msg("strategy config deleted")
	writeEnvelope(w, correlationID, http.StatusOK, map[string]interface{}{"deleted": true}, nil)
}

// ListStrategyAudit handles GET /api/v1/strategies/{id}/audit?limit=N.
func (h *StrategyHandler) ListStrategyAudit(w http.ResponseWriter, r *http.Request) {
	reqLogger, correlationID := correlatedLogger(r)
	id := mux.Vars(r)["id"]
	if !h.requireKnownStrategy(w, correlationID, id) {
		return
	}

	limit := parseLimit(r, 50, 500)
	recs, err := h.mgr.ListAudit(r.Context(), models.StrategyTarget(id), limit)
	if err != nil {
		reqLogger.Error().Err(err).Str("strategy_id", id).Msg("strategy audit read failed")
		writeFromErr(w, correlationID, err)
		return
	}

	writeEnvelope(w, correlationID, http.StatusOK, toAuditEntries(recs), nil)
}
