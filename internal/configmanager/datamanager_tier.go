package configmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// DataManagerTier is the primary persistence tier (spec.md §4.7 tier 1): an
// external data-manager service reached over HTTP, shaped after the
// teacher's AlpacaProvider -- a thin typed client over a shared
// *http.Client with a request timeout and status-code classification.
type DataManagerTier struct {
	baseURL    string
	httpClient *http.Client
}

// NewDataManagerTier builds the client. deadline follows spec.md §5's
// 1-second config-store lookup deadline.
func NewDataManagerTier(baseURL string, deadline time.Duration) *DataManagerTier {
	return &DataManagerTier{baseURL: baseURL, httpClient: &http.Client{Timeout: deadline}}
}

func (t *DataManagerTier) Name() string { return "data_manager" }

func (t *DataManagerTier) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode data-manager request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build data-manager request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfigStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: data-manager returned %d", models.ErrConfigStoreUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: data-manager rejected request (%d): %s", models.ErrValidation, resp.StatusCode, string(payload))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t *DataManagerTier) GetApplicationConfig(ctx context.Context) (*models.ApplicationConfig, error) {
	var cfg models.ApplicationConfig
	if err := t.do(ctx, http.MethodGet, "/config/application", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (t *DataManagerTier) PutApplicationConfig(ctx context.Context, cfg *models.ApplicationConfig) error {
	var resp models.ApplicationConfig
	if err := t.do(ctx, http.MethodPut, "/config/application", cfg, &resp); err != nil {
		return err
	}
	*cfg = resp
	return nil
}

func (t *DataManagerTier) GetStrategyConfig(ctx context.Context, strategyID, scope string) (*models.StrategyConfig, error) {
	var cfg models.StrategyConfig
	path := fmt.Sprintf("/strategies/%s/config/%s", url.PathEscape(strategyID), url.PathEscape(scope))
	if err := t.do(ctx, http.MethodGet, path, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (t *DataManagerTier) PutStrategyConfig(ctx context.Context, cfg *models.StrategyConfig) error {
	path := fmt.Sprintf("/strategies/%s/config/%s", url.PathEscape(cfg.StrategyID), url.PathEscape(cfg.Scope))
	var resp models.StrategyConfig
	if err := t.do(ctx, http.MethodPut, path, cfg, &resp); err != nil {
		return err
	}
	*cfg = resp
	return nil
}

func (t *DataManagerTier) DeleteStrategyConfig(ctx context.Context, strategyID, scope string) error {
	path := fmt.Sprintf("/strategies/%s/config/%s", url.PathEscape(strategyID), url.PathEscape(scope))
	return t.do(ctx, http.MethodDelete, path, nil, nil)
}

func (t *DataManagerTier) AppendAudit(ctx context.Context, rec *models.AuditRecord) error {
	return t.do(ctx, http.MethodPost, "/audit", rec, nil)
}

func (t *DataManagerTier) ListAudit(ctx context.Context, target string, limit int) ([]models.AuditRecord, error) {
	path := fmt.Sprintf("/audit?target=%s&limit=%d", url.QueryEscape(target), limit)
	var out []models.AuditRecord
	if err := t.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
