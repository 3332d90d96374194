package configmanager

import (
	"sync"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// cache is the in-process read-through cache spec.md §4.7 mandates: a
// 60-second TTL, entries keyed by (target, scope), purged immediately and
// precisely on write -- never the source of truth, only a shortcut to it.
type cache struct {
	mu  sync.RWMutex
	ttl time.Duration

	appConfig    *models.ApplicationConfig
	appExpiresAt time.Time

	strategy map[string]strategyCacheEntry
}

type strategyCacheEntry struct {
	cfg       *models.StrategyConfig
	expiresAt time.Time
}

func newCache(ttl time.Duration) *cache {
	return &cache{ttl: ttl, strategy: make(map[string]strategyCacheEntry)}
}

func strategyCacheKey(strategyID, scope string) string { return strategyID + "|" + scope }

func (c *cache) getAppConfig() (*models.ApplicationConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.appConfig == nil || time.Now().After(c.appExpiresAt) {
		return nil, false
	}
	cp := *c.appConfig
	return &cp, true
}

func (c *cache) putAppConfig(cfg *models.ApplicationConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *cfg
	c.appConfig = &cp
	c.appExpiresAt = time.Now().Add(c.ttl)
}

func (c *cache) invalidateAppConfig() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appConfig = nil
}

func (c *cache) getStrategyConfig(strategyID, scope string) (*models.StrategyConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.strategy[strategyCacheKey(strategyID, scope)]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	cp := *e.cfg
	return &cp, true
}

func (c *cache) putStrategyConfig(cfg *models.StrategyConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *cfg
	c.strategy[strategyCacheKey(cfg.StrategyID, cfg.Scope)] = strategyCacheEntry{cfg: &cp, expiresAt: time.Now().Add(c.ttl)}
}

func (c *cache) invalidateStrategyConfig(strategyID, scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.strategy, strategyCacheKey(strategyID, scope))
}
