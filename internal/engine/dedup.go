package engine

import (
	"sync"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// dedupEntry is the last action a strategy emitted for a (symbol, timeframe).
type dedupEntry struct {
	action models.Action
	at     time.Time
}

// dedupCache suppresses a strategy re-emitting the same action for the same
// (symbol, timeframe) within one candle period of its last emission --
// the "last-signal memory" supplemented feature. It does not suppress
// across strategies: two different strategies agreeing on the same symbol
// in the same message both publish.
type dedupCache struct {
	mu   sync.Mutex
	last map[string]dedupEntry
}

func newDedupCache() *dedupCache {
	return &dedupCache{last: make(map[string]dedupEntry)}
}

func dedupKey(strategyID, symbol, timeframe string) string {
	return strategyID + "|" + symbol + "|" + timeframe
}

// shouldSuppress reports whether a signal with this action should be
// dropped as a duplicate of the strategy's own last emission, and is
// itself where the "last emitted" state gets updated -- callers call it
// exactly once per candidate signal, in order.
func (d *dedupCache) shouldSuppress(strategyID, symbol, timeframe string, action models.Action, now time.Time, cooldown time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := dedupKey(strategyID, symbol, timeframe)
	prev, ok := d.last[key]
	suppress := ok && prev.action == action && now.Sub(prev.at) < cooldown
	if !suppress {
		d.last[key] = dedupEntry{action: action, at: now}
	}
	return suppress
}
