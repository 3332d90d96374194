// Package historyloader implements C2: given (symbol, timeframe, N), fetch
// the most recent N fully closed candles from the time-series store,
// ordered ascending by open_time. Grounded on the teacher's
// internal/database.OHLCVRepository query shape, retargeted from an
// ohlcv table to a candles table and wrapped with the retry/backoff and
// caching rules spec.md §4.2 specifies.
package historyloader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// DefaultWindowSize is the N the Engine requests absent an override.
const DefaultWindowSize = 500

// CandleStore is the minimal time-series read interface the Loader needs.
// Implementations may be backed by a relational store, a dedicated
// candle-store service, or (in tests) an in-memory fixture.
type CandleStore interface {
	FetchRecent(ctx context.Context, symbol, timeframe string, n int, end time.Time) ([]models.Candle, error)
}

// Loader wraps a CandleStore with the retry policy and optional
// read-through cache spec.md §4.2 describes.
type Loader struct {
	store   CandleStore
	logger  zerolog.Logger
	cache   *cache
	retries int
	backoff time.Duration
}

// Option configures a Loader at construction time.
type Option func(*Loader)

// WithCache enables the per-(symbol,timeframe) read-through cache. ttl is
// typically half the candle period (spec.md §4.2).
func WithCache(defaultTTL time.Duration) Option {
	return func(l *Loader) { l.cache = newCache(defaultTTL) }
}

// New builds a Loader around store with the spec's default retry policy:
// three attempts, short exponential backoff.
func New(store CandleStore, logger zerolog.Logger, opts ...Option) *Loader {
	l := &Loader{store: store, logger: logger.With().Str("component", "history_loader").Logger(), retries: 3, backoff: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the most recent n candles for (symbol, timeframe) ending at
// end (zero value means "now"). It returns models.ErrInsufficientData
// cleanly -- not as a terminal error -- when the store has fewer candles
// than the caller's minimum, and models.ErrStorageUnavailable after the
// retry budget is exhausted on transport errors.
func (l *Loader) Load(ctx context.Context, symbol, timeframe string, n, minRequired int, end time.Time) (*models.CandleWindow, error) {
	if end.IsZero() {
		end = time.Now().UTC()
	}

	if l.cache != nil {
		if candles, ok := l.cache.get(symbol, timeframe, timeframeDuration(timeframe)); ok && len(candles) >= n {
			return l.window(symbol, timeframe, candles, minRequired)
		}
	}

	var lastErr error
	delay := l.backoff
	for attempt := 0; attempt < l.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		candles, err := l.store.FetchRecent(ctx, symbol, timeframe, n, end)
		if err == nil {
			if l.cache != nil {
				l.cache.put(symbol, timeframe, candles)
			}
			return l.window(symbol, timeframe, candles, minRequired)
		}
		lastErr = err
		l.logger.Warn().Err(err).Str("symbol", symbol).Str("timeframe", timeframe).
			Int("attempt", attempt+1).Msg("candle fetch attempt failed")
	}

	return nil, errJoin(models.ErrStorageUnavailable, lastErr)
}

func (l *Loader) window(symbol, timeframe string, candles []models.Candle, minRequired int) (*models.CandleWindow, error) {
	if len(candles) < minRequired {
		return nil, models.ErrInsufficientData
	}
	w := &models.CandleWindow{Symbol: symbol, Timeframe: timeframe, Candles: candles}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func errJoin(a, b error) error {
	if b == nil {
		return a
	}
	return errors.Join(a, b)
}

func timeframeDuration(tf string) time.Duration {
	if d, ok := models.SupportedTimeframes[tf]; ok {
		return d
	}
	return time.Minute
}

// cache is a small per-(symbol,timeframe) read-through cache with a TTL of
// roughly half the candle period, absorbing bursts when multiple
// strategies trigger a fetch for the same data in close succession. It is
// explicitly non-authoritative: a miss always falls through to the store.
type cache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
}

type cacheEntry struct {
	candles   []models.Candle
	storedAt  time.Time
	expiresAt time.Time
}

func newCache(defaultTTL time.Duration) *cache {
	return &cache{entries: make(map[string]cacheEntry), defaultTTL: defaultTTL}
}

func cacheKey(symbol, timeframe string) string { return symbol + "|" + timeframe }

func (c *cache) get(symbol, timeframe string, period time.Duration) ([]models.Candle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey(symbol, timeframe)]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.candles, true
}

func (c *cache) put(symbol, timeframe string, candles []models.Candle) {
	ttl := c.defaultTTL
	if ttl <= 0 {
		if period, ok := models.SupportedTimeframes[timeframe]; ok {
			ttl = period / 2
		} else {
			ttl = 30 * time.Second
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(symbol, timeframe)] = cacheEntry{
		candles:   candles,
		storedAt:  time.Now(),
		expiresAt: time.Now().Add(ttl),
	}
}
