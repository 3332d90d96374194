package historyloader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

type fakeStore struct {
	candles     []models.Candle
	err         error
	failCount   int
	calls       int
	lastFetched int
}

func (f *fakeStore) FetchRecent(ctx context.Context, symbol, timeframe string, n int, end time.Time) ([]models.Candle, error) {
	f.calls++
	f.lastFetched = n
	if f.calls <= f.failCount {
		return nil, f.err
	}
	return f.candles, nil
}

func makeCandles(n int, symbol, timeframe string, start float64) []models.Candle {
	candles := make([]models.Candle, n)
	openTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price := start
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Symbol: symbol, Timeframe: timeframe,
			OpenTime: openTime.Add(time.Duration(i) * time.Hour),
			Open:     price, High: price + 1, Low: price - 1, Close: price, Volume: 10,
		}
		price += 0.5
	}
	return candles
}

func TestLoadReturnsWindowOnSuccess(t *testing.T) {
	store := &fakeStore{candles: makeCandles(60, "BTCUSDT", "1h", 100)}
	loader := New(store, zerolog.Nop())

	window, err := loader.Load(context.Background(), "BTCUSDT", "1h", 60, 50, time.Time{})
	require.NoError(t, err)
	assert.Len(t, window.Candles, 60)
	assert.Equal(t, 1, store.calls)
}

func TestLoadReturnsInsufficientDataWhenBelowMinimum(t *testing.T) {
	store := &fakeStore{candles: makeCandles(10, "BTCUSDT", "1h", 100)}
	loader := New(store, zerolog.Nop())

	_, err := loader.Load(context.Background(), "BTCUSDT", "1h", 60, 50, time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestLoadRetriesTransientFailureThenSucceeds(t *testing.T) {
	store := &fakeStore{candles: makeCandles(60, "BTCUSDT", "1h", 100), err: errors.New("connection reset"), failCount: 2}
	loader := New(store, zerolog.Nop())

	window, err := loader.Load(context.Background(), "BTCUSDT", "1h", 60, 50, time.Time{})
	require.NoError(t, err)
	assert.Len(t, window.Candles, 60)
	assert.Equal(t, 3, store.calls, "should succeed on the third attempt")
}

func TestLoadExhaustsRetriesAndReturnsStorageUnavailable(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset"), failCount: 10}
	loader := New(store, zerolog.Nop())

	_, err := loader.Load(context.Background(), "BTCUSDT", "1h", 60, 50, time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	assert.Equal(t, 3, store.calls, "should stop at the retry budget")
}

func TestLoadWithCacheAvoidsRepeatedStoreCalls(t *testing.T) {
	store := &fakeStore{candles: makeCandles(60, "BTCUSDT", "1h", 100)}
	loader := New(store, zerolog.Nop(), WithCache(time.Minute))

	_, err := loader.Load(context.Background(), "BTCUSDT", "1h", 60, 50, time.Time{})
	require.NoError(t, err)
	_, err = loader.Load(context.Background(), "BTCUSDT", "1h", 60, 50, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls, "second load should be served from cache")
}

func TestLoadRejectsMismatchedTimeframe(t *testing.T) {
	candles := makeCandles(60, "BTCUSDT", "1h", 100)
	store := &fakeStore{candles: candles}
	loader := New(store, zerolog.Nop())

	_, err := loader.Load(context.Background(), "BTCUSDT", "not-a-timeframe", 60, 50, time.Time{})
	require.Error(t, err)
}
