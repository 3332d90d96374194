package indicators

import (
	"testing"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWindow(n int, start float64) *models.CandleWindow {
	candles := make([]models.Candle, n)
	openTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price := start
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: "1h",
			OpenTime:  openTime.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    100,
		}
		price += 0.2
	}
	return &models.CandleWindow{Symbol: "BTCUSDT", Timeframe: "1h", Candles: candles}
}

func TestCalculateOmitsIndicatorsBelowMinimumWindow(t *testing.T) {
	c := NewCalculator()
	window := buildWindow(10, 100)
	bundle := c.Calculate(window, nil)

	_, ok := bundle.Latest(models.IndicatorEMA8)
	assert.True(t, ok, "8 periods is enough for an 8-period EMA")

	_, ok = bundle.Latest(models.IndicatorEMA50)
	assert.False(t, ok, "10 candles is not enough for a 50-period EMA")

	_, ok = bundle.Latest(models.IndicatorIchimokuTenkan)
	assert.False(t, ok, "10 candles is not enough for ichimoku's 52-period lookback")
}

func TestCalculateComputesOnlyRequiredIndicators(t *testing.T) {
	c := NewCalculator()
	window := buildWindow(60, 100)
	required := map[models.IndicatorName]bool{models.IndicatorEMA21: true}

	bundle := c.Calculate(window, required)

	_, ok := bundle.Latest(models.IndicatorEMA21)
	assert.True(t, ok)

	_, ok = bundle.Latest(models.IndicatorRSI)
	assert.False(t, ok, "RSI was not in the required set")
}

func TestCalculateWithEmptyRequiredSetComputesEverythingAvailable(t *testing.T) {
	c := NewCalculator()
	window := buildWindow(60, 100)

	bundle := c.Calculate(window, map[models.IndicatorName]bool{})

	_, ok := bundle.Latest(models.IndicatorRSI)
	assert.True(t, ok)
	_, ok = bundle.Latest(models.IndicatorMACD)
	assert.True(t, ok)
}

func TestRSIFullyUptrendingIsNearHundred(t *testing.T) {
	closes := make([]float64, 30)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price += 1
	}
	rsi := RSI(closes, 14)
	assert.Greater(t, rsi, 90.0)
}

func TestRSIFullyDowntrendingIsNearZero(t *testing.T) {
	closes := make([]float64, 30)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price -= 1
	}
	rsi := RSI(closes, 14)
	assert.Less(t, rsi, 10.0)
}

func TestEMASeriesConvergesTowardFlatPrice(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50
	}
	series := EMASeries(closes, 10)
	require.Len(t, series, len(closes))
	assert.InDelta(t, 50, series[len(series)-1], 0.001)
}

func TestATRWilderSeriesIsFlatForConstantTrueRange(t *testing.T) {
	window := buildWindow(40, 100)
	candles := make([]*models.Candle, len(window.Candles))
	for i := range window.Candles {
		candles[i] = &window.Candles[i]
	}

	series := ATRWilderSeries(candles, 14)
	require.NotEmpty(t, series)
	first := series[0]
	for _, v := range series {
		assert.InDelta(t, first, v, 0.01, "constant high-low range should keep ATR flat")
	}
}

func TestATRWilderSeriesEmptyBelowMinimumWindow(t *testing.T) {
	window := buildWindow(5, 100)
	candles := make([]*models.Candle, len(window.Candles))
	for i := range window.Candles {
		candles[i] = &window.Candles[i]
	}

	series := ATRWilderSeries(candles, 14)
	assert.Empty(t, series)
}

func TestStochasticSeriesBoundedBetweenZeroAndHundred(t *testing.T) {
	window := buildWindow(30, 100)
	kSeries, dSeries := StochasticSeries(window.Highs(), window.Lows(), window.Closes(), 14, 3)
	require.NotEmpty(t, kSeries)
	require.NotEmpty(t, dSeries)
	for _, v := range kSeries {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRequiredUnionMergesMultipleSets(t *testing.T) {
	a := map[models.IndicatorName]bool{models.IndicatorEMA21: true}
	b := map[models.IndicatorName]bool{models.IndicatorRSI: true, models.IndicatorEMA21: true}

	merged := RequiredUnion(a, b)
	assert.Len(t, merged, 2)
	assert.True(t, merged[models.IndicatorEMA21])
	assert.True(t, merged[models.IndicatorRSI])
}
