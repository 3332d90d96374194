package strategy

import (
	"testing"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWindow(symbol, timeframe string, n int, start float64) *models.CandleWindow {
	candles := make([]models.Candle, n)
	openTime := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price := start
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Symbol:    symbol,
			Timeframe: timeframe,
			OpenTime:  openTime.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    100,
		}
		price += 0.1
	}
	return &models.CandleWindow{Symbol: symbol, Timeframe: timeframe, Candles: candles}
}

func TestMomentumPulseBuySignal(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	series := make([]float64, len(window.Candles))
	series[len(series)-2] = -0.5
	series[len(series)-1] = 0.5
	bundle.Set(models.IndicatorMACDHist, 0.5, series)
	bundle.Set(models.IndicatorRSI, 58, nil)
	bundle.Set(models.IndicatorADX, 30, nil)
	bundle.Set(models.IndicatorEMA21, 105, nil)
	bundle.Set(models.IndicatorEMA50, 100, nil)

	s := &MomentumPulse{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
	assert.Equal(t, "momentum_pulse", sig.StrategyID)
	assert.Greater(t, sig.Confidence, 0.5)
}

func TestMomentumPulseNoSignalWithoutFlip(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	series := make([]float64, len(window.Candles))
	series[len(series)-2] = 0.4
	series[len(series)-1] = 0.5
	bundle.Set(models.IndicatorMACDHist, 0.5, series)
	bundle.Set(models.IndicatorRSI, 58, nil)
	bundle.Set(models.IndicatorADX, 30, nil)
	bundle.Set(models.IndicatorEMA21, 105, nil)
	bundle.Set(models.IndicatorEMA50, 100, nil)

	s := &MomentumPulse{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}

func TestTripleEMAStackRequiresAlignment(t *testing.T) {
	window := buildWindow("ETHUSDT", "15m", 120, 50)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA8, 52, nil)
	bundle.Set(models.IndicatorEMA21, 51, nil)
	bundle.Set(models.IndicatorEMA50, 50, nil)
	bundle.Set(models.IndicatorADX, 25, nil)

	s := &TripleEMAStack{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)

	bundle.Set(models.IndicatorEMA8, 51, nil)
	bundle.Set(models.IndicatorEMA21, 52, nil)
	sig = s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}

func TestADXTrendFollowGatesOnThreshold(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorADX, 10, nil)
	bundle.Set(models.IndicatorEMA21, 100, nil)

	s := &ADXTrendFollow{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig, "below adx threshold should not signal")

	bundle.Set(models.IndicatorADX, 40, nil)
	sig = s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}
