package strategy

import (
	"testing"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA21PullbackBuySignal(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 111.85, nil)
	bundle.Set(models.IndicatorEMA50, 105, nil)

	s := &EMA21Pullback{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
	assert.Equal(t, "ema21_pullback", sig.StrategyID)
}

func TestEMA21PullbackNoSignalOutsideTolerance(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 50, nil)
	bundle.Set(models.IndicatorEMA50, 45, nil)

	s := &EMA21Pullback{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}

func TestGoldenTrendSyncConfirmsReclaim(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 111.85, nil)
	bundle.Set(models.IndicatorEMA200, 100, nil)

	s := &GoldenTrendSync{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestGoldenTrendSyncNoSignalWithoutReclaim(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 200, nil)
	bundle.Set(models.IndicatorEMA200, 100, nil)

	s := &GoldenTrendSync{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}

func TestTrendContinuationPullbackRequiresADXThreshold(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorADX, 10, nil)
	bundle.Set(models.IndicatorEMA50, 50, nil)

	s := &TrendContinuationPullback{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig, "below adx threshold should not signal")
}

func TestEMA8ScalpPullbackBuySignal(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA8, 111.85, nil)
	bundle.Set(models.IndicatorEMA21, 105, nil)

	s := &EMA8ScalpPullback{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestEMA8ScalpPullbackNoSignalOutsideTolerance(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA8, 50, nil)
	bundle.Set(models.IndicatorEMA21, 45, nil)

	s := &EMA8ScalpPullback{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}
