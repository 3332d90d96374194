package strategy

import (
	"testing"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHammerReversalDetectsLongLowerWick(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 30, 100)
	last := &window.Candles[len(window.Candles)-1]
	last.Open = 90
	last.Close = 91
	last.High = 91.5
	last.Low = 85

	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 95, nil) // price below EMA21: downtrend

	s := &HammerReversal{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestBullishEngulfingReversalRequiresEngulfAndDowntrend(t *testing.T) {
	window := buildWindow("ETHUSDT", "15m", 30, 100)
	candles := window.Candles
	prior := &candles[len(candles)-2]
	last := &candles[len(candles)-1]
	prior.Open, prior.Close = 100, 95
	last.Open, last.Close = 94, 102
	last.High, last.Low = 103, 93

	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 110, nil)

	s := &BullishEngulfingReversal{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestInsideBarContinuationFollowsTrend(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 30, 100)
	candles := window.Candles
	prior := &candles[len(candles)-2]
	last := &candles[len(candles)-1]
	prior.High, prior.Low = 105, 95
	last.High, last.Low = 103, 97

	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorEMA21, 105, nil)
	bundle.Set(models.IndicatorEMA50, 100, nil)

	s := &InsideBarContinuation{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}
