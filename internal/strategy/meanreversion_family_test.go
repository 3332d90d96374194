package strategy

import (
	"testing"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerBandReversionBuyOnOversold(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 110, 100)
	window.Candles[len(window.Candles)-1].Close = 95
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorBBUpper, 110, nil)
	bundle.Set(models.IndicatorBBMiddle, 100, nil)
	bundle.Set(models.IndicatorBBLower, 95, nil)
	bundle.Set(models.IndicatorRSI, 25, nil)

	s := &BollingerBandReversion{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestStochasticReversalRequiresCrossInZone(t *testing.T) {
	window := buildWindow("ETHUSDT", "5m", 110, 100)
	bundle := models.NewIndicatorBundle()
	kSeries := make([]float64, len(window.Candles))
	dSeries := make([]float64, len(window.Candles))
	kSeries[len(kSeries)-2] = 15
	kSeries[len(kSeries)-1] = 22
	dSeries[len(dSeries)-2] = 18
	dSeries[len(dSeries)-1] = 18
	bundle.Set(models.IndicatorStochasticK, 22, kSeries)
	bundle.Set(models.IndicatorStochasticD, 18, dSeries)

	s := &StochasticReversal{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestRSI2ExtremeReversalRequiresTrendFilter(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 110, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorRSI2, 5, nil)
	bundle.Set(models.IndicatorEMA200, 200, nil) // price below EMA200: trend filter fails

	s := &RSI2ExtremeReversal{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)

	bundle.Set(models.IndicatorEMA200, 50, nil) // price above EMA200 now
	sig = s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}
