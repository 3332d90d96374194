package strategy

import (
	"testing"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerSqueezeAlertFiresBelowWidthThreshold(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 60, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorBBUpper, 101, nil)
	bundle.Set(models.IndicatorBBMiddle, 100, nil)
	bundle.Set(models.IndicatorBBLower, 99, nil)

	s := &BollingerSqueezeAlert{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionHold, sig.Action)
}

func TestBollingerSqueezeAlertSilentWhenBandsAreWide(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 60, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorBBUpper, 120, nil)
	bundle.Set(models.IndicatorBBMiddle, 100, nil)
	bundle.Set(models.IndicatorBBLower, 80, nil)

	s := &BollingerSqueezeAlert{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}

func TestATRExpansionAlertFiresWhenLatestFarAboveBaseline(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 60, 100)
	bundle := models.NewIndicatorBundle()

	series := make([]float64, 25)
	for i := range series {
		series[i] = 1.0
	}
	series[len(series)-1] = 3.0 // latest ATR triples relative to its 20-period baseline
	bundle.Set(models.IndicatorATR, series[len(series)-1], series)

	s := &ATRExpansionAlert{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionHold, sig.Action)
	assert.Equal(t, "atr_expansion_alert", sig.StrategyID)
}

func TestATRExpansionAlertSilentWhenFlat(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 60, 100)
	bundle := models.NewIndicatorBundle()

	series := make([]float64, 25)
	for i := range series {
		series[i] = 1.0
	}
	bundle.Set(models.IndicatorATR, series[len(series)-1], series)

	s := &ATRExpansionAlert{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig)
}

func TestATRExpansionAlertNilWithoutSeries(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 60, 100)
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorATR, 1.5, nil)

	s := &ATRExpansionAlert{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig, "an indicator bundle without a populated ATR series should not signal")
}
