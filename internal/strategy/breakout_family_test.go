package strategy

import (
	"testing"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeBreakoutBuyAboveLookbackHigh(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 120, 100)
	window.Candles[len(window.Candles)-1].Close = 1000
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorATR, 5, nil)

	s := &RangeBreakout{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}

func TestDonchianBreakoutRequiresMinWindow(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 30, 100)
	bundle := models.NewIndicatorBundle()

	s := &DonchianBreakout{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig, "window shorter than channel_period should not signal")
}

func TestVolumeSurgeBreakoutRequiresRatio(t *testing.T) {
	window := buildWindow("ETHUSDT", "1h", 120, 100)
	window.Candles[len(window.Candles)-1].Close = 1000
	window.Candles[len(window.Candles)-1].Volume = 100
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorVolumeSMA, 100, nil)

	s := &VolumeSurgeBreakout{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	assert.Nil(t, sig, "1x volume ratio should not clear 1.8x multiple")

	window.Candles[len(window.Candles)-1].Volume = 300
	sig = s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}
