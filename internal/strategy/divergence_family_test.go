package strategy

import (
	"testing"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBullishRSIDivergenceDetectsLowerLowHigherRSI(t *testing.T) {
	window := buildWindow("BTCUSDT", "1h", 30, 100)
	candles := window.Candles
	n := len(candles)
	// Plant an earlier, higher swing low in the lookback window.
	candles[n-10].Close = 90
	candles[n-1].Close = 85 // lower low on the most recent bar

	rsiSeries := make([]float64, n)
	for i := range rsiSeries {
		rsiSeries[i] = 50
	}
	rsiSeries[n-10] = 20 // deep RSI reading at the earlier swing low
	rsiSeries[n-1] = 35  // shallower RSI reading now: divergence

	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorRSI, rsiSeries[n-1], rsiSeries)

	s := &BullishRSIDivergence{}
	sig := s.Analyze(window, bundle, s.DefaultParams())
	require.NotNil(t, sig)
	assert.Equal(t, models.ActionBuy, sig.Action)
}
