package indicators

import (
	"github.com/ridopark/ta-signal-bot/internal/models"
)

// Calculator computes the Indicator Bundle for a Candle Window. It is a
// deterministic, pure function of its inputs: the same window yields the
// same bundle every time. Numeric semantics are IEEE-754 double precision
// throughout; rounding is left to the caller.
type Calculator struct{}

// NewCalculator returns a Calculator. It carries no state: every call to
// Calculate is independent.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes every indicator named in `required` over `window`,
// returning the union as an IndicatorBundle. Each indicator fails softly:
// if the window is too short for a given indicator, that entry is simply
// absent rather than erroring the whole calculation.
func (c *Calculator) Calculate(window *models.CandleWindow, required map[models.IndicatorName]bool) *models.IndicatorBundle {
	bundle := models.NewIndicatorBundle()
	bundle.SetMeta("symbol", window.Symbol)
	bundle.SetMeta("timeframe", window.Timeframe)

	candles := make([]*models.Candle, len(window.Candles))
	for i := range window.Candles {
		candles[i] = &window.Candles[i]
	}
	closes := window.Closes()
	highs := window.Highs()
	lows := window.Lows()

	needAny := func(names ...models.IndicatorName) bool {
		if len(required) == 0 {
			return true // empty required set means "compute everything available"
		}
		for _, n := range names {
			if required[n] {
				return true
			}
		}
		return false
	}

	if needAny(models.IndicatorEMA8) && len(closes) >= 8 {
		s := EMASeries(closes, 8)
		bundle.Set(models.IndicatorEMA8, s[len(s)-1], s)
	}
	if needAny(models.IndicatorEMA13) && len(closes) >= 13 {
		s := EMASeries(closes, 13)
		bundle.Set(models.IndicatorEMA13, s[len(s)-1], s)
	}
	if needAny(models.IndicatorEMA21) && len(closes) >= 21 {
		s := EMASeries(closes, 21)
		bundle.Set(models.IndicatorEMA21, s[len(s)-1], s)
	}
	if needAny(models.IndicatorEMA50) && len(closes) >= 50 {
		s := EMASeries(closes, 50)
		bundle.Set(models.IndicatorEMA50, s[len(s)-1], s)
	}
	if needAny(models.IndicatorEMA80) && len(closes) >= 80 {
		s := EMASeries(closes, 80)
		bundle.Set(models.IndicatorEMA80, s[len(s)-1], s)
	}
	if needAny(models.IndicatorEMA200) && len(closes) >= 200 {
		s := EMASeries(closes, 200)
		bundle.Set(models.IndicatorEMA200, s[len(s)-1], s)
	}
	if needAny(models.IndicatorRSI) && len(closes) >= 15 {
		bundle.Set(models.IndicatorRSI, RSI(closes, 14), nil)
	}
	if needAny(models.IndicatorRSI2) && len(closes) >= 3 {
		bundle.Set(models.IndicatorRSI2, RSI(closes, 2), nil)
	}
	if needAny(models.IndicatorMACD, models.IndicatorMACDSignal, models.IndicatorMACDHist) && len(closes) >= 26 {
		macdLine, signalLine, hist := MACDSeries(closes, 12, 26, 9)
		last := len(macdLine) - 1
		bundle.Set(models.IndicatorMACD, macdLine[last], macdLine)
		bundle.Set(models.IndicatorMACDSignal, signalLine[last], signalLine)
		bundle.Set(models.IndicatorMACDHist, hist[last], hist)
	}
	if needAny(models.IndicatorADX) && len(closes) >= 28 {
		bundle.Set(models.IndicatorADX, ADX(candles, 14), nil)
	}
	if needAny(models.IndicatorBBUpper, models.IndicatorBBMiddle, models.IndicatorBBLower) && len(closes) >= 20 {
		upper, middle, lower := BollingerBands(closes, 20, 2.0)
		bundle.Set(models.IndicatorBBUpper, upper, nil)
		bundle.Set(models.IndicatorBBMiddle, middle, nil)
		bundle.Set(models.IndicatorBBLower, lower, nil)
	}
	if needAny(models.IndicatorATR) && len(candles) >= 15 {
		series := ATRWilderSeries(candles, 14)
		if len(series) > 0 {
			bundle.Set(models.IndicatorATR, series[len(series)-1], series)
		}
	}
	if needAny(models.IndicatorIchimokuTenkan, models.IndicatorIchimokuKijun, models.IndicatorIchimokuSenkouA, models.IndicatorIchimokuSenkouB) && len(candles) >= 52 {
		ich := CalculateIchimoku(candles)
		bundle.Set(models.IndicatorIchimokuTenkan, ich.Tenkan, nil)
		bundle.Set(models.IndicatorIchimokuKijun, ich.Kijun, nil)
		bundle.Set(models.IndicatorIchimokuSenkouA, ich.SenkouA, nil)
		bundle.Set(models.IndicatorIchimokuSenkouB, ich.SenkouB, nil)
	}
	if needAny(models.IndicatorVolumeSMA) && len(candles) >= 20 {
		bundle.Set(models.IndicatorVolumeSMA, VolumeSMA(candles, 20), nil)
	}
	if needAny(models.IndicatorStochasticK, models.IndicatorStochasticD) && len(closes) >= 14 {
		kSeries, dSeries := StochasticSeries(highs, lows, closes, 14, 3)
		if len(kSeries) > 0 {
			bundle.Set(models.IndicatorStochasticK, kSeries[len(kSeries)-1], kSeries)
			bundle.Set(models.IndicatorStochasticD, dSeries[len(dSeries)-1], dSeries)
		}
	}
	if needAny(models.IndicatorWilliamsR) && len(closes) >= 14 {
		bundle.Set(models.IndicatorWilliamsR, WilliamsR(highs, lows, closes, 14), nil)
	}
	if needAny(models.IndicatorROC) && len(closes) >= 11 {
		bundle.Set(models.IndicatorROC, ROC(closes, 10), nil)
	}

	return bundle
}

// RequiredUnion merges several strategies' required-indicator sets into a
// single set the Calculator can compute once for all of them.
func RequiredUnion(sets ...map[models.IndicatorName]bool) map[models.IndicatorName]bool {
	out := make(map[models.IndicatorName]bool)
	for _, s := range sets {
		for k := range s {
			out[k] = true
		}
	}
	return out
}
