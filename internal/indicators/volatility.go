package indicators

import (
	"math"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// VolatilityIndicators holds Bollinger Bands, ATR (both simple and
// Wilder-smoothed) and standard deviation.
type VolatilityIndicators struct {
	BollingerUpper  float64
	BollingerMiddle float64
	BollingerLower  float64
	ATR             float64
	ATRWilder       float64
	StdDev          float64
	VolatilityRatio float64
}

// StandardDeviation calculates the standard deviation of the last `period`
// prices.
func StandardDeviation(prices []float64, period int) float64 {
	if len(prices) < period {
		return 0
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	mean := sum / float64(period)
	variance := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		variance += math.Pow(prices[i]-mean, 2)
	}
	variance /= float64(period)
	return math.Sqrt(variance)
}

// BollingerBands calculates the upper/middle/lower bands at `period` with
// the given standard-deviation multiplier.
func BollingerBands(prices []float64, period int, stdDevMultiplier float64) (upper, middle, lower float64) {
	if len(prices) < period {
		return 0, 0, 0
	}
	middle = SMA(prices, period)
	stdDev := StandardDeviation(prices, period)
	upper = middle + (stdDev * stdDevMultiplier)
	lower = middle - (stdDev * stdDevMultiplier)
	return upper, middle, lower
}

// TrueRange calculates the True Range for a single candle against its
// predecessor.
func TrueRange(current, previous *models.Candle) float64 {
	if previous == nil {
		return current.High - current.Low
	}
	tr1 := current.High - current.Low
	tr2 := math.Abs(current.High - previous.Close)
	tr3 := math.Abs(current.Low - previous.Close)
	return math.Max(tr1, math.Max(tr2, tr3))
}

// ATR calculates the Average True Range as a simple mean of True Range
// over `period`.
func ATR(candles []*models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}
	trSum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		var previous *models.Candle
		if i > 0 {
			previous = candles[i-1]
		}
		trSum += TrueRange(candles[i], previous)
	}
	return trSum / float64(period)
}

// ATRWilder calculates the Average True Range using Wilder's smoothing
// (an exponential average with alpha=1/period), the classical definition
// the "simple mean of TR" shortcut only approximates.
func ATRWilder(candles []*models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}
	// Seed with a simple average of the first `period` true ranges.
	trs := make([]float64, 0, len(candles))
	for i := 1; i < len(candles); i++ {
		trs = append(trs, TrueRange(candles[i], candles[i-1]))
	}
	if len(trs) < period {
		return 0
	}
	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)
	for i := period; i < len(trs); i++ {
		atr = ((atr * float64(period-1)) + trs[i]) / float64(period)
	}
	return atr
}

// ATRWilderSeries returns the full Wilder-smoothed ATR series aligned to
// candles[period:], for strategies that need ATR's own recent history
// (e.g. detecting an expansion relative to its baseline) rather than just
// the latest value.
func ATRWilderSeries(candles []*models.Candle, period int) []float64 {
	if len(candles) < period+1 {
		return nil
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, TrueRange(candles[i], candles[i-1]))
	}
	if len(trs) < period {
		return nil
	}
	series := make([]float64, 0, len(trs)-period+1)
	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)
	series = append(series, atr)
	for i := period; i < len(trs); i++ {
		atr = ((atr * float64(period-1)) + trs[i]) / float64(period)
		series = append(series, atr)
	}
	return series
}

// CalculateVolatilityIndicators computes the full volatility family.
func CalculateVolatilityIndicators(candles []*models.Candle) *VolatilityIndicators {
	if len(candles) == 0 {
		return &VolatilityIndicators{}
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	ind := &VolatilityIndicators{
		ATR:       ATR(candles, 14),
		ATRWilder: ATRWilder(candles, 14),
		StdDev:    StandardDeviation(closes, 20),
	}
	ind.BollingerUpper, ind.BollingerMiddle, ind.BollingerLower = BollingerBands(closes, 20, 2.0)
	if len(candles) >= 2 {
		currentVolatility := math.Abs(candles[len(candles)-1].Close - candles[len(candles)-2].Close)
		if ind.ATRWilder > 0 {
			ind.VolatilityRatio = currentVolatility / ind.ATRWilder
		}
	}
	return ind
}

// BollingerPosition returns the position of currentPrice relative to the
// bands, clamped to [0,1].
func (v *VolatilityIndicators) BollingerPosition(currentPrice float64) float64 {
	if v.BollingerUpper == v.BollingerLower {
		return 0.5
	}
	position := (currentPrice - v.BollingerLower) / (v.BollingerUpper - v.BollingerLower)
	if position < 0 {
		position = 0
	} else if position > 1 {
		position = 1
	}
	return position
}

// VolatilityLevel returns a coarse volatility-level assessment.
func (v *VolatilityIndicators) VolatilityLevel() string {
	if v.VolatilityRatio > 1.5 {
		return "high"
	} else if v.VolatilityRatio < 0.5 {
		return "low"
	}
	return "normal"
}

// IsNearBollingerBands reports whether currentPrice sits near either band.
func (v *VolatilityIndicators) IsNearBollingerBands(currentPrice float64) (nearUpper, nearLower bool) {
	position := v.BollingerPosition(currentPrice)
	nearUpper = position > 0.9
	nearLower = position < 0.1
	return nearUpper, nearLower
}
