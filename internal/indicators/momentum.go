package indicators

import (
	"math"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// MomentumIndicators holds RSI (14 and a short 2-period variant),
// Stochastic %K/%D, Williams %R and Rate of Change.
type MomentumIndicators struct {
	RSI         float64
	RSI2        float64
	StochasticK float64
	StochasticD float64
	WilliamsR   float64
	ROC         float64
}

// RSI calculates the Relative Strength Index over `period` using simple
// (not Wilder-smoothed) average gain/loss, matching the convention most
// common in the reference implementations consulted.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50 // neutral
	}
	gains, losses := 0.0, 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += math.Abs(change)
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// stochasticKSeries returns the %K value at every index where a full
// kPeriod window is available, aligned so the i-th result corresponds to
// closes[kPeriod-1+i].
func stochasticKSeries(highs, lows, closes []float64, kPeriod int) []float64 {
	if len(closes) < kPeriod {
		return nil
	}
	out := make([]float64, 0, len(closes)-kPeriod+1)
	for end := kPeriod; end <= len(closes); end++ {
		highestHigh := highs[end-kPeriod]
		lowestLow := lows[end-kPeriod]
		for i := end - kPeriod; i < end; i++ {
			if highs[i] > highestHigh {
				highestHigh = highs[i]
			}
			if lows[i] < lowestLow {
				lowestLow = lows[i]
			}
		}
		if highestHigh == lowestLow {
			out = append(out, 50)
			continue
		}
		k := ((closes[end-1] - lowestLow) / (highestHigh - lowestLow)) * 100
		out = append(out, k)
	}
	return out
}

// Stochastic calculates the Stochastic Oscillator %K and a true %D, the
// dPeriod-length simple moving average of the %K series (not the `k*0.9`
// shortcut some handwritten implementations use).
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	kSeries := stochasticKSeries(highs, lows, closes, kPeriod)
	if len(kSeries) == 0 {
		return 50, 50
	}
	k = kSeries[len(kSeries)-1]
	d = SMA(kSeries, dPeriod)
	if d == 0 && len(kSeries) < dPeriod {
		// Not enough %K history yet for a full %D average; fall back to
		// the plain average of what is available rather than reporting 0.
		sum := 0.0
		for _, v := range kSeries {
			sum += v
		}
		d = sum / float64(len(kSeries))
	}
	return k, d
}

// StochasticSeries returns the full %K/%D series aligned to each other
// (dSeries[i] is the dPeriod-bar SMA of kSeries ending at kSeries[i]), for
// strategies that need to detect a %K/%D crossover rather than just read
// the latest values.
func StochasticSeries(highs, lows, closes []float64, kPeriod, dPeriod int) (kSeries, dSeries []float64) {
	kSeries = stochasticKSeries(highs, lows, closes, kPeriod)
	if len(kSeries) == 0 {
		return nil, nil
	}
	dSeries = make([]float64, len(kSeries))
	for i := range kSeries {
		start := i - dPeriod + 1
		if start < 0 {
			start = 0
		}
		window := kSeries[start : i+1]
		sum := 0.0
		for _, v := range window {
			sum += v
		}
		dSeries[i] = sum / float64(len(window))
	}
	return kSeries, dSeries
}

// WilliamsR calculates Williams %R over `period`.
func WilliamsR(highs, lows, closes []float64, period int) float64 {
	if len(closes) < period {
		return -50
	}
	highestHigh := highs[len(highs)-period]
	lowestLow := lows[len(lows)-period]
	for i := len(highs) - period; i < len(highs); i++ {
		if highs[i] > highestHigh {
			highestHigh = highs[i]
		}
		if lows[i] < lowestLow {
			lowestLow = lows[i]
		}
	}
	currentClose := closes[len(closes)-1]
	if highestHigh == lowestLow {
		return -50
	}
	return ((highestHigh - currentClose) / (highestHigh - lowestLow)) * -100
}

// ROC calculates the Rate of Change over `period`.
func ROC(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 0
	}
	currentPrice := prices[len(prices)-1]
	pastPrice := prices[len(prices)-1-period]
	if pastPrice == 0 {
		return 0
	}
	return ((currentPrice - pastPrice) / pastPrice) * 100
}

// CalculateMomentumIndicators computes the full momentum family.
func CalculateMomentumIndicators(candles []*models.Candle) *MomentumIndicators {
	if len(candles) == 0 {
		return &MomentumIndicators{}
	}
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	ind := &MomentumIndicators{
		RSI:       RSI(closes, 14),
		RSI2:      RSI(closes, 2),
		WilliamsR: WilliamsR(highs, lows, closes, 14),
		ROC:       ROC(closes, 10),
	}
	ind.StochasticK, ind.StochasticD = Stochastic(highs, lows, closes, 14, 3)
	return ind
}

// IsOverbought checks if momentum indicators suggest overbought conditions.
func (m *MomentumIndicators) IsOverbought() bool {
	return m.RSI > 70 || m.StochasticK > 80 || m.WilliamsR > -20
}

// IsOversold checks if momentum indicators suggest oversold conditions.
func (m *MomentumIndicators) IsOversold() bool {
	return m.RSI < 30 || m.StochasticK < 20 || m.WilliamsR < -80
}

// MomentumSignal returns a coarse overall momentum signal.
func (m *MomentumIndicators) MomentumSignal() string {
	if m.IsOverbought() {
		return "overbought"
	} else if m.IsOversold() {
		return "oversold"
	}
	return "neutral"
}
