package indicators

import (
	"math"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// TrendIndicators holds the EMA ladder and the MACD line/signal/histogram.
type TrendIndicators struct {
	EMA8       float64
	EMA13      float64
	EMA21      float64
	EMA50      float64
	EMA80      float64
	EMA200     float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
}

// SMA calculates the Simple Moving Average of the last `period` prices.
func SMA(prices []float64, period int) float64 {
	if len(prices) < period || period <= 0 {
		return 0
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// EMASeries returns the full Exponential Moving Average series aligned to
// prices, seeded with the first price. Index i of the result is the EMA
// value as of prices[i].
func EMASeries(prices []float64, period int) []float64 {
	if len(prices) == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, len(prices))
	multiplier := 2.0 / (float64(period) + 1.0)
	out[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		out[i] = (prices[i] * multiplier) + (out[i-1] * (1 - multiplier))
	}
	return out
}

// EMA returns only the latest value of the EMA series.
func EMA(prices []float64, period int) float64 {
	series := EMASeries(prices, period)
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// MACDSeries computes the full MACD line, signal line and histogram series.
// The signal line is a true EMA(signalPeriod) of the MACD line, not a
// scalar approximation.
func MACDSeries(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (macdLine, signalLine, histogram []float64) {
	if len(prices) < slowPeriod {
		return nil, nil, nil
	}
	fastEMA := EMASeries(prices, fastPeriod)
	slowEMA := EMASeries(prices, slowPeriod)
	macdLine = make([]float64, len(prices))
	for i := range prices {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	// Only the portion of the MACD line from slowPeriod-1 onward is
	// meaningful (the slow EMA hasn't warmed up before that), so the
	// signal line is computed over that trailing slice and zero-padded.
	warm := slowPeriod - 1
	if warm >= len(macdLine) {
		warm = 0
	}
	meaningful := macdLine[warm:]
	signalMeaningful := EMASeries(meaningful, signalPeriod)
	signalLine = make([]float64, len(prices))
	for i, v := range signalMeaningful {
		signalLine[warm+i] = v
	}
	histogram = make([]float64, len(prices))
	for i := range prices {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}

// MACD returns only the latest macd/signal/histogram scalars.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal, histogram float64) {
	m, s, h := MACDSeries(prices, fastPeriod, slowPeriod, signalPeriod)
	if len(m) == 0 {
		return 0, 0, 0
	}
	last := len(m) - 1
	return m[last], s[last], h[last]
}

// CalculateTrendIndicators computes the full trend family over a candle
// history's closing prices.
func CalculateTrendIndicators(candles []*models.Candle) *TrendIndicators {
	if len(candles) == 0 {
		return &TrendIndicators{}
	}
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	ind := &TrendIndicators{
		EMA8:   EMA(prices, 8),
		EMA13:  EMA(prices, 13),
		EMA21:  EMA(prices, 21),
		EMA50:  EMA(prices, 50),
		EMA80:  EMA(prices, 80),
		EMA200: EMA(prices, 200),
	}
	ind.MACD, ind.MACDSignal, ind.MACDHist = MACD(prices, 12, 26, 9)
	return ind
}

// TrendDirection determines the overall trend direction from the EMA
// ladder and MACD sign.
func (t *TrendIndicators) TrendDirection() string {
	if t.EMA21 > t.EMA50 && t.MACD > 0 {
		return "bullish"
	} else if t.EMA21 < t.EMA50 && t.MACD < 0 {
		return "bearish"
	}
	return "sideways"
}

// TrendStrength estimates trend strength on a 0-100 scale from MACD
// magnitude.
func (t *TrendIndicators) TrendStrength() float64 {
	strength := math.Abs(t.MACD) * 10
	if strength > 100 {
		strength = 100
	}
	return strength
}
