package strategy

import "github.com/ridopark/ta-signal-bot/internal/models"

// newSignal is the common constructor every concrete strategy calls,
// stamping the fields the Engine requires at minimum (spec.md §4.4) and
// attaching the indicator snapshot every family uses as diagnostic
// metadata.
func newSignal(id string, window *models.CandleWindow, action models.Action, confidence float64, snapshot map[string]interface{}) *models.Signal {
	last := window.Last()
	sig := models.NewSignal(id, window.Symbol, window.Timeframe, action, clamp01(confidence), last.Close)
	sig.Strength = models.DeriveStrength(sig.Confidence)
	for k, v := range snapshot {
		sig.Metadata[k] = v
	}
	return sig
}

// emaAligned reports whether the EMA ladder is ordered consistently with
// an uptrend (short > mid > long) or downtrend (short < mid < long).
func emaAligned(short, mid, long float64, up bool) bool {
	if up {
		return short > mid && mid > long
	}
	return short < mid && mid < long
}

// closesTail returns the last n closes of window, or every close available
// if window is shorter than n.
func closesTail(window *models.CandleWindow, n int) []float64 {
	closes := window.Closes()
	if len(closes) <= n {
		return closes
	}
	return closes[len(closes)-n:]
}

// rangeHighLow returns the highest high / lowest low over the last n bars.
func rangeHighLow(window *models.CandleWindow, n int) (high, low float64) {
	candles := window.Candles
	if len(candles) < n {
		n = len(candles)
	}
	if n == 0 {
		return 0, 0
	}
	start := len(candles) - n
	high, low = candles[start].High, candles[start].Low
	for _, c := range candles[start:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}

// swingLow finds the index/value of the lowest close in the last n bars
// excluding the most recent bar -- used by divergence strategies to find
// the prior swing to compare against.
func swingLow(window *models.CandleWindow, n int) (idx int, value float64) {
	closes := window.Closes()
	if len(closes) < 2 {
		return -1, 0
	}
	start := len(closes) - 1 - n
	if start < 0 {
		start = 0
	}
	idx = start
	value = closes[start]
	for i := start; i < len(closes)-1; i++ {
		if closes[i] < value {
			value = closes[i]
			idx = i
		}
	}
	return idx, value
}

// swingHigh mirrors swingLow for the highest close.
func swingHigh(window *models.CandleWindow, n int) (idx int, value float64) {
	closes := window.Closes()
	if len(closes) < 2 {
		return -1, 0
	}
	start := len(closes) - 1 - n
	if start < 0 {
		start = 0
	}
	idx = start
	value = closes[start]
	for i := start; i < len(closes)-1; i++ {
		if closes[i] > value {
			value = closes[i]
			idx = i
		}
	}
	return idx, value
}
