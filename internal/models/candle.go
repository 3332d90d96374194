package models

import (
	"fmt"
	"time"
)

// SupportedTimeframes is the closed set of candle durations the system accepts.
var SupportedTimeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1M":  30 * 24 * time.Hour,
}

// IsSupportedTimeframe reports whether tf belongs to the closed timeframe set.
func IsSupportedTimeframe(tf string) bool {
	_, ok := SupportedTimeframes[tf]
	return ok
}

// Candle is an immutable OHLCV value for one (symbol, timeframe, open_time).
type Candle struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate enforces the candle invariant: low <= open,close <= high, volume >= 0.
func (c *Candle) Validate() error {
	if c.Symbol == "" {
		return ErrInvalidSymbol
	}
	if !IsSupportedTimeframe(c.Timeframe) {
		return ErrInvalidTimeframe
	}
	if c.OpenTime.IsZero() {
		return ErrInvalidTimestamp
	}
	if c.Volume < 0 {
		return ErrNegativeVolume
	}
	if c.Low > c.Open || c.Open > c.High || c.Low > c.Close || c.Close > c.High || c.Low > c.High {
		return ErrInvalidPriceRange
	}
	return nil
}

// CandleWindow is an ordered sequence of Candles for a single (symbol, timeframe),
// strictly increasing by OpenTime, with no permitted gaps.
type CandleWindow struct {
	Symbol    string
	Timeframe string
	Candles   []Candle
}

// Validate checks ordering, symbol/timeframe consistency and gap-freeness.
func (w *CandleWindow) Validate() error {
	if len(w.Candles) == 0 {
		return ErrInsufficientData
	}
	step, ok := SupportedTimeframes[w.Timeframe]
	if !ok {
		return ErrInvalidTimeframe
	}
	for i, c := range w.Candles {
		if c.Symbol != w.Symbol || c.Timeframe != w.Timeframe {
			return fmt.Errorf("%w: candle %d belongs to %s/%s, window is %s/%s", ErrInvalidSymbol, i, c.Symbol, c.Timeframe, w.Symbol, w.Timeframe)
		}
		if i == 0 {
			continue
		}
		prev := w.Candles[i-1]
		delta := c.OpenTime.Sub(prev.OpenTime)
		if delta <= 0 {
			return fmt.Errorf("%w: non-increasing open_time at index %d", ErrGappedWindow, i)
		}
		// Allow a small amount of clock jitter but flag genuine gaps.
		if delta > step+step/10 {
			return fmt.Errorf("%w: gap of %s between candles %d and %d", ErrGappedWindow, delta, i-1, i)
		}
	}
	return nil
}

// MinLength reports whether the window has at least n candles.
func (w *CandleWindow) MinLength(n int) bool {
	return len(w.Candles) >= n
}

// Last returns the most recent candle in the window.
func (w *CandleWindow) Last() Candle {
	return w.Candles[len(w.Candles)-1]
}

// Closes extracts the closing-price series aligned to the window.
func (w *CandleWindow) Closes() []float64 {
	out := make([]float64, len(w.Candles))
	for i, c := range w.Candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high-price series aligned to the window.
func (w *CandleWindow) Highs() []float64 {
	out := make([]float64, len(w.Candles))
	for i, c := range w.Candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low-price series aligned to the window.
func (w *CandleWindow) Lows() []float64 {
	out := make([]float64, len(w.Candles))
	for i, c := range w.Candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts the volume series aligned to the window.
func (w *CandleWindow) Volumes() []float64 {
	out := make([]float64, len(w.Candles))
	for i, c := range w.Candles {
		out[i] = c.Volume
	}
	return out
}
