package strategy

import "github.com/ridopark/ta-signal-bot/internal/models"

// Divergence family (spec.md §4.4): price makes a new swing extreme that
// RSI does not confirm, a classic early-warning reversal signature.

const divergenceLookback = 20

// BullishRSIDivergence: price makes a lower swing low while RSI makes a
// higher low -- momentum is fading on the down move.
type BullishRSIDivergence struct{}

func (s *BullishRSIDivergence) ID() string { return "bullish_rsi_divergence" }

func (s *BullishRSIDivergence) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorRSI)
}

func (s *BullishRSIDivergence) DefaultParams() Params {
	return Params{"lookback": float64(divergenceLookback)}
}

func (s *BullishRSIDivergence) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	rsiEntry, ok := bundle.Get(models.IndicatorRSI)
	if !ok || len(rsiEntry.Series) < 3 {
		return nil
	}
	lookback := int(params.Float("lookback", float64(divergenceLookback)))
	closes := window.Closes()
	if len(closes) < 3 {
		return nil
	}

	priceIdx, priceLow := swingLow(window, lookback)
	if priceIdx < 0 {
		return nil
	}
	n := len(closes)
	lastClose := closes[n-1]
	rsiAtSwing := rsiEntry.Series[min(priceIdx, len(rsiEntry.Series)-1)]
	lastRSI := rsiEntry.Series[len(rsiEntry.Series)-1]
	snapshot := map[string]interface{}{"swing_low": priceLow, "rsi_at_swing": rsiAtSwing, "rsi_now": lastRSI}

	if lastClose < priceLow && lastRSI > rsiAtSwing {
		return newSignal(s.ID(), window, models.ActionBuy, 0.56, snapshot)
	}
	return nil
}

// BearishRSIDivergence mirrors BullishRSIDivergence for swing highs.
type BearishRSIDivergence struct{}

func (s *BearishRSIDivergence) ID() string { return "bearish_rsi_divergence" }

func (s *BearishRSIDivergence) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorRSI)
}

func (s *BearishRSIDivergence) DefaultParams() Params {
	return Params{"lookback": float64(divergenceLookback)}
}

func (s *BearishRSIDivergence) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	rsiEntry, ok := bundle.Get(models.IndicatorRSI)
	if !ok || len(rsiEntry.Series) < 3 {
		return nil
	}
	lookback := int(params.Float("lookback", float64(divergenceLookback)))
	closes := window.Closes()
	if len(closes) < 3 {
		return nil
	}

	priceIdx, priceHigh := swingHigh(window, lookback)
	if priceIdx < 0 {
		return nil
	}
	n := len(closes)
	lastClose := closes[n-1]
	rsiAtSwing := rsiEntry.Series[min(priceIdx, len(rsiEntry.Series)-1)]
	lastRSI := rsiEntry.Series[len(rsiEntry.Series)-1]
	snapshot := map[string]interface{}{"swing_high": priceHigh, "rsi_at_swing": rsiAtSwing, "rsi_now": lastRSI}

	if lastClose > priceHigh && lastRSI < rsiAtSwing {
		return newSignal(s.ID(), window, models.ActionSell, 0.56, snapshot)
	}
	return nil
}

// HiddenBullishDivergence looks for the continuation variant: price makes
// a higher low (pullback within an uptrend) while RSI makes a lower low,
// signaling the pullback is losing steam and the uptrend should resume.
type HiddenBullishDivergence struct{}

func (s *HiddenBullishDivergence) ID() string { return "hidden_bullish_divergence" }

func (s *HiddenBullishDivergence) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorRSI, models.IndicatorEMA50)
}

func (s *HiddenBullishDivergence) DefaultParams() Params {
	return Params{"lookback": float64(divergenceLookback)}
}

func (s *HiddenBullishDivergence) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	rsiEntry, ok := bundle.Get(models.IndicatorRSI)
	ema50, ok2 := bundle.Latest(models.IndicatorEMA50)
	if !ok || !ok2 || len(rsiEntry.Series) < 3 {
		return nil
	}
	lookback := int(params.Float("lookback", float64(divergenceLookback)))
	closes := window.Closes()
	if len(closes) < 3 {
		return nil
	}

	priceIdx, priceLow := swingLow(window, lookback)
	if priceIdx < 0 {
		return nil
	}
	n := len(closes)
	lastClose := closes[n-1]
	rsiAtSwing := rsiEntry.Series[min(priceIdx, len(rsiEntry.Series)-1)]
	lastRSI := rsiEntry.Series[len(rsiEntry.Series)-1]
	snapshot := map[string]interface{}{"swing_low": priceLow, "rsi_at_swing": rsiAtSwing, "rsi_now": lastRSI, "ema50": ema50}

	if lastClose > priceLow && lastRSI < rsiAtSwing && lastClose > ema50 {
		return newSignal(s.ID(), window, models.ActionBuy, 0.54, snapshot)
	}
	return nil
}
