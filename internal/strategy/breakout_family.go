package strategy

import "github.com/ridopark/ta-signal-bot/internal/models"

// Breakout family (spec.md §4.4): price escapes a consolidation range,
// either a plain price range, a Bollinger squeeze, a volume surge, or a
// Donchian channel.

// RangeBreakout fires when the close exceeds the prior n-bar high/low.
type RangeBreakout struct{}

func (s *RangeBreakout) ID() string { return "range_breakout" }

func (s *RangeBreakout) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorATR)
}

func (s *RangeBreakout) DefaultParams() Params {
	return Params{"lookback": 20.0}
}

func (s *RangeBreakout) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	lookback := int(params.Float("lookback", 20.0))
	if !window.MinLength(lookback + 1) {
		return nil
	}
	atr, ok := bundle.Latest(models.IndicatorATR)
	if !ok {
		return nil
	}
	candles := window.Candles
	priorHigh, priorLow := rangeHighLow(&models.CandleWindow{Symbol: window.Symbol, Timeframe: window.Timeframe, Candles: candles[:len(candles)-1]}, lookback)
	price := window.Last().Close
	snapshot := map[string]interface{}{"range_high": priorHigh, "range_low": priorLow, "atr": atr}

	if price > priorHigh {
		return newSignal(s.ID(), window, models.ActionBuy, 0.58, snapshot)
	}
	if price < priorLow {
		return newSignal(s.ID(), window, models.ActionSell, 0.58, snapshot)
	}
	return nil
}

// VolatilitySqueezeBreakout waits for Bollinger bands to narrow (low band
// width relative to price) then trades the direction of the breakout once
// the bands start expanding again.
type VolatilitySqueezeBreakout struct{}

func (s *VolatilitySqueezeBreakout) ID() string { return "volatility_squeeze_breakout" }

func (s *VolatilitySqueezeBreakout) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorBBUpper, models.IndicatorBBMiddle, models.IndicatorBBLower)
}

func (s *VolatilitySqueezeBreakout) DefaultParams() Params {
	return Params{"squeeze_width_pct": 2.0}
}

func (s *VolatilitySqueezeBreakout) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	upperEntry, ok1 := bundle.Get(models.IndicatorBBUpper)
	lowerEntry, ok2 := bundle.Get(models.IndicatorBBLower)
	middle, ok3 := bundle.Latest(models.IndicatorBBMiddle)
	if !ok1 || !ok2 || !ok3 || len(upperEntry.Series) < 2 || len(lowerEntry.Series) < 2 {
		return nil
	}
	maxWidthPct := params.Float("squeeze_width_pct", 2.0) / 100.0
	n := len(upperEntry.Series)
	prevWidth := (upperEntry.Series[n-2] - lowerEntry.Series[n-2])
	lastWidth := (upperEntry.Series[n-1] - lowerEntry.Series[n-1])
	prevWidthPct := prevWidth / middle

	price := window.Last().Close
	snapshot := map[string]interface{}{"bb_width_pct": lastWidth / middle * 100}

	wasSqueezed := prevWidthPct <= maxWidthPct
	if !wasSqueezed || lastWidth <= prevWidth {
		return nil
	}
	if price > upperEntry.Series[n-1] {
		return newSignal(s.ID(), window, models.ActionBuy, 0.6, snapshot)
	}
	if price < lowerEntry.Series[n-1] {
		return newSignal(s.ID(), window, models.ActionSell, 0.6, snapshot)
	}
	return nil
}

// VolumeSurgeBreakout requires the breakout candle's volume to exceed the
// volume SMA by a configurable multiple, filtering out low-conviction moves.
type VolumeSurgeBreakout struct{}

func (s *VolumeSurgeBreakout) ID() string { return "volume_surge_breakout" }

func (s *VolumeSurgeBreakout) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorVolumeSMA)
}

func (s *VolumeSurgeBreakout) DefaultParams() Params {
	return Params{"lookback": 20.0, "volume_multiple": 1.8}
}

func (s *VolumeSurgeBreakout) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	lookback := int(params.Float("lookback", 20.0))
	multiple := params.Float("volume_multiple", 1.8)
	if !window.MinLength(lookback + 1) {
		return nil
	}
	volSMA, ok := bundle.Latest(models.IndicatorVolumeSMA)
	if !ok || volSMA == 0 {
		return nil
	}
	candles := window.Candles
	priorHigh, priorLow := rangeHighLow(&models.CandleWindow{Symbol: window.Symbol, Timeframe: window.Timeframe, Candles: candles[:len(candles)-1]}, lookback)
	last := window.Last()
	ratio := last.Volume / volSMA
	snapshot := map[string]interface{}{"volume_ratio": ratio, "range_high": priorHigh, "range_low": priorLow}

	if ratio < multiple {
		return nil
	}
	if last.Close > priorHigh {
		return newSignal(s.ID(), window, models.ActionBuy, 0.6+clamp01((ratio-multiple)/multiple)*0.2, snapshot)
	}
	if last.Close < priorLow {
		return newSignal(s.ID(), window, models.ActionSell, 0.6+clamp01((ratio-multiple)/multiple)*0.2, snapshot)
	}
	return nil
}

// DonchianBreakout is the classic turtle-style n-period high/low channel
// breakout, independent of ATR or volume confirmation.
type DonchianBreakout struct{}

func (s *DonchianBreakout) ID() string { return "donchian_breakout" }

func (s *DonchianBreakout) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet()
}

func (s *DonchianBreakout) DefaultParams() Params {
	return Params{"channel_period": 55.0}
}

func (s *DonchianBreakout) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	period := int(params.Float("channel_period", 55.0))
	if !window.MinLength(period + 1) {
		return nil
	}
	candles := window.Candles
	channelHigh, channelLow := rangeHighLow(&models.CandleWindow{Symbol: window.Symbol, Timeframe: window.Timeframe, Candles: candles[:len(candles)-1]}, period)
	price := window.Last().Close
	snapshot := map[string]interface{}{"channel_high": channelHigh, "channel_low": channelLow}

	if price > channelHigh {
		return newSignal(s.ID(), window, models.ActionBuy, 0.57, snapshot)
	}
	if price < channelLow {
		return newSignal(s.ID(), window, models.ActionSell, 0.57, snapshot)
	}
	return nil
}
