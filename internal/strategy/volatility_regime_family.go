package strategy

import "github.com/ridopark/ta-signal-bot/internal/models"

// Volatility-regime family (spec.md §4.4) is diagnostic rather than
// directional: these strategies emit a hold action carrying regime
// metadata for downstream consumption, and the Engine discards hold
// signals before publication rather than special-casing this family.

// BollingerSqueezeAlert flags when the Bollinger band width has compressed
// below a threshold, signaling an imminent volatility expansion without
// predicting its direction.
type BollingerSqueezeAlert struct{}

func (s *BollingerSqueezeAlert) ID() string { return "bollinger_squeeze_alert" }

func (s *BollingerSqueezeAlert) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorBBUpper, models.IndicatorBBMiddle, models.IndicatorBBLower)
}

func (s *BollingerSqueezeAlert) DefaultParams() Params {
	return Params{"squeeze_width_pct": 2.0}
}

func (s *BollingerSqueezeAlert) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	upper, ok1 := bundle.Latest(models.IndicatorBBUpper)
	middle, ok2 := bundle.Latest(models.IndicatorBBMiddle)
	lower, ok3 := bundle.Latest(models.IndicatorBBLower)
	if !ok1 || !ok2 || !ok3 || middle == 0 {
		return nil
	}
	maxWidthPct := params.Float("squeeze_width_pct", 2.0) / 100.0
	widthPct := (upper - lower) / middle
	if widthPct > maxWidthPct {
		return nil
	}
	snapshot := map[string]interface{}{"bb_width_pct": widthPct * 100, "regime": "squeeze"}
	return newSignal(s.ID(), window, models.ActionHold, 0.5, snapshot)
}

// ATRExpansionAlert flags when ATR has grown sharply relative to its recent
// average, marking a shift from a quiet to a volatile regime.
type ATRExpansionAlert struct{}

func (s *ATRExpansionAlert) ID() string { return "atr_expansion_alert" }

func (s *ATRExpansionAlert) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorATR)
}

func (s *ATRExpansionAlert) DefaultParams() Params {
	return Params{"expansion_multiple": 1.5, "baseline_periods": 20.0}
}

func (s *ATRExpansionAlert) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	atrEntry, ok := bundle.Get(models.IndicatorATR)
	if !ok || len(atrEntry.Series) == 0 {
		return nil
	}
	baseline := int(params.Float("baseline_periods", 20.0))
	multiple := params.Float("expansion_multiple", 1.5)
	series := atrEntry.Series
	if len(series) < baseline+1 {
		return nil
	}
	window0 := series[len(series)-baseline-1 : len(series)-1]
	var sum float64
	for _, v := range window0 {
		sum += v
	}
	avg := sum / float64(len(window0))
	if avg == 0 {
		return nil
	}
	last := atrEntry.Latest
	ratio := last / avg
	snapshot := map[string]interface{}{"atr": last, "atr_baseline": avg, "atr_ratio": ratio, "regime": "expansion"}

	if ratio >= multiple {
		return newSignal(s.ID(), window, models.ActionHold, 0.5, snapshot)
	}
	return nil
}
