package strategy

import "github.com/ridopark/ta-signal-bot/internal/models"

// Mean-reversion family (spec.md §4.4): price stretched away from a central
// tendency (Bollinger band, short-period RSI, or Stochastic) with an
// expectation of snapping back toward it.

// BollingerBandReversion fires when price closes outside a Bollinger band
// and starts reclaiming it, betting on reversion to the middle band.
type BollingerBandReversion struct{}

func (s *BollingerBandReversion) ID() string { return "bollinger_band_reversion" }

func (s *BollingerBandReversion) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorBBUpper, models.IndicatorBBMiddle, models.IndicatorBBLower, models.IndicatorRSI)
}

func (s *BollingerBandReversion) DefaultParams() Params {
	return Params{"rsi_oversold": 35.0, "rsi_overbought": 65.0}
}

func (s *BollingerBandReversion) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	upper, ok1 := bundle.Latest(models.IndicatorBBUpper)
	middle, ok2 := bundle.Latest(models.IndicatorBBMiddle)
	lower, ok3 := bundle.Latest(models.IndicatorBBLower)
	rsi, ok4 := bundle.Latest(models.IndicatorRSI)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	oversold := params.Float("rsi_oversold", 35.0)
	overbought := params.Float("rsi_overbought", 65.0)
	price := window.Last().Close
	snapshot := map[string]interface{}{"bb_upper": upper, "bb_middle": middle, "bb_lower": lower, "rsi": rsi}

	if price <= lower && rsi <= oversold {
		distance := (middle - price) / (middle - lower)
		return newSignal(s.ID(), window, models.ActionBuy, 0.55+clamp01(distance)*0.25, snapshot)
	}
	if price >= upper && rsi >= overbought {
		distance := (price - middle) / (upper - middle)
		return newSignal(s.ID(), window, models.ActionSell, 0.55+clamp01(distance)*0.25, snapshot)
	}
	return nil
}

// RSI2ExtremeReversal uses the ultra-fast 2-period RSI (Larry Connors
// style) to catch short, sharp overextensions within a prevailing trend.
type RSI2ExtremeReversal struct{}

func (s *RSI2ExtremeReversal) ID() string { return "rsi2_extreme_reversal" }

func (s *RSI2ExtremeReversal) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorRSI2, models.IndicatorEMA200)
}

func (s *RSI2ExtremeReversal) DefaultParams() Params {
	return Params{"low_threshold": 10.0, "high_threshold": 90.0}
}

func (s *RSI2ExtremeReversal) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	rsi2, ok1 := bundle.Latest(models.IndicatorRSI2)
	ema200, ok2 := bundle.Latest(models.IndicatorEMA200)
	if !ok1 || !ok2 {
		return nil
	}
	low := params.Float("low_threshold", 10.0)
	high := params.Float("high_threshold", 90.0)
	price := window.Last().Close
	snapshot := map[string]interface{}{"rsi2": rsi2, "ema200": ema200}

	if rsi2 <= low && price > ema200 {
		return newSignal(s.ID(), window, models.ActionBuy, 0.6+clamp01((low-rsi2)/low)*0.25, snapshot)
	}
	if rsi2 >= high && price < ema200 {
		return newSignal(s.ID(), window, models.ActionSell, 0.6+clamp01((rsi2-high)/(100-high))*0.25, snapshot)
	}
	return nil
}

// OversoldBounce is a plain RSI(14) oversold trigger with a volume
// confirmation that the bounce is not happening on dead volume.
type OversoldBounce struct{}

func (s *OversoldBounce) ID() string { return "oversold_bounce" }

func (s *OversoldBounce) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorRSI, models.IndicatorVolumeSMA)
}

func (s *OversoldBounce) DefaultParams() Params {
	return Params{"rsi_threshold": 30.0, "volume_ratio": 1.0}
}

func (s *OversoldBounce) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	rsi, ok1 := bundle.Latest(models.IndicatorRSI)
	volSMA, ok2 := bundle.Latest(models.IndicatorVolumeSMA)
	if !ok1 || !ok2 || volSMA == 0 {
		return nil
	}
	threshold := params.Float("rsi_threshold", 30.0)
	minRatio := params.Float("volume_ratio", 1.0)
	volume := window.Last().Volume
	ratio := volume / volSMA
	snapshot := map[string]interface{}{"rsi": rsi, "volume_ratio": ratio}

	if rsi <= threshold && ratio >= minRatio {
		return newSignal(s.ID(), window, models.ActionBuy, 0.52+clamp01((threshold-rsi)/threshold)*0.3, snapshot)
	}
	return nil
}

// OverboughtFade mirrors OversoldBounce on the sell side.
type OverboughtFade struct{}

func (s *OverboughtFade) ID() string { return "overbought_fade" }

func (s *OverboughtFade) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorRSI, models.IndicatorVolumeSMA)
}

func (s *OverboughtFade) DefaultParams() Params {
	return Params{"rsi_threshold": 70.0, "volume_ratio": 1.0}
}

func (s *OverboughtFade) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	rsi, ok1 := bundle.Latest(models.IndicatorRSI)
	volSMA, ok2 := bundle.Latest(models.IndicatorVolumeSMA)
	if !ok1 || !ok2 || volSMA == 0 {
		return nil
	}
	threshold := params.Float("rsi_threshold", 70.0)
	minRatio := params.Float("volume_ratio", 1.0)
	volume := window.Last().Volume
	ratio := volume / volSMA
	snapshot := map[string]interface{}{"rsi": rsi, "volume_ratio": ratio}

	if rsi >= threshold && ratio >= minRatio {
		return newSignal(s.ID(), window, models.ActionSell, 0.52+clamp01((rsi-threshold)/(100-threshold))*0.3, snapshot)
	}
	return nil
}

// StochasticReversal triggers on a %K/%D crossover inside the oversold or
// overbought zone, the classic Stochastic reversal setup.
type StochasticReversal struct{}

func (s *StochasticReversal) ID() string { return "stochastic_reversal" }

func (s *StochasticReversal) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorStochasticK, models.IndicatorStochasticD)
}

func (s *StochasticReversal) DefaultParams() Params {
	return Params{"oversold": 20.0, "overbought": 80.0}
}

func (s *StochasticReversal) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	kEntry, ok1 := bundle.Get(models.IndicatorStochasticK)
	dEntry, ok2 := bundle.Get(models.IndicatorStochasticD)
	if !ok1 || !ok2 || len(kEntry.Series) < 2 || len(dEntry.Series) < 2 {
		return nil
	}
	oversold := params.Float("oversold", 20.0)
	overbought := params.Float("overbought", 80.0)

	n := len(kEntry.Series)
	prevK, lastK := kEntry.Series[n-2], kEntry.Series[n-1]
	prevD, lastD := dEntry.Series[n-2], dEntry.Series[n-1]
	snapshot := map[string]interface{}{"stochastic_k": lastK, "stochastic_d": lastD}

	crossedUp := prevK <= prevD && lastK > lastD
	crossedDown := prevK >= prevD && lastK < lastD

	if crossedUp && prevK <= oversold {
		return newSignal(s.ID(), window, models.ActionBuy, 0.55, snapshot)
	}
	if crossedDown && prevK >= overbought {
		return newSignal(s.ID(), window, models.ActionSell, 0.55, snapshot)
	}
	return nil
}
