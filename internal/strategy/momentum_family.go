package strategy

import "github.com/ridopark/ta-signal-bot/internal/models"

// Momentum/trend-following family (spec.md §4.4): MACD histogram sign
// flips confirmed by a warm-but-not-extreme RSI, trend strength from ADX,
// and a short EMA above a long EMA.

// MomentumPulse fires on a MACD histogram sign flip plus RSI in the
// confirming band, gated by ADX and EMA21/EMA50 alignment.
type MomentumPulse struct{}

func (s *MomentumPulse) ID() string { return "momentum_pulse" }

func (s *MomentumPulse) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorMACDHist, models.IndicatorRSI, models.IndicatorADX, models.IndicatorEMA21, models.IndicatorEMA50)
}

func (s *MomentumPulse) DefaultParams() Params {
	return Params{"rsi_buy_low": 50.0, "rsi_buy_high": 65.0, "adx_threshold": 20.0}
}

func (s *MomentumPulse) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	hist, ok := bundle.Get(models.IndicatorMACDHist)
	if !ok || len(hist.Series) < 2 {
		return nil
	}
	rsi, ok := bundle.Latest(models.IndicatorRSI)
	if !ok {
		return nil
	}
	adx, ok := bundle.Latest(models.IndicatorADX)
	if !ok {
		return nil
	}
	ema21, ok1 := bundle.Latest(models.IndicatorEMA21)
	ema50, ok2 := bundle.Latest(models.IndicatorEMA50)
	if !ok1 || !ok2 {
		return nil
	}

	prevHist := hist.Series[len(hist.Series)-2]
	lastHist := hist.Series[len(hist.Series)-1]
	lowBand := params.Float("rsi_buy_low", 50.0)
	highBand := params.Float("rsi_buy_high", 65.0)
	adxThreshold := params.Float("adx_threshold", 20.0)

	flippedBullish := prevHist <= 0 && lastHist > 0
	flippedBearish := prevHist >= 0 && lastHist < 0

	snapshot := map[string]interface{}{"rsi": rsi, "macd_hist": lastHist, "adx": adx}

	switch {
	case flippedBullish && rsi >= lowBand && rsi <= highBand && adx >= adxThreshold && ema21 > ema50:
		confidence := 0.6 + confirmationBoost(adx, adxThreshold)
		return newSignal(s.ID(), window, models.ActionBuy, confidence, snapshot)
	case flippedBearish && rsi <= (100-lowBand) && rsi >= (100-highBand) && adx >= adxThreshold && ema21 < ema50:
		confidence := 0.6 + confirmationBoost(adx, adxThreshold)
		return newSignal(s.ID(), window, models.ActionSell, confidence, snapshot)
	}
	return nil
}

func confirmationBoost(adx, threshold float64) float64 {
	boost := (adx - threshold) / 100.0
	if boost < 0 {
		boost = 0
	}
	if boost > 0.3 {
		boost = 0.3
	}
	return boost
}

// MACDRSIConfluence requires MACD line above signal line (not just the
// histogram sign) together with an RSI reading that confirms momentum
// without being extreme, for a steadier trigger than the pure flip above.
type MACDRSIConfluence struct{}

func (s *MACDRSIConfluence) ID() string { return "macd_rsi_confluence" }

func (s *MACDRSIConfluence) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorMACD, models.IndicatorMACDSignal, models.IndicatorRSI)
}

func (s *MACDRSIConfluence) DefaultParams() Params {
	return Params{"rsi_floor": 52.0, "rsi_ceiling": 68.0}
}

func (s *MACDRSIConfluence) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	macd, ok1 := bundle.Latest(models.IndicatorMACD)
	signal, ok2 := bundle.Latest(models.IndicatorMACDSignal)
	rsi, ok3 := bundle.Latest(models.IndicatorRSI)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	floor := params.Float("rsi_floor", 52.0)
	ceiling := params.Float("rsi_ceiling", 68.0)
	snapshot := map[string]interface{}{"macd": macd, "macd_signal": signal, "rsi": rsi}

	if macd > signal && rsi >= floor && rsi <= ceiling {
		return newSignal(s.ID(), window, models.ActionBuy, 0.58+((rsi-floor)/(ceiling-floor))*0.2, snapshot)
	}
	if macd < signal && rsi <= (100-floor) && rsi >= (100-ceiling) {
		return newSignal(s.ID(), window, models.ActionSell, 0.58+(((100-rsi)-floor)/(ceiling-floor))*0.2, snapshot)
	}
	return nil
}

// ADXTrendFollow trades in the direction of price relative to EMA21 only
// when ADX confirms a genuinely trending (non-choppy) market.
type ADXTrendFollow struct{}

func (s *ADXTrendFollow) ID() string { return "adx_trend_follow" }

func (s *ADXTrendFollow) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorADX, models.IndicatorEMA21)
}

func (s *ADXTrendFollow) DefaultParams() Params {
	return Params{"adx_threshold": 25.0}
}

func (s *ADXTrendFollow) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	adx, ok1 := bundle.Latest(models.IndicatorADX)
	ema21, ok2 := bundle.Latest(models.IndicatorEMA21)
	if !ok1 || !ok2 {
		return nil
	}
	threshold := params.Float("adx_threshold", 25.0)
	if adx < threshold {
		return nil
	}
	price := window.Last().Close
	snapshot := map[string]interface{}{"adx": adx, "ema21": ema21}

	if price > ema21 {
		return newSignal(s.ID(), window, models.ActionBuy, 0.55+confirmationBoost(adx, threshold), snapshot)
	}
	if price < ema21 {
		return newSignal(s.ID(), window, models.ActionSell, 0.55+confirmationBoost(adx, threshold), snapshot)
	}
	return nil
}

// TripleEMAStack requires the full EMA8/EMA21/EMA50 ladder to be aligned,
// a stricter trend-quality gate than a two-EMA check.
type TripleEMAStack struct{}

func (s *TripleEMAStack) ID() string { return "triple_ema_stack" }

func (s *TripleEMAStack) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorEMA8, models.IndicatorEMA21, models.IndicatorEMA50, models.IndicatorADX)
}

func (s *TripleEMAStack) DefaultParams() Params {
	return Params{"adx_threshold": 20.0}
}

func (s *TripleEMAStack) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	ema8, ok1 := bundle.Latest(models.IndicatorEMA8)
	ema21, ok2 := bundle.Latest(models.IndicatorEMA21)
	ema50, ok3 := bundle.Latest(models.IndicatorEMA50)
	adx, ok4 := bundle.Latest(models.IndicatorADX)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	threshold := params.Float("adx_threshold", 20.0)
	if adx < threshold {
		return nil
	}
	snapshot := map[string]interface{}{"ema8": ema8, "ema21": ema21, "ema50": ema50, "adx": adx}

	if emaAligned(ema8, ema21, ema50, true) {
		return newSignal(s.ID(), window, models.ActionBuy, 0.62+confirmationBoost(adx, threshold), snapshot)
	}
	if emaAligned(ema8, ema21, ema50, false) {
		return newSignal(s.ID(), window, models.ActionSell, 0.62+confirmationBoost(adx, threshold), snapshot)
	}
	return nil
}

// MomentumAcceleration looks for the MACD histogram growing in magnitude
// for two consecutive bars in the same direction ROC confirms, catching a
// strengthening (not just flipping) move.
type MomentumAcceleration struct{}

func (s *MomentumAcceleration) ID() string { return "momentum_acceleration" }

func (s *MomentumAcceleration) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorMACDHist, models.IndicatorROC)
}

func (s *MomentumAcceleration) DefaultParams() Params {
	return Params{"roc_threshold": 1.0}
}

func (s *MomentumAcceleration) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	hist, ok := bundle.Get(models.IndicatorMACDHist)
	if !ok || len(hist.Series) < 3 {
		return nil
	}
	roc, ok2 := bundle.Latest(models.IndicatorROC)
	if !ok2 {
		return nil
	}
	threshold := params.Float("roc_threshold", 1.0)
	n := len(hist.Series)
	h2, h1, h0 := hist.Series[n-3], hist.Series[n-2], hist.Series[n-1]
	snapshot := map[string]interface{}{"macd_hist": h0, "roc": roc}

	accelerating := func(a, b, c float64) bool { return c > b && b > a }

	if accelerating(h2, h1, h0) && h0 > 0 && roc > threshold {
		return newSignal(s.ID(), window, models.ActionBuy, 0.57+clamp01(roc/10), snapshot)
	}
	if accelerating(-h2, -h1, -h0) && h0 < 0 && roc < -threshold {
		return newSignal(s.ID(), window, models.ActionSell, 0.57+clamp01(-roc/10), snapshot)
	}
	return nil
}
