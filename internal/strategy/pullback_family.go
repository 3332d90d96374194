package strategy

import (
	"math"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// Pullback-to-trend family (spec.md §4.4): the broader trend is intact
// (measured by a slow EMA or Ichimoku cloud), but price has pulled back to
// a faster EMA or prior swing level before continuing in the trend's favor.

// EMA21Pullback buys a dip to EMA21 in an uptrend defined by price above
// EMA50, and mirrors it for downtrends.
type EMA21Pullback struct{}

func (s *EMA21Pullback) ID() string { return "ema21_pullback" }

func (s *EMA21Pullback) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorEMA21, models.IndicatorEMA50)
}

func (s *EMA21Pullback) DefaultParams() Params {
	return Params{"tolerance_pct": 0.3}
}

func (s *EMA21Pullback) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	ema21, ok1 := bundle.Latest(models.IndicatorEMA21)
	ema50, ok2 := bundle.Latest(models.IndicatorEMA50)
	if !ok1 || !ok2 {
		return nil
	}
	tolerance := params.Float("tolerance_pct", 0.3) / 100.0
	price := window.Last().Close
	distance := (price - ema21) / ema21
	snapshot := map[string]interface{}{"ema21": ema21, "ema50": ema50, "distance_pct": distance * 100}

	if ema21 > ema50 && distance >= -tolerance && distance <= tolerance && price > ema50 {
		return newSignal(s.ID(), window, models.ActionBuy, 0.58, snapshot)
	}
	if ema21 < ema50 && distance >= -tolerance && distance <= tolerance && price < ema50 {
		return newSignal(s.ID(), window, models.ActionSell, 0.58, snapshot)
	}
	return nil
}

// GoldenTrendSync requires price above the slow EMA200 trend filter and a
// pullback that closes back above EMA21 after dipping below it, confirming
// the pullback has ended.
type GoldenTrendSync struct{}

func (s *GoldenTrendSync) ID() string { return "golden_trend_sync" }

func (s *GoldenTrendSync) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorEMA21, models.IndicatorEMA200)
}

func (s *GoldenTrendSync) DefaultParams() Params {
	return Params{}
}

func (s *GoldenTrendSync) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	ema21, ok1 := bundle.Latest(models.IndicatorEMA21)
	ema200, ok2 := bundle.Latest(models.IndicatorEMA200)
	if !ok1 || !ok2 {
		return nil
	}
	closes := closesTail(window, 3)
	if len(closes) < 3 {
		return nil
	}
	snapshot := map[string]interface{}{"ema21": ema21, "ema200": ema200}

	priorClose := closes[len(closes)-2]
	lastClose := closes[len(closes)-1]

	if ema21 > ema200 && priorClose < ema21 && lastClose >= ema21 {
		return newSignal(s.ID(), window, models.ActionBuy, 0.6, snapshot)
	}
	if ema21 < ema200 && priorClose > ema21 && lastClose <= ema21 {
		return newSignal(s.ID(), window, models.ActionSell, 0.6, snapshot)
	}
	return nil
}

// TrendContinuationPullback uses ADX to confirm the trend is strong enough
// to continue, then looks for a pullback toward the recent swing level.
type TrendContinuationPullback struct{}

func (s *TrendContinuationPullback) ID() string { return "trend_continuation_pullback" }

func (s *TrendContinuationPullback) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorADX, models.IndicatorEMA50)
}

func (s *TrendContinuationPullback) DefaultParams() Params {
	return Params{"adx_threshold": 22.0, "lookback": 10.0}
}

func (s *TrendContinuationPullback) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	adx, ok1 := bundle.Latest(models.IndicatorADX)
	ema50, ok2 := bundle.Latest(models.IndicatorEMA50)
	if !ok1 || !ok2 {
		return nil
	}
	threshold := params.Float("adx_threshold", 22.0)
	lookback := int(params.Float("lookback", 10.0))
	if adx < threshold {
		return nil
	}
	_, swingLowVal := swingLow(window, lookback)
	_, swingHighVal := swingHigh(window, lookback)
	price := window.Last().Close
	snapshot := map[string]interface{}{"adx": adx, "ema50": ema50}

	if price > ema50 && price <= swingLowVal*1.01 && swingLowVal > 0 {
		return newSignal(s.ID(), window, models.ActionBuy, 0.56+confirmationBoost(adx, threshold), snapshot)
	}
	if price < ema50 && price >= swingHighVal*0.99 && swingHighVal > 0 {
		return newSignal(s.ID(), window, models.ActionSell, 0.56+confirmationBoost(adx, threshold), snapshot)
	}
	return nil
}

// EMA8ScalpPullback is a faster-timeframe-oriented pullback to EMA8 used
// for quick scalps when EMA8 and EMA21 both agree on direction.
type EMA8ScalpPullback struct{}

func (s *EMA8ScalpPullback) ID() string { return "ema8_scalp_pullback" }

func (s *EMA8ScalpPullback) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorEMA8, models.IndicatorEMA21)
}

func (s *EMA8ScalpPullback) DefaultParams() Params {
	return Params{"tolerance_pct": 0.2}
}

func (s *EMA8ScalpPullback) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	ema8, ok1 := bundle.Latest(models.IndicatorEMA8)
	ema21, ok2 := bundle.Latest(models.IndicatorEMA21)
	if !ok1 || !ok2 {
		return nil
	}
	tolerance := params.Float("tolerance_pct", 0.2) / 100.0
	price := window.Last().Close
	distance := (price - ema8) / ema8
	snapshot := map[string]interface{}{"ema8": ema8, "ema21": ema21}

	if ema8 > ema21 && distance >= -tolerance && distance <= tolerance {
		return newSignal(s.ID(), window, models.ActionBuy, 0.5, snapshot)
	}
	if ema8 < ema21 && distance >= -tolerance && distance <= tolerance {
		return newSignal(s.ID(), window, models.ActionSell, 0.5, snapshot)
	}
	return nil
}

// IchimokuCloudPullback uses the cloud (senkou spans) as its trend filter:
// price must sit clearly above (or below) the cloud, then pull back toward
// tenkan-sen without breaching kijun-sen, before continuing in the trend's
// favor.
type IchimokuCloudPullback struct{}

func (s *IchimokuCloudPullback) ID() string { return "ichimoku_cloud_pullback" }

func (s *IchimokuCloudPullback) RequiredIndicators() map[models.IndicatorName]bool {
	return indicatorSet(models.IndicatorIchimokuTenkan, models.IndicatorIchimokuKijun,
		models.IndicatorIchimokuSenkouA, models.IndicatorIchimokuSenkouB)
}

func (s *IchimokuCloudPullback) DefaultParams() Params {
	return Params{"tolerance_pct": 0.3}
}

func (s *IchimokuCloudPullback) Analyze(window *models.CandleWindow, bundle *models.IndicatorBundle, params Params) *models.Signal {
	tenkan, ok1 := bundle.Latest(models.IndicatorIchimokuTenkan)
	kijun, ok2 := bundle.Latest(models.IndicatorIchimokuKijun)
	senkouA, ok3 := bundle.Latest(models.IndicatorIchimokuSenkouA)
	senkouB, ok4 := bundle.Latest(models.IndicatorIchimokuSenkouB)
	if !ok1 || !ok2 || !ok3 || !ok4 || tenkan == 0 {
		return nil
	}
	tolerance := params.Float("tolerance_pct", 0.3) / 100.0
	price := window.Last().Close
	cloudTop := math.Max(senkouA, senkouB)
	cloudBottom := math.Min(senkouA, senkouB)
	distance := (price - tenkan) / tenkan
	snapshot := map[string]interface{}{
		"tenkan": tenkan, "kijun": kijun, "senkou_a": senkouA, "senkou_b": senkouB, "distance_pct": distance * 100,
	}

	if price > cloudTop && price > kijun && distance >= -tolerance && distance <= tolerance {
		return newSignal(s.ID(), window, models.ActionBuy, 0.58, snapshot)
	}
	if price < cloudBottom && price < kijun && distance >= -tolerance && distance <= tolerance {
		return newSignal(s.ID(), window, models.ActionSell, 0.58, snapshot)
	}
	return nil
}
