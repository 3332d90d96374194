package engine

import (
	"testing"
	"time"

	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := newBreaker(3)
	assert.False(t, b.recordFailure("s1"))
	assert.False(t, b.recordFailure("s1"))
	assert.True(t, b.recordFailure("s1"), "third consecutive failure should trip")

	// counter resets after tripping
	assert.False(t, b.recordFailure("s1"))
}

func TestBreakerSuccessResetsCounter(t *testing.T) {
	b := newBreaker(2)
	assert.False(t, b.recordFailure("s1"))
	b.recordSuccess("s1")
	assert.False(t, b.recordFailure("s1"), "counter should have reset after success")
}

func TestBreakerTracksStrategiesIndependently(t *testing.T) {
	b := newBreaker(2)
	assert.False(t, b.recordFailure("s1"))
	assert.False(t, b.recordFailure("s2"))
	assert.True(t, b.recordFailure("s2"))
	assert.True(t, b.recordFailure("s1"))
}

func TestDedupCacheSuppressesSameActionWithinCooldown(t *testing.T) {
	d := newDedupCache()
	now := time.Now().UTC()
	cooldown := time.Hour

	suppressed := d.shouldSuppress("momentum_pulse", "BTCUSDT", "1h", models.ActionBuy, now, cooldown)
	assert.False(t, suppressed, "first emission is never suppressed")

	again := d.shouldSuppress("momentum_pulse", "BTCUSDT", "1h", models.ActionBuy, now.Add(10*time.Minute), cooldown)
	assert.True(t, again, "repeat of same action within cooldown should suppress")
}

func TestDedupCacheAllowsDifferentActionOrAfterCooldown(t *testing.T) {
	d := newDedupCache()
	now := time.Now().UTC()
	cooldown := time.Hour

	d.shouldSuppress("momentum_pulse", "BTCUSDT", "1h", models.ActionBuy, now, cooldown)

	flip := d.shouldSuppress("momentum_pulse", "BTCUSDT", "1h", models.ActionSell, now.Add(time.Minute), cooldown)
	assert.False(t, flip, "a different action is never a duplicate")

	late := d.shouldSuppress("momentum_pulse", "BTCUSDT", "1h", models.ActionSell, now.Add(2*time.Hour), cooldown)
	assert.False(t, late, "same action after cooldown elapses should not suppress")
}

func TestDedupCacheTracksStrategiesAndSymbolsIndependently(t *testing.T) {
	d := newDedupCache()
	now := time.Now().UTC()
	cooldown := time.Hour

	d.shouldSuppress("strategy_a", "BTCUSDT", "1h", models.ActionBuy, now, cooldown)
	otherStrategy := d.shouldSuppress("strategy_b", "BTCUSDT", "1h", models.ActionBuy, now, cooldown)
	otherSymbol := d.shouldSuppress("strategy_a", "ETHUSDT", "1h", models.ActionBuy, now, cooldown)

	assert.False(t, otherStrategy)
	assert.False(t, otherSymbol)
}

func TestEngineEnrichRiskUsesATRWhenPresent(t *testing.T) {
	e := &Engine{cfg: DefaultConfig()}
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorATR, 2.0, nil)

	sig := models.NewSignal("atr_strategy", "BTCUSDT", "1h", models.ActionBuy, 0.8, 100.0)
	e.enrichRisk(sig, bundle)

	require.NotNil(t, sig.StopLoss)
	require.NotNil(t, sig.TakeProfit)
	assert.InDelta(t, 100.0-2.0*e.cfg.Risk.ATRStopLossMultiplier, *sig.StopLoss, 1e-9)
	assert.InDelta(t, 100.0+2.0*e.cfg.Risk.ATRTakeProfitMultiplier, *sig.TakeProfit, 1e-9)
	assert.Equal(t, true, sig.Metadata["stop_loss_calculated"])
}

func TestEngineEnrichRiskFallsBackToPercentageWithoutATR(t *testing.T) {
	e := &Engine{cfg: DefaultConfig()}
	bundle := models.NewIndicatorBundle()

	sig := models.NewSignal("no_atr_strategy", "BTCUSDT", "1h", models.ActionSell, 0.7, 100.0)
	e.enrichRisk(sig, bundle)

	require.NotNil(t, sig.StopLoss)
	require.NotNil(t, sig.TakeProfit)
	assert.InDelta(t, 100.0+100.0*e.cfg.Risk.DefaultStopLossPct, *sig.StopLoss, 1e-9)
	assert.InDelta(t, 100.0-100.0*e.cfg.Risk.DefaultTakeProfitPct, *sig.TakeProfit, 1e-9)
}

func TestEngineEnrichRiskLeavesExistingBoundsAlone(t *testing.T) {
	e := &Engine{cfg: DefaultConfig()}
	bundle := models.NewIndicatorBundle()
	bundle.Set(models.IndicatorATR, 2.0, nil)

	sig := models.NewSignal("pre_enriched", "BTCUSDT", "1h", models.ActionBuy, 0.8, 100.0)
	stop, take := 95.0, 110.0
	sig.StopLoss, sig.TakeProfit = &stop, &take
	e.enrichRisk(sig, bundle)

	assert.Equal(t, 95.0, *sig.StopLoss)
	assert.Equal(t, 110.0, *sig.TakeProfit)
	assert.Nil(t, sig.Metadata["stop_loss_calculated"])
}

func TestEngineFilterByConfidenceDropsHoldAndOutOfWindow(t *testing.T) {
	e := &Engine{cfg: DefaultConfig()}
	signals := []*models.Signal{
		models.NewSignal("a", "BTCUSDT", "1h", models.ActionBuy, 0.9, 100),
		models.NewSignal("b", "BTCUSDT", "1h", models.ActionHold, 0.9, 100),
		models.NewSignal("c", "BTCUSDT", "1h", models.ActionBuy, 0.1, 100),
		models.NewSignal("d", "BTCUSDT", "1h", models.ActionSell, 0.65, 100),
	}
	out := e.filterByConfidence(signals, 0.5, 0.95)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].StrategyID)
	assert.Equal(t, "d", out[1].StrategyID)
}

func TestEngineFilterDuplicatesSuppressesRepeatWithinSameCall(t *testing.T) {
	e := &Engine{cfg: DefaultConfig(), dedup: newDedupCache(), metrics: &Metrics{}}
	s1 := models.NewSignal("dup_strategy", "BTCUSDT", "1h", models.ActionBuy, 0.8, 100)
	s2 := models.NewSignal("dup_strategy", "BTCUSDT", "1h", models.ActionBuy, 0.81, 101)

	out := e.filterDuplicates([]*models.Signal{s1, s2}, "1h")
	require.Len(t, out, 1)
	assert.Equal(t, s1, out[0])
	assert.EqualValues(t, 1, e.metrics.Snapshot().SignalsSuppressed)
}

func TestContainsAndTimeframeDuration(t *testing.T) {
	assert.True(t, contains([]string{"BTCUSDT", "ETHUSDT"}, "ETHUSDT"))
	assert.False(t, contains([]string{"BTCUSDT"}, "ETHUSDT"))
	assert.Equal(t, time.Hour, timeframeDuration("1h"))
	assert.Equal(t, time.Minute, timeframeDuration("not-a-timeframe"))
}
