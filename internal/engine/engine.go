package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridopark/ta-signal-bot/internal/configmanager"
	"github.com/ridopark/ta-signal-bot/internal/historyloader"
	"github.com/ridopark/ta-signal-bot/internal/indicators"
	"github.com/ridopark/ta-signal-bot/internal/logger"
	"github.com/ridopark/ta-signal-bot/internal/models"
	"github.com/ridopark/ta-signal-bot/internal/strategy"
)

// Publisher is the subset of C6 the Engine depends on. Handing a signal to
// Publish is fire-and-forget: retry, backoff and per-sink queuing are the
// Publisher's concern entirely, not the Engine's.
type Publisher interface {
	Publish(sig *models.Signal)
}

// RiskDefaults are the startup-config risk-enrichment knobs (spec.md §4.5
// step 7): an ATR multiplier pair used when the Indicator Bundle has ATR
// available, and a flat percentage pair used otherwise.
type RiskDefaults struct {
	ATRStopLossMultiplier   float64
	ATRTakeProfitMultiplier float64
	DefaultStopLossPct      float64
	DefaultTakeProfitPct    float64
}

// Config carries the Engine's tunables, separate from its collaborators.
type Config struct {
	WindowSize            int
	MinWindowLength       int
	PoolWorkers           int
	PoolQueueDepth        int
	BreakerThreshold      int
	CandleFetchTimeout    time.Duration
	StrategyConfigTimeout time.Duration
	MessageTimeout        time.Duration
	Risk                  RiskDefaults
}

// DefaultConfig mirrors spec.md §5's stated I/O deadlines and §3's default
// window length.
func DefaultConfig() Config {
	return Config{
		WindowSize:            historyloader.DefaultWindowSize,
		MinWindowLength:        strategy.MinWindowLength,
		PoolWorkers:           8,
		PoolQueueDepth:        64,
		BreakerThreshold:      DefaultBreakerThreshold,
		CandleFetchTimeout:    2 * time.Second,
		StrategyConfigTimeout: 1 * time.Second,
		MessageTimeout:        10 * time.Second,
		Risk: RiskDefaults{
			ATRStopLossMultiplier:   2.0,
			ATRTakeProfitMultiplier: 3.0,
			DefaultStopLossPct:      0.02,
			DefaultTakeProfitPct:    0.05,
		},
	}
}

// Engine is C5: the Signal Engine. It owns the sharded worker pool, the
// strategy auto-disable breaker and the last-signal dedup cache; it
// coordinates C2 (history), C3 (indicators), C4 (the strategy catalog) and
// hands finished signals to C6.
type Engine struct {
	cfg        Config
	configMgr  *configmanager.Manager
	loader     *historyloader.Loader
	calculator *indicators.Calculator
	registry   *strategy.Registry
	publisher  Publisher
	pool       *Pool
	breaker    *breaker
	dedup      *dedupCache
	metrics    *Metrics
	logger     zerolog.Logger
}

// New builds an Engine and starts its worker pool.
func New(cfg Config, configMgr *configmanager.Manager, loader *historyloader.Loader, calculator *indicators.Calculator, registry *strategy.Registry, publisher Publisher, logger zerolog.Logger) *Engine {
	logger = logger.With().Str("component", "signal_engine").Logger()
	return &Engine{
		cfg:        cfg,
		configMgr:  configMgr,
		loader:     loader,
		calculator: calculator,
		registry:   registry,
		publisher:  publisher,
		pool:       NewPool(cfg.PoolWorkers, cfg.PoolQueueDepth, logger),
		breaker:    newBreaker(cfg.BreakerThreshold),
		dedup:      newDedupCache(),
		metrics:    &Metrics{},
		logger:     logger,
	}
}

// Metrics returns a snapshot of the Engine's running counters.
func (e *Engine) Metrics() Metrics {
	return e.metrics.Snapshot()
}

// Shutdown drains the worker pool, giving in-flight messages up to
// softDeadline to finish (spec.md §5 cooperative shutdown).
func (e *Engine) Shutdown(softDeadline time.Duration) {
	e.pool.Shutdown(softDeadline)
}

// Submit routes msg onto the shard owning (msg.Symbol, msg.Timeframe) for
// processing. This is the entrypoint C1 calls for every decoded message; it
// never blocks the caller (spec.md §4.1).
func (e *Engine) Submit(msg *models.InboundMessage) {
	e.pool.Submit(msg.Symbol, msg.Timeframe, func() {
		msgCtx, cancel := context.WithTimeout(context.Background(), e.cfg.MessageTimeout)
		defer cancel()
		if err := e.Process(msgCtx, msg); err != nil {
			e.logger.Warn().Err(err).Str("symbol", msg.Symbol).Str("timeframe", msg.Timeframe).
				Msg("signal engine message processing failed")
		}
	})
}

// Process runs the full spec.md §4.5 pipeline for one inbound message:
// load config, early-exit check, load window, compute indicators, fan out
// strategies, filter, de-duplicate, enrich risk, publish. It returns an
// error only for conditions the caller should log loudly; "nothing to do
// this message" is always a nil return, not an error.
func (e *Engine) Process(ctx context.Context, msg *models.InboundMessage) error {
	e.metrics.incProcessed()

	cfg, _, err := e.configMgr.GetApplicationConfig(ctx)
	if err != nil {
		return fmt.Errorf("load application config: %w", err)
	}

	if !contains(cfg.Symbols, msg.Symbol) || !contains(cfg.CandlePeriods, msg.Timeframe) {
		e.metrics.incSkipped()
		return nil
	}

	enabled := e.enabledStrategies(cfg.EnabledStrategies)
	if len(enabled) == 0 {
		e.metrics.incSkipped()
		return nil
	}

	window, err := e.loadWindow(ctx, msg)
	if err != nil {
		e.metrics.incSkipped()
		e.logger.Info().Err(err).Str("symbol", msg.Symbol).Str("timeframe", msg.Timeframe).
			Msg("no candle window available this cycle")
		return nil
	}

	required := make([]map[models.IndicatorName]bool, 0, len(enabled))
	for _, s := range enabled {
		required = append(required, s.RequiredIndicators())
	}
	bundle := e.calculator.Calculate(window, indicators.RequiredUnion(required...))

	signals := e.runStrategies(ctx, enabled, window, bundle, msg.Symbol)
	e.metrics.addEvaluated(int64(len(signals)))

	signals = e.filterByConfidence(signals, cfg.MinConfidence, cfg.MaxConfidence)
	signals = e.filterDuplicates(signals, msg.Timeframe)

	for _, sig := range signals {
		e.enrichRisk(sig, bundle)
		if err := sig.ValidateRisk(); err != nil {
			e.logger.Warn().Err(err).Str("strategy_id", sig.StrategyID).Str("symbol", sig.Symbol).
				Msg("signal dropped: risk bounds invariant violated")
			continue
		}
		e.publisher.Publish(sig)
		e.metrics.incPublished()
	}

	return nil
}

func (e *Engine) enabledStrategies(ids []string) []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(ids))
	for _, id := range ids {
		s, ok := e.registry.Get(id)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (e *Engine) loadWindow(ctx context.Context, msg *models.InboundMessage) (*models.CandleWindow, error) {
	if msg.HasEmbeddedWindow() {
		window := &models.CandleWindow{Symbol: msg.Symbol, Timeframe: msg.Timeframe, Candles: msg.Candles}
		if err := window.Validate(); err != nil {
			return nil, err
		}
		if !window.MinLength(e.cfg.MinWindowLength) {
			return nil, models.ErrInsufficientData
		}
		return window, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.CandleFetchTimeout)
	defer cancel()
	return e.loader.Load(fetchCtx, msg.Symbol, msg.Timeframe, e.cfg.WindowSize, e.cfg.MinWindowLength, time.Time{})
}

// strategyResult pairs a strategy id with its outcome, so a panic recovery
// in one goroutine can report which strategy to the breaker.
type strategyResult struct {
	id     string
	signal *models.Signal
	failed bool
}

func (e *Engine) runStrategies(ctx context.Context, enabled []strategy.Strategy, window *models.CandleWindow, bundle *models.IndicatorBundle, symbol string) []*models.Signal {
	results := make(chan strategyResult, len(enabled))
	var wg sync.WaitGroup
	for _, s := range enabled {
		wg.Add(1)
		go func(s strategy.Strategy) {
			defer wg.Done()
			results <- e.runOne(ctx, s, window, bundle, symbol)
		}(s)
	}
	wg.Wait()
	close(results)

	out := make([]*models.Signal, 0, len(enabled))
	for r := range results {
		if r.failed {
			e.metrics.incStrategyError()
			if e.breaker.recordFailure(r.id) {
				e.disableStrategy(r.id)
			}
			continue
		}
		e.breaker.recordSuccess(r.id)
		if r.signal != nil {
			out = append(out, r.signal)
		}
	}
	return out
}

// runOne calls a single strategy's Analyze behind a panic firewall: a
// misbehaving strategy must never take down the Engine or the other
// strategies running alongside it.
func (e *Engine) runOne(ctx context.Context, s strategy.Strategy, window *models.CandleWindow, bundle *models.IndicatorBundle, symbol string) (result strategyResult) {
	result.id = s.ID()
	defer func() {
		if r := recover(); r != nil {
			logger.LogError(e.logger, fmt.Errorf("%v", r), "strategy analyze panicked", map[string]interface{}{
				"strategy_id": s.ID(),
				"symbol":      symbol,
			})
			result.failed = true
			result.signal = nil
		}
	}()

	paramCtx, cancel := context.WithTimeout(ctx, e.cfg.StrategyConfigTimeout)
	defer cancel()
	params, err := e.configMgr.GetStrategyConfig(paramCtx, s.ID(), symbol, s.DefaultParams())
	if err != nil {
		e.logger.Warn().Err(err).Str("strategy_id", s.ID()).Msg("strategy config lookup failed, using defaults")
		params = s.DefaultParams()
	}

	result.signal = s.Analyze(window, bundle, params)
	return result
}

// disableStrategy fires the supplemented auto-disable breaker: ten
// consecutive Analyze failures remove the strategy from the enabled set
// via a synthetic, fully audited application-config update.
func (e *Engine) disableStrategy(strategyID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, _, err := e.configMgr.GetApplicationConfig(ctx)
	if err != nil {
		e.logger.Error().Err(err).Str("strategy_id", strategyID).
			Msg("breaker tripped but could not read application config to disable strategy")
		return
	}
	remaining := make([]string, 0, len(cfg.EnabledStrategies))
	for _, id := range cfg.EnabledStrategies {
		if id != strategyID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == len(cfg.EnabledStrategies) {
		return // already disabled by a concurrent trip or manual change
	}

	patch := configmanager.ApplicationConfigPatch{EnabledStrategies: remaining}
	reason := fmt.Sprintf("auto-disabled after %d consecutive analyze failures", e.breaker.threshold)
	if _, err := e.configMgr.UpdateApplicationConfig(ctx, patch, "system:breaker", reason, false); err != nil {
		e.logger.Error().Err(err).Str("strategy_id", strategyID).Msg("breaker tripped but disable update failed")
		return
	}
	e.metrics.incDisabled()
	e.logger.Warn().Str("strategy_id", strategyID).Msg("strategy auto-disabled by breaker")
}

func (e *Engine) filterByConfidence(signals []*models.Signal, min, max float64) []*models.Signal {
	out := signals[:0]
	for _, sig := range signals {
		if sig.Action == models.ActionHold {
			continue
		}
		if sig.Confidence < min || sig.Confidence > max {
			continue
		}
		out = append(out, sig)
	}
	return out
}

// filterDuplicates applies the last-signal memory cooldown: a strategy
// repeating the same action for the same (symbol, timeframe) within one
// candle period is suppressed. Distinct strategies agreeing on the same
// symbol are never suppressed against each other.
func (e *Engine) filterDuplicates(signals []*models.Signal, timeframe string) []*models.Signal {
	cooldown := timeframeDuration(timeframe)
	now := time.Now().UTC()
	out := signals[:0]
	for _, sig := range signals {
		if e.dedup.shouldSuppress(sig.StrategyID, sig.Symbol, sig.Timeframe, sig.Action, now, cooldown) {
			e.metrics.incSuppressed()
			sig.Metadata["duplicate_suppressed"] = true
			continue
		}
		out = append(out, sig)
	}
	return out
}

// enrichRisk fills stop_loss/take_profit when a strategy left them unset:
// ATR-based bounds when the bundle has ATR, a flat percentage fallback
// otherwise (spec.md §4.5 step 7).
func (e *Engine) enrichRisk(sig *models.Signal, bundle *models.IndicatorBundle) {
	if sig.HasRisk() {
		return
	}
	price := sig.Price
	var stopDist, takeDist float64
	if atr, ok := bundle.Latest(models.IndicatorATR); ok && atr > 0 {
		stopDist = atr * e.cfg.Risk.ATRStopLossMultiplier
		takeDist = atr * e.cfg.Risk.ATRTakeProfitMultiplier
	} else {
		stopDist = price * e.cfg.Risk.DefaultStopLossPct
		takeDist = price * e.cfg.Risk.DefaultTakeProfitPct
	}

	var stop, take float64
	switch sig.Action {
	case models.ActionBuy:
		stop, take = price-stopDist, price+takeDist
	case models.ActionSell:
		stop, take = price+stopDist, price-takeDist
	default:
		return
	}
	sig.StopLoss = &stop
	sig.TakeProfit = &take
	if sig.Strength == "" {
		sig.Strength = models.DeriveStrength(sig.Confidence)
	}
	if sig.Metadata == nil {
		sig.Metadata = make(map[string]interface{})
	}
	sig.Metadata["stop_loss_calculated"] = true
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func timeframeDuration(tf string) time.Duration {
	if d, ok := models.SupportedTimeframes[tf]; ok {
		return d
	}
	return time.Minute
}
