package models

// IndicatorName is a member of the closed catalog of indicator identifiers
// the Calculator may produce.
type IndicatorName string

const (
	IndicatorRSI            IndicatorName = "rsi"
	IndicatorRSI2           IndicatorName = "rsi2"
	IndicatorMACD           IndicatorName = "macd"
	IndicatorMACDSignal     IndicatorName = "macd_signal"
	IndicatorMACDHist       IndicatorName = "macd_hist"
	IndicatorADX            IndicatorName = "adx"
	IndicatorEMA8           IndicatorName = "ema8"
	IndicatorEMA13          IndicatorName = "ema13"
	IndicatorEMA21          IndicatorName = "ema21"
	IndicatorEMA50          IndicatorName = "ema50"
	IndicatorEMA80          IndicatorName = "ema80"
	IndicatorEMA200         IndicatorName = "ema200"
	IndicatorBBUpper        IndicatorName = "bb_upper"
	IndicatorBBMiddle       IndicatorName = "bb_middle"
	IndicatorBBLower        IndicatorName = "bb_lower"
	IndicatorATR            IndicatorName = "atr"
	IndicatorIchimokuTenkan IndicatorName = "ichimoku_tenkan"
	IndicatorIchimokuKijun  IndicatorName = "ichimoku_kijun"
	IndicatorIchimokuSenkouA IndicatorName = "ichimoku_senkou_a"
	IndicatorIchimokuSenkouB IndicatorName = "ichimoku_senkou_b"
	IndicatorVolumeSMA      IndicatorName = "volume_sma"
	IndicatorStochasticK    IndicatorName = "stochastic_k"
	IndicatorStochasticD    IndicatorName = "stochastic_d"
	IndicatorWilliamsR      IndicatorName = "williams_r"
	IndicatorROC            IndicatorName = "roc"
)

// IndicatorEntry holds one indicator's result: a scalar latest value, plus
// optionally the full series aligned to the Candle Window it was computed
// over. Strategies must index scalar vs. series explicitly -- the two are
// never conflated into one ambiguous type.
type IndicatorEntry struct {
	Latest float64
	Series []float64 // nil when the indicator only has a meaningful scalar
}

// IndicatorBundle is a map keyed by indicator name, produced fresh per
// message and discarded after. It is owned by the Engine for the duration
// of one message.
type IndicatorBundle struct {
	entries map[IndicatorName]IndicatorEntry
	meta    map[string]string
}

// NewIndicatorBundle returns an empty bundle ready for Set calls.
func NewIndicatorBundle() *IndicatorBundle {
	return &IndicatorBundle{
		entries: make(map[IndicatorName]IndicatorEntry),
		meta:    make(map[string]string),
	}
}

// Set records an indicator's result. Indicators fail softly: callers should
// simply not call Set for an indicator whose window was too short.
func (b *IndicatorBundle) Set(name IndicatorName, latest float64, series []float64) {
	b.entries[name] = IndicatorEntry{Latest: latest, Series: series}
}

// Get returns the indicator's entry and whether it is present. Strategies
// must tolerate the absent case -- it is the norm, not an error.
func (b *IndicatorBundle) Get(name IndicatorName) (IndicatorEntry, bool) {
	e, ok := b.entries[name]
	return e, ok
}

// Latest is a convenience accessor returning 0, false when absent.
func (b *IndicatorBundle) Latest(name IndicatorName) (float64, bool) {
	e, ok := b.entries[name]
	if !ok {
		return 0, false
	}
	return e.Latest, true
}

// SetMeta attaches a metadata entry (e.g. symbol, timeframe) to the bundle.
func (b *IndicatorBundle) SetMeta(key, value string) {
	b.meta[key] = value
}

// Meta reads a metadata entry.
func (b *IndicatorBundle) Meta(key string) string {
	return b.meta[key]
}

// Names returns the set of indicator names currently present.
func (b *IndicatorBundle) Names() []IndicatorName {
	out := make([]IndicatorName, 0, len(b.entries))
	for n := range b.entries {
		out = append(out, n)
	}
	return out
}
