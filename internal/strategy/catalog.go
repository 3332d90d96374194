package strategy

// AllStrategies returns one instance of every strategy in the catalog
// (spec.md §4.4): 5 momentum/trend-following, 5 mean-reversion, 5
// pullback-to-trend, 4 breakout, 3 divergence, 5 candlestick-pattern, and 2
// volatility-regime diagnostics. The registry owns deduplication and
// lookup; this function is just the flat enumeration.
func AllStrategies() []Strategy {
	return []Strategy{
		// Momentum / trend-following
		&MomentumPulse{},
		&MACDRSIConfluence{},
		&ADXTrendFollow{},
		&TripleEMAStack{},
		&MomentumAcceleration{},

		// Mean-reversion
		&BollingerBandReversion{},
		&RSI2ExtremeReversal{},
		&OversoldBounce{},
		&OverboughtFade{},
		&StochasticReversal{},

		// Pullback-to-trend
		&EMA21Pullback{},
		&GoldenTrendSync{},
		&TrendContinuationPullback{},
		&EMA8ScalpPullback{},
		&IchimokuCloudPullback{},

		// Breakout
		&RangeBreakout{},
		&VolatilitySqueezeBreakout{},
		&VolumeSurgeBreakout{},
		&DonchianBreakout{},

		// Divergence
		&BullishRSIDivergence{},
		&BearishRSIDivergence{},
		&HiddenBullishDivergence{},

		// Candlestick pattern
		&InsideBarContinuation{},
		&HammerReversal{},
		&FoxTrapReversal{},
		&BullishEngulfingReversal{},
		&ShootingStarReversal{},

		// Volatility regime (diagnostic, hold-only)
		&BollingerSqueezeAlert{},
		&ATRExpansionAlert{},
	}
}
