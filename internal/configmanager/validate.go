package configmanager

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ridopark/ta-signal-bot/internal/models"
)

// symbolPattern enforces spec.md §4.7's `^[A-Z0-9]{6,12}$` rule.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)

// recognizedQuoteCurrencies is the closed set of quote currencies a symbol
// must end in, per spec.md §4.7.
var recognizedQuoteCurrencies = []string{"USDT", "USDC", "BUSD", "USD", "BTC", "ETH", "EUR"}

func validSymbol(symbol string) bool {
	if !symbolPattern.MatchString(symbol) {
		return false
	}
	for _, q := range recognizedQuoteCurrencies {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return true
		}
	}
	return false
}

// ApplicationConfigPatch carries only the fields an admin call supplies;
// a nil field means "leave unchanged". A non-nil empty slice replaces the
// stored list and is then rejected by validation.
type ApplicationConfigPatch struct {
	EnabledStrategies []string
	Symbols           []string
	CandlePeriods     []string
	MinConfidence     *float64
	MaxConfidence     *float64
	MaxPositions      *int
	PositionSizes     []string // decimal strings, e.g. "0.1"
}

// validateApplicationConfig re-checks every spec.md §4.7 rule that needs
// the known-strategy-id set, on top of models.ApplicationConfig.Validate's
// self-contained checks.
func (m *Manager) validateApplicationConfig(cfg *models.ApplicationConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	for _, id := range cfg.EnabledStrategies {
		if !m.registry.IsKnown(id) {
			return fmt.Errorf("%w: unknown strategy id %q", models.ErrValidation, id)
		}
	}
	for _, sym := range cfg.Symbols {
		if !validSymbol(sym) {
			return fmt.Errorf("%w: symbol %q does not match ^[A-Z0-9]{6,12}$ with a recognized quote currency", models.ErrValidation, sym)
		}
	}
	for _, tf := range cfg.CandlePeriods {
		if !models.IsSupportedTimeframe(tf) {
			return fmt.Errorf("%w: candle_period %q is not in the supported timeframe set", models.ErrValidation, tf)
		}
	}
	return nil
}

// strategyParamBounds are the strategy-specific numeric bounds spec.md
// §4.7 requires for periods/thresholds. Keys absent here are accepted
// without a bound check (still must be numeric if they look like a
// threshold/period by name).
var strategyParamBounds = map[string][2]float64{
	"period":        {1, 500},
	"fast_period":   {1, 200},
	"slow_period":   {1, 400},
	"signal_period": {1, 100},
	"threshold":     {0, 100},
	"confidence":    {0, 1},
}

// validateStrategyParams enforces "periods are positive integers,
// thresholds are numeric and within strategy-specific bounds" for any key
// whose name contains "period" or "threshold"/"confidence".
func validateStrategyParams(params map[string]interface{}) error {
	for key, raw := range params {
		lower := strings.ToLower(key)
		isPeriod := strings.Contains(lower, "period")
		isBound := strings.Contains(lower, "threshold") || strings.Contains(lower, "confidence")
		if !isPeriod && !isBound {
			continue
		}
		num, ok := toFloat(raw)
		if !ok {
			return fmt.Errorf("%w: param %q must be numeric", models.ErrValidation, key)
		}
		if isPeriod && (num <= 0 || num != math.Trunc(num)) {
			return fmt.Errorf("%w: param %q must be a positive integer", models.ErrValidation, key)
		}
		for boundKey, bounds := range strategyParamBounds {
			if strings.Contains(lower, boundKey) {
				if num < bounds[0] || num > bounds[1] {
					return fmt.Errorf("%w: param %q=%v out of bounds [%v,%v]", models.ErrValidation, key, num, bounds[0], bounds[1])
				}
			}
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
