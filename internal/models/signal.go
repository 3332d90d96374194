package models

import "time"

// Action is the trade direction a strategy or the engine emits.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Strength discretizes confidence into a human-facing bucket.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// OrderType and TimeInForce carry the defaults the Engine applies when a
// strategy does not specify execution details; they are opaque to the core
// pipeline and forwarded to the downstream execution service.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
)

// Signal is the central pipeline output. Created by a strategy, mutated
// only by the Engine's enrichment step, then immutable.
type Signal struct {
	StrategyID      string                 `json:"strategy_id"`
	Symbol          string                 `json:"symbol"`
	Timeframe       string                 `json:"timeframe"`
	Action          Action                 `json:"action"`
	Confidence      float64                `json:"confidence"`
	CurrentPrice    float64                `json:"current_price"`
	Price           float64                `json:"price"`
	StopLoss        *float64               `json:"stop_loss,omitempty"`
	TakeProfit      *float64               `json:"take_profit,omitempty"`
	StrategyMode    string                 `json:"strategy_mode"`
	Strength        Strength               `json:"strength"`
	OrderType       OrderType              `json:"order_type"`
	TimeInForce     TimeInForce            `json:"time_in_force"`
	PositionSizePct float64                `json:"position_size_pct"`
	Metadata        map[string]interface{} `json:"metadata"`
	Source          string                 `json:"source"`
	Timestamp       time.Time              `json:"timestamp"`
}

// NewSignal constructs a Signal with the defaults every strategy may rely
// on instead of repeating them: strategy_mode=deterministic, order_type=
// market, time_in_force=GTC, position_size_pct=0.1, source=ta_bot.
func NewSignal(strategyID, symbol, timeframe string, action Action, confidence, price float64) *Signal {
	return &Signal{
		StrategyID:      strategyID,
		Symbol:          symbol,
		Timeframe:       timeframe,
		Action:          action,
		Confidence:      confidence,
		CurrentPrice:    price,
		Price:           price,
		StrategyMode:    "deterministic",
		OrderType:       OrderTypeMarket,
		TimeInForce:     TimeInForceGTC,
		PositionSizePct: 0.1,
		Metadata:        make(map[string]interface{}),
		Source:          "ta_bot",
	}
}

// DeriveStrength discretizes confidence into weak/medium/strong.
func DeriveStrength(confidence float64) Strength {
	switch {
	case confidence >= 0.8:
		return StrengthStrong
	case confidence >= 0.6:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

// HasRisk reports whether both stop-loss and take-profit are already set.
func (s *Signal) HasRisk() bool {
	return s.StopLoss != nil && s.TakeProfit != nil
}

// ValidateRisk enforces spec invariants: stop/take on the correct side of
// price, and a reward-to-risk ratio of at least 1:1.
func (s *Signal) ValidateRisk() error {
	if s.StopLoss == nil || s.TakeProfit == nil {
		return nil
	}
	sl, tp := *s.StopLoss, *s.TakeProfit
	switch s.Action {
	case ActionBuy:
		if !(sl < s.Price && s.Price < tp) {
			return &MarketDataError{Field: "stop_loss/take_profit", Value: s, Message: "buy signal requires stop_loss < price < take_profit"}
		}
	case ActionSell:
		if !(tp < s.Price && s.Price < sl) {
			return &MarketDataError{Field: "stop_loss/take_profit", Value: s, Message: "sell signal requires take_profit < price < stop_loss"}
		}
	}
	risk := s.Price - sl
	reward := tp - s.Price
	if s.Action == ActionSell {
		risk = sl - s.Price
		reward = s.Price - tp
	}
	if risk <= 0 || reward/risk < 1.0 {
		return &MarketDataError{Field: "reward_risk_ratio", Value: reward / risk, Message: "reward-to-risk ratio must be at least 1:1"}
	}
	return nil
}
