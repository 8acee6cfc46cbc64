package model

import "time"

// TradeIntent is a proposed buy for one bullish persona, sized from its
// balance and the verdict confidence. Not persisted unless executed.
type TradeIntent struct {
	Persona      string
	TokenAddress string
	Amount       float64 // MON
}

// TradeStatus classifies the outcome of a trade attempt.
type TradeStatus string

const (
	TradeConfirmed TradeStatus = "CONFIRMED"
	TradeFailed    TradeStatus = "FAILED"
	TradeSkipped   TradeStatus = "SKIPPED"
)

// TradeResult records the outcome of executing (or skipping) a TradeIntent.
// Exactly one result is recorded per (session, persona); never retried.
type TradeResult struct {
	Persona      string
	TokenAddress string
	Status       TradeStatus
	AmountIn     float64
	AmountOut    float64
	TxID         string
	Reason       string // populated for FAILED and SKIPPED
	Timestamp    time.Time
}
