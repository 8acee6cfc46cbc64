package trade

import (
	"context"
	"log"
	"sort"
	"time"

	"TokenCouncil/internal/event"
	"TokenCouncil/internal/model"
)

// Executor performs the on-chain buy. The core calls it at most once per
// TradeIntent and never retries.
type Executor interface {
	Buy(ctx context.Context, persona, tokenAddress string, amountIn float64) (amountOut float64, txID string, err error)
}

// BalanceGate answers trading-policy and balance questions for a persona.
// Balances are read, never mutated, by this engine.
type BalanceGate interface {
	CanTrade(ctx context.Context, persona string) (allowed bool, reason string, err error)
	Balance(ctx context.Context, persona string) (float64, error)
}

// Limits bound trade sizing. Zero fields fall back to defaults.
type Limits struct {
	MinBalance  float64 // below this the persona is skipped with "no funds"
	MinTrade    float64 // minimum viable trade size
	MaxPerTrade float64 // per-persona cap
}

const (
	DefaultMinBalance  = 1.0
	DefaultMinTrade    = 0.5
	DefaultMaxPerTrade = 5.0

	// Sizing: balance fraction grows with the verdict's aggregate
	// confidence, from baseFraction up to baseFraction+confFraction.
	baseFraction = 0.25
	confFraction = 0.50
)

// Coordinator executes the verdict's trades sequentially, one persona at a
// time, so balance checks cannot race each other.
type Coordinator struct {
	gate   BalanceGate
	exec   Executor
	bus    *event.Bus
	limits Limits
}

// NewCoordinator wires a trade coordinator.
func NewCoordinator(gate BalanceGate, exec Executor, bus *event.Bus, limits Limits) *Coordinator {
	if limits.MinBalance <= 0 {
		limits.MinBalance = DefaultMinBalance
	}
	if limits.MinTrade <= 0 {
		limits.MinTrade = DefaultMinTrade
	}
	if limits.MaxPerTrade <= 0 {
		limits.MaxPerTrade = DefaultMaxPerTrade
	}
	return &Coordinator{gate: gate, exec: exec, bus: bus, limits: limits}
}

// Execute runs the trade pipeline for every bullish persona in the final
// verdict. Exactly one TradeResult is produced per bullish persona; one
// persona's failure never prevents another's trade.
func (c *Coordinator) Execute(ctx context.Context, s *model.DebateSession, verdict *model.Verdict) []model.TradeResult {
	if verdict == nil || verdict.Decision != model.DecisionBuy {
		return nil
	}

	names := make([]string, 0, len(verdict.FinalOpinions))
	for name, op := range verdict.FinalOpinions {
		if op == model.OpinionBullish {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	results := make([]model.TradeResult, 0, len(names))
	for _, name := range names {
		res := c.tradeFor(ctx, s, name, verdict.Confidence)
		results = append(results, res)
		if c.bus != nil {
			c.bus.Publish(event.Event{
				Type:      event.TypeTradeOutcome,
				SessionID: s.ID, TokenAddress: s.Token.Address, TokenSymbol: s.Token.Symbol,
				Persona: name, Trade: &res,
			})
		}
	}
	return results
}

func (c *Coordinator) tradeFor(ctx context.Context, s *model.DebateSession, persona string, confidence float64) model.TradeResult {
	res := model.TradeResult{
		Persona:      persona,
		TokenAddress: s.Token.Address,
		Timestamp:    time.Now(),
	}

	// 1. Policy gate. A rejection is a normal outcome, not an error.
	allowed, reason, err := c.gate.CanTrade(ctx, persona)
	if err != nil {
		res.Status = model.TradeSkipped
		res.Reason = "policy check unavailable: " + err.Error()
		return res
	}
	if !allowed {
		res.Status = model.TradeSkipped
		res.Reason = reason
		return res
	}

	// 2. Balance check.
	balance, err := c.gate.Balance(ctx, persona)
	if err != nil {
		res.Status = model.TradeSkipped
		res.Reason = "balance unavailable: " + err.Error()
		return res
	}
	if balance < c.limits.MinBalance {
		res.Status = model.TradeSkipped
		res.Reason = "no funds"
		return res
	}

	// 3. Size the trade from balance and aggregate confidence.
	amount := balance * (baseFraction + confFraction*confidence)
	if amount > c.limits.MaxPerTrade {
		amount = c.limits.MaxPerTrade
	}
	if amount < c.limits.MinTrade {
		res.Status = model.TradeSkipped
		res.Reason = "below minimum viable size"
		return res
	}
	res.AmountIn = amount

	// 4. Execute. Never retried, never rolled back.
	amountOut, txID, err := c.exec.Buy(ctx, persona, s.Token.Address, amount)
	if err != nil {
		log.Printf("[ERROR] buy failed for %s on %s: %v", persona, s.Token.Symbol, err)
		res.Status = model.TradeFailed
		res.Reason = err.Error()
		return res
	}

	res.Status = model.TradeConfirmed
	res.AmountOut = amountOut
	res.TxID = txID
	log.Printf("[INFO] %s bought %.2f MON of %s (tx %s)", persona, amount, s.Token.Symbol, txID)
	return res
}
