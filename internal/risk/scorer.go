package risk

import (
	"fmt"
	"time"

	"TokenCouncil/internal/model"
)

// Scoring starts from a neutral baseline and applies additive adjustments.
// The result is clamped to [0,100]; higher means riskier. Deterministic for
// identical inputs.
const (
	baselineScore = 50.0

	veryLowLiquidityRatio = 0.02
	lowLiquidityRatio     = 0.05
	deepLiquidityRatio    = 0.30
	veryLowLiquidityPenalty = 25.0
	lowLiquidityPenalty     = 15.0
	deepLiquidityBonus      = 10.0

	fewHoldersCount   = 50
	manyHoldersCount  = 500
	fewHoldersPenalty = 20.0
	manyHoldersBonus  = 10.0

	veryNewAgeHours   = 1.0
	newAgeHours       = 24.0
	veryNewAgePenalty = 20.0
	newAgePenalty     = 10.0

	sellImbalanceFactor  = 2.0
	sellImbalancePenalty = 15.0

	severeDrawdownPct     = 50.0
	largeDrawdownPct      = 30.0
	severeDrawdownPenalty = 20.0
	largeDrawdownPenalty  = 10.0
)

// Score assesses one token snapshot against its recent swap history.
func Score(token *model.Token, swaps []model.SwapRecord, now time.Time) *model.RiskAssessment {
	score := baselineScore
	var flags []string

	// Liquidity-to-market-cap ratio
	ratio := token.LiquidityRatio()
	switch {
	case ratio < veryLowLiquidityRatio:
		score += veryLowLiquidityPenalty
		flags = append(flags, fmt.Sprintf("very low liquidity (%.1f%% of mcap)", ratio*100))
	case ratio < lowLiquidityRatio:
		score += lowLiquidityPenalty
		flags = append(flags, fmt.Sprintf("low liquidity (%.1f%% of mcap)", ratio*100))
	case ratio > deepLiquidityRatio:
		score -= deepLiquidityBonus
		flags = append(flags, fmt.Sprintf("deep liquidity (%.0f%% of mcap)", ratio*100))
	}

	// Holder count
	switch {
	case token.Holders < fewHoldersCount:
		score += fewHoldersPenalty
		flags = append(flags, fmt.Sprintf("very few holders (%d)", token.Holders))
	case token.Holders > manyHoldersCount:
		score -= manyHoldersBonus
	}

	// Token age
	age := token.AgeHours(now)
	switch {
	case age > 0 && age < veryNewAgeHours:
		score += veryNewAgePenalty
		flags = append(flags, fmt.Sprintf("very new token (%.1fh old)", age))
	case age > 0 && age < newAgeHours:
		score += newAgePenalty
		flags = append(flags, fmt.Sprintf("new token (%.0fh old)", age))
	}

	// Sell-pressure imbalance in recent history
	buys, sells := countSides(swaps)
	if sells > 0 && float64(sells) > sellImbalanceFactor*float64(buys) {
		score += sellImbalancePenalty
		flags = append(flags, fmt.Sprintf("sell pressure (%d sells vs %d buys)", sells, buys))
	}

	// Large 24h drawdown
	switch {
	case token.PriceChange24h <= -severeDrawdownPct:
		score += severeDrawdownPenalty
		flags = append(flags, fmt.Sprintf("severe drawdown (%.0f%% in 24h)", token.PriceChange24h))
	case token.PriceChange24h <= -largeDrawdownPct:
		score += largeDrawdownPenalty
		flags = append(flags, fmt.Sprintf("large drawdown (%.0f%% in 24h)", token.PriceChange24h))
	}

	return &model.RiskAssessment{Score: clamp(score), Flags: flags}
}

func countSides(swaps []model.SwapRecord) (buys, sells int) {
	for _, s := range swaps {
		if s.Side == model.SwapBuy {
			buys++
		} else {
			sells++
		}
	}
	return buys, sells
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
