package opinion

import "TokenCouncil/internal/model"

// ScoreToken computes the four normalized sub-scores for one analysis pass.
// Pure function: it runs for every persona before any narrative is
// generated, and the debate only narrates its result.
func ScoreToken(token *model.Token, ta *model.TechnicalIndicators, risk *model.RiskAssessment) model.SubScores {
	return model.SubScores{
		Holder:    holderScore(token.Holders),
		Technical: technicalScore(ta),
		Liquidity: liquidityScore(token),
		Momentum:  momentumScore(token, ta, risk),
	}
}

// Decide maps the persona-weighted sub-score total to a stance.
// Deterministic: identical (profile, scores) always yield the same Opinion.
func Decide(profile model.PersonaProfile, scores model.SubScores) model.Opinion {
	weighted := Weighted(profile, scores)
	switch {
	case weighted >= profile.BullishThreshold:
		return model.OpinionBullish
	case weighted < profile.BearishThreshold:
		return model.OpinionBearish
	default:
		return model.OpinionNeutral
	}
}

// Weighted returns the persona's weighted total of the four sub-scores.
func Weighted(profile model.PersonaProfile, s model.SubScores) float64 {
	w := profile.Weights
	return w.Holder*s.Holder + w.Technical*s.Technical + w.Liquidity*s.Liquidity + w.Momentum*s.Momentum
}

// holderScore steps through community-size tiers.
func holderScore(holders int) float64 {
	switch {
	case holders >= 30000:
		return 100 // massive community
	case holders >= 20000:
		return 90
	case holders >= 10000:
		return 80
	case holders >= 5000:
		return 65
	case holders >= 2000:
		return 50
	case holders >= 1000:
		return 40
	default:
		return 25
	}
}

// technicalScore folds RSI, trend and detected patterns into one component.
// A nil analysis (insufficient candles) scores the neutral midpoint.
func technicalScore(ta *model.TechnicalIndicators) float64 {
	if ta == nil {
		return 50
	}

	var score float64
	switch {
	case ta.RSI < 30:
		score = 70 // oversold, room to run
	case ta.RSI < 45:
		score = 60
	case ta.RSI < 60:
		score = 55
	case ta.RSI < 70:
		score = 45
	default:
		score = 30 // overbought
	}

	switch ta.Trend {
	case model.TrendStrongUp:
		score += 20
	case model.TrendUp:
		score += 10
	case model.TrendDown:
		score -= 10
	case model.TrendStrongDown:
		score -= 20
	}

	for _, p := range ta.Patterns {
		nudge := p.Confidence / 10 // up to +-10 per pattern
		if p.Direction == model.PatternBullish {
			score += nudge
		} else {
			score -= nudge
		}
	}

	return clamp(score)
}

// liquidityScore steps through liquidity-to-market-cap tiers.
func liquidityScore(token *model.Token) float64 {
	ratio := token.LiquidityRatio()
	switch {
	case ratio >= 0.30:
		return 90
	case ratio >= 0.15:
		return 75
	case ratio >= 0.05:
		return 55
	case ratio >= 0.02:
		return 35
	default:
		return 15
	}
}

// momentumScore combines 24h price action, buy pressure and volume, with a
// tilt from the risk assessment.
func momentumScore(token *model.Token, ta *model.TechnicalIndicators, risk *model.RiskAssessment) float64 {
	var score float64
	switch {
	case token.PriceChange24h >= 50:
		score = 85
	case token.PriceChange24h >= 20:
		score = 75
	case token.PriceChange24h >= 5:
		score = 65
	case token.PriceChange24h >= -5:
		score = 50
	case token.PriceChange24h >= -20:
		score = 35
	default:
		score = 20
	}

	if ta != nil {
		if ta.VolumeSpike {
			score += 10
		}
		if ta.BuySellRatio >= 2.0 {
			score += 10
		} else if ta.BuySellRatio < 0.5 {
			score -= 10
		}
	}

	if risk != nil {
		if risk.Score >= 70 {
			score -= 10
		} else if risk.Score <= 30 {
			score += 5
		}
	}

	return clamp(score)
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
