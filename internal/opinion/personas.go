package opinion

import "TokenCouncil/internal/model"

// DefaultCouncil returns the five built-in trading personas. Weights sum to
// 1.0 per persona; profiles are never mutated at runtime.
func DefaultCouncil() []model.PersonaProfile {
	return []model.PersonaProfile{
		{
			Name:             "Blaze",
			Style:            "aggressive momentum chaser, talks fast, loves green candles",
			Weights:          model.ScoreWeights{Holder: 0.10, Technical: 0.25, Liquidity: 0.10, Momentum: 0.55},
			BullishThreshold: 58,
			BearishThreshold: 42,
		},
		{
			Name:             "Vector",
			Style:            "cold chart technician, speaks in levels and indicators",
			Weights:          model.ScoreWeights{Holder: 0.10, Technical: 0.55, Liquidity: 0.15, Momentum: 0.20},
			BullishThreshold: 62,
			BearishThreshold: 45,
		},
		{
			Name:             "Whale",
			Style:            "community watcher, cares about who is holding and why",
			Weights:          model.ScoreWeights{Holder: 0.50, Technical: 0.15, Liquidity: 0.20, Momentum: 0.15},
			BullishThreshold: 60,
			BearishThreshold: 44,
		},
		{
			Name:             "Warden",
			Style:            "risk manager, assumes every pool is a trap until proven otherwise",
			Weights:          model.ScoreWeights{Holder: 0.20, Technical: 0.15, Liquidity: 0.45, Momentum: 0.20},
			BullishThreshold: 70,
			BearishThreshold: 50,
		},
		{
			Name:             "Drift",
			Style:            "contrarian swing trader, fades crowds and hunts reversals",
			Weights:          model.ScoreWeights{Holder: 0.25, Technical: 0.30, Liquidity: 0.25, Momentum: 0.20},
			BullishThreshold: 64,
			BearishThreshold: 47,
		},
	}
}
