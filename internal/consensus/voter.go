package consensus

import (
	"github.com/samber/lo"

	"TokenCouncil/internal/model"
	"TokenCouncil/internal/opinion"
)

// Quorum is the minimum count of bullish opinions required for a buy
// verdict. Ties and every other distribution resolve to pass.
const Quorum = 3

// Tally folds the frozen final opinions into a verdict. Pure: the same
// opinion map always yields the same verdict.
func Tally(final map[string]model.Opinion) model.Verdict {
	frozen := make(map[string]model.Opinion, len(final))
	for name, op := range final {
		frozen[name] = op
	}

	bullish := lo.CountValues(lo.Values(frozen))[model.OpinionBullish]
	decision := model.DecisionPass
	if bullish >= Quorum {
		decision = model.DecisionBuy
	}

	return model.Verdict{
		Decision:      decision,
		FinalOpinions: frozen,
		BullishCount:  bullish,
	}
}

// Confidence returns the mean weighted score of the bullish personas,
// normalized to [0,1]. Zero when nobody is bullish.
func Confidence(personas []model.PersonaProfile, scores model.SubScores, final map[string]model.Opinion) float64 {
	bulls := lo.Filter(personas, func(p model.PersonaProfile, _ int) bool {
		return final[p.Name] == model.OpinionBullish
	})
	if len(bulls) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range bulls {
		total += opinion.Weighted(p, scores)
	}
	return total / float64(len(bulls)) / 100.0
}
