package debate

import (
	"fmt"

	"TokenCouncil/internal/model"
	"TokenCouncil/internal/opinion"
)

// fallbackLine derives a canned utterance from the persona and its current
// stance. No network dependency, deterministic for identical requests.
func fallbackLine(req Request) string {
	name := req.Profile.Name
	symbol := ""
	if req.Session != nil && req.Session.Token != nil {
		symbol = req.Session.Token.Symbol
	}
	weighted := opinion.Weighted(req.Profile, req.Scores)

	switch req.Stage {
	case StageOpening:
		return fmt.Sprintf("%s: my read on %s is holders %.0f, technicals %.0f, liquidity %.0f, momentum %.0f. Weighted that puts me at %.0f, so I'm %s.",
			name, symbol, req.Scores.Holder, req.Scores.Technical, req.Scores.Liquidity, req.Scores.Momentum, weighted, req.Opinion)
	case StageChallenge:
		return fmt.Sprintf("%s: %s, my numbers on %s land at %.0f and I'm %s. Convince me your side holds up.",
			name, req.Opponent, symbol, weighted, req.Opinion)
	case StageDefense:
		return fmt.Sprintf("%s: noted, %s. The weights still put me at %.0f on %s, staying %s.",
			name, req.Opponent, weighted, symbol, req.Opinion)
	case StageRevision:
		return fmt.Sprintf("%s: I've heard the arguments on %s. Sticking with %s at %.0f.",
			name, symbol, req.Opinion, weighted)
	default:
		return fmt.Sprintf("%s: %s on %s.", name, req.Opinion, symbol)
	}
}

// fallbackVote is the deterministic revision result when the generator is
// unavailable: the persona keeps its stance.
func fallbackVote(req Request) Revision {
	return Revision{Changed: false, NewOpinion: model.Opinion(""), Text: fallbackLine(req)}
}
