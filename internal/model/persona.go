package model

// Opinion is a persona's current stance on a token.
type Opinion string

const (
	OpinionBullish Opinion = "bullish"
	OpinionBearish Opinion = "bearish"
	OpinionNeutral Opinion = "neutral"
)

// Valid reports whether o is one of the three known stances.
func (o Opinion) Valid() bool {
	return o == OpinionBullish || o == OpinionBearish || o == OpinionNeutral
}

// ScoreWeights are a persona's four scoring weights. They must be
// non-negative and sum to 1.0.
type ScoreWeights struct {
	Holder    float64
	Technical float64
	Liquidity float64
	Momentum  float64
}

// Sum returns the total of the four weights.
func (w ScoreWeights) Sum() float64 {
	return w.Holder + w.Technical + w.Liquidity + w.Momentum
}

// PersonaProfile is the static configuration of one council member.
// Never mutated at runtime.
type PersonaProfile struct {
	Name             string
	Style            string // one-line voice description for the narrative generator
	Weights          ScoreWeights
	BullishThreshold float64 // weighted score >= threshold -> bullish
	BearishThreshold float64 // weighted score < threshold -> bearish
}

// SubScores are the four normalized component scores, each in [0,100].
type SubScores struct {
	Holder    float64
	Technical float64
	Liquidity float64
	Momentum  float64
}
