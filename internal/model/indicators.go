package model

// Trend classifies the price-versus-moving-average ordering.
type Trend string

const (
	TrendStrongUp   Trend = "STRONG_UP"
	TrendUp         Trend = "UP"
	TrendSideways   Trend = "SIDEWAYS"
	TrendDown       Trend = "DOWN"
	TrendStrongDown Trend = "STRONG_DOWN"
)

// PatternDirection is the bias a detected chart pattern implies.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
)

// ChartPattern is one detected formation with a confidence in [0,100].
type ChartPattern struct {
	Name       string
	Confidence float64
	Direction  PatternDirection
}

// TechnicalIndicators holds all indicators computed for one analysis pass.
// Computed once per session, read-only afterward.
type TechnicalIndicators struct {
	RSI          float64
	SMAShort     float64
	SMALong      float64
	Trend        Trend
	VolumeSpike  bool
	BuySellRatio float64 // recent buy count / sell count, 1.0 when no swaps
	Patterns     []ChartPattern
}

// RiskAssessment is a 0-100 score (higher = riskier) plus the flags that
// triggered along the way, in evaluation order.
type RiskAssessment struct {
	Score float64
	Flags []string
}
