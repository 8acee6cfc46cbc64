package technical

import (
	"math"

	"TokenCouncil/internal/model"
)

const (
	swingLookback = 3
	// Two swing extremes within this fraction of each other count as a
	// matched double top/bottom.
	doubleMatchTolerance = 0.02
	breakoutMargin       = 0.01
)

// DetectPatterns scans the series for chart formations. Multiple patterns
// may coexist; each carries a confidence in [0,100] and a direction.
func DetectPatterns(candles []model.Candle) []model.ChartPattern {
	if len(candles) < swingLookback*2+1 {
		return nil
	}

	highs, lows := findSwingPoints(candles, swingLookback)

	var patterns []model.ChartPattern
	if p, ok := detectDoubleTop(highs); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectDoubleBottom(lows); ok {
		patterns = append(patterns, p)
	}
	if p, ok := detectBreakout(candles); ok {
		patterns = append(patterns, p)
	}
	return patterns
}

type swingPoint struct {
	price float64
	index int
}

// findSwingPoints returns local highs and lows: candles whose high (low)
// strictly exceeds (undercuts) every candle within lookback on both sides.
func findSwingPoints(candles []model.Candle, lookback int) (highs, lows []swingPoint) {
	for i := lookback; i < len(candles)-lookback; i++ {
		isHigh, isLow := true, true
		for j := i - lookback; j <= i+lookback; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, swingPoint{price: candles[i].High, index: i})
		}
		if isLow {
			lows = append(lows, swingPoint{price: candles[i].Low, index: i})
		}
	}
	return highs, lows
}

// detectDoubleTop matches the last two swing highs within tolerance.
func detectDoubleTop(highs []swingPoint) (model.ChartPattern, bool) {
	if len(highs) < 2 {
		return model.ChartPattern{}, false
	}
	a, b := highs[len(highs)-2], highs[len(highs)-1]
	return matchDouble(a.price, b.price, "double_top", model.PatternBearish)
}

// detectDoubleBottom matches the last two swing lows within tolerance.
func detectDoubleBottom(lows []swingPoint) (model.ChartPattern, bool) {
	if len(lows) < 2 {
		return model.ChartPattern{}, false
	}
	a, b := lows[len(lows)-2], lows[len(lows)-1]
	return matchDouble(a.price, b.price, "double_bottom", model.PatternBullish)
}

func matchDouble(a, b float64, name string, dir model.PatternDirection) (model.ChartPattern, bool) {
	if a <= 0 || b <= 0 {
		return model.ChartPattern{}, false
	}
	diff := math.Abs(a-b) / a
	if diff > doubleMatchTolerance {
		return model.ChartPattern{}, false
	}
	// Tighter match -> higher confidence, 60 at tolerance up to 95 exact.
	confidence := 95 - (diff/doubleMatchTolerance)*35
	return model.ChartPattern{Name: name, Confidence: confidence, Direction: dir}, true
}

// detectBreakout flags a close above the prior window's highest high.
func detectBreakout(candles []model.Candle) (model.ChartPattern, bool) {
	last := candles[len(candles)-1]
	priorHigh := 0.0
	for _, c := range candles[:len(candles)-1] {
		if c.High > priorHigh {
			priorHigh = c.High
		}
	}
	if priorHigh <= 0 || last.Close < priorHigh*(1+breakoutMargin) {
		return model.ChartPattern{}, false
	}
	margin := (last.Close - priorHigh) / priorHigh
	confidence := math.Min(90, 60+margin*1000)
	return model.ChartPattern{Name: "breakout", Confidence: confidence, Direction: model.PatternBullish}, true
}
