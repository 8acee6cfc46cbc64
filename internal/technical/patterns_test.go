package technical

import (
	"testing"

	"TokenCouncil/internal/model"
)

func flatCandles(n int, price float64) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = model.Candle{Open: price, High: price, Low: price, Close: price}
	}
	return candles
}

func findPattern(patterns []model.ChartPattern, name string) *model.ChartPattern {
	for i := range patterns {
		if patterns[i].Name == name {
			return &patterns[i]
		}
	}
	return nil
}

func TestDetectPatterns_ShortSeries(t *testing.T) {
	if got := DetectPatterns(flatCandles(5, 1.0)); got != nil {
		t.Errorf("expected no patterns on a short series, got %v", got)
	}
}

func TestDetectPatterns_DoubleTop(t *testing.T) {
	candles := flatCandles(20, 1.0)
	// Two swing highs at nearly the same level.
	candles[5].High = 1.50
	candles[14].High = 1.51

	p := findPattern(DetectPatterns(candles), "double_top")
	if p == nil {
		t.Fatal("expected a double_top pattern")
	}
	if p.Direction != model.PatternBearish {
		t.Errorf("double top must be bearish, got %s", p.Direction)
	}
	if p.Confidence < 60 || p.Confidence > 95 {
		t.Errorf("confidence out of range: %.1f", p.Confidence)
	}
}

func TestDetectPatterns_DoubleBottom(t *testing.T) {
	candles := flatCandles(20, 1.0)
	candles[5].Low = 0.70
	candles[14].Low = 0.705

	p := findPattern(DetectPatterns(candles), "double_bottom")
	if p == nil {
		t.Fatal("expected a double_bottom pattern")
	}
	if p.Direction != model.PatternBullish {
		t.Errorf("double bottom must be bullish, got %s", p.Direction)
	}
}

func TestDetectPatterns_Breakout(t *testing.T) {
	candles := flatCandles(20, 1.0)
	candles[19].Close = 1.10
	candles[19].High = 1.10

	p := findPattern(DetectPatterns(candles), "breakout")
	if p == nil {
		t.Fatal("expected a breakout pattern")
	}
	if p.Direction != model.PatternBullish {
		t.Errorf("breakout must be bullish, got %s", p.Direction)
	}

	// No breakout when the close stays under the prior high.
	candles[19].Close = 1.005
	if findPattern(DetectPatterns(candles), "breakout") != nil {
		t.Error("expected no breakout below the margin")
	}
}

func TestDetectPatterns_MismatchedTops(t *testing.T) {
	candles := flatCandles(20, 1.0)
	candles[5].High = 1.50
	candles[14].High = 1.80 // far outside tolerance

	if findPattern(DetectPatterns(candles), "double_top") != nil {
		t.Error("expected no double_top for mismatched swing highs")
	}
}
