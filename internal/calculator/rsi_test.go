package calculator

import (
	"testing"

	"TokenCouncil/internal/model"
)

func candlesFromCloses(closes []float64) []model.Candle {
	candles := make([]model.Candle, len(closes))
	for i, c := range closes {
		candles[i] = model.Candle{Open: c, High: c, Low: c, Close: c}
	}
	return candles
}

func TestCalculateRSI_InsufficientData(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3})
	rsi, err := CalculateRSI(candles, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi != 50.0 {
		t.Errorf("expected neutral 50 on short series, got %.2f", rsi)
	}
}

func TestCalculateRSI_AllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 1.0 + float64(i)*0.1
	}
	rsi, err := CalculateRSI(candlesFromCloses(closes), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi != 100.0 {
		t.Errorf("expected 100 when there are no losses, got %.2f", rsi)
	}
}

func TestCalculateRSI_MixedSeries(t *testing.T) {
	closes := []float64{
		10, 10.5, 10.2, 10.8, 10.6, 11.0, 10.9, 11.3, 11.1, 11.5,
		11.2, 11.6, 11.4, 11.8, 11.6, 12.0, 11.9, 12.2,
	}
	rsi, err := CalculateRSI(candlesFromCloses(closes), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi <= 50 || rsi >= 100 {
		t.Errorf("expected RSI in (50,100) for an uptrend with pullbacks, got %.2f", rsi)
	}
}

func TestCalculateRSI_InvalidPeriod(t *testing.T) {
	if _, err := CalculateRSI(candlesFromCloses([]float64{1, 2}), 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}
