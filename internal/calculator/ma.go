package calculator

import (
	"errors"

	"TokenCouncil/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over
// the specified period, using the most recent values.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// ExtractCloses returns the close prices of the given candles in order.
func ExtractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// ExtractVolumes returns the volumes of the given candles in order.
func ExtractVolumes(candles []model.Candle) []float64 {
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		volumes[i] = c.Volume
	}
	return volumes
}
