package calculator

import "errors"

// AverageTail computes the mean of the last n values.
func AverageTail(values []float64, n int) (float64, error) {
	if n <= 0 {
		return 0, errors.New("n must be positive")
	}
	if len(values) < n {
		return 0, errors.New("not enough values")
	}
	sum := 0.0
	for i := len(values) - n; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(n), nil
}

// AverageWindow computes the mean of values[start:end).
func AverageWindow(values []float64, start, end int) (float64, error) {
	if start < 0 || end > len(values) || start >= end {
		return 0, errors.New("invalid window")
	}
	sum := 0.0
	for i := start; i < end; i++ {
		sum += values[i]
	}
	return sum / float64(end-start), nil
}
