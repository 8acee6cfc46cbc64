package technical

import (
	"errors"
	"log"

	"TokenCouncil/internal/calculator"
	"TokenCouncil/internal/model"
)

// ErrInsufficientData is returned when too few candles are available for a
// meaningful analysis. Callers skip technical commentary and score the
// technical component at its neutral midpoint.
var ErrInsufficientData = errors.New("not enough candles for technical analysis")

const (
	// MinCandles is the minimum series length Analyze accepts.
	MinCandles = 10
	// RSIPeriod is the fixed RSI lookback.
	RSIPeriod = 14
	// SMAShortPeriod and SMALongPeriod drive trend classification.
	SMAShortPeriod = 7
	SMALongPeriod  = 21
	// VolumeSpikeMultiplier flags a spike when the recent average volume
	// exceeds the prior window's average by this factor.
	VolumeSpikeMultiplier = 1.5
	volumeRecentWindow    = 5
	volumePriorWindow     = 20
)

// Analyze computes all technical indicators from a candle series and recent
// swap history. Purely a function of its inputs.
func Analyze(candles []model.Candle, swaps []model.SwapRecord) (*model.TechnicalIndicators, error) {
	if len(candles) < MinCandles {
		return nil, ErrInsufficientData
	}

	closes := calculator.ExtractCloses(candles)
	currentPrice := closes[len(closes)-1]

	ind := &model.TechnicalIndicators{}

	if rsi, err := calculator.CalculateRSI(candles, RSIPeriod); err != nil {
		log.Printf("[WARN] RSI calculation failed: %v, defaulting to 50", err)
		ind.RSI = 50
	} else {
		ind.RSI = rsi
	}

	ind.SMAShort = smaOrAll(closes, SMAShortPeriod)
	ind.SMALong = smaOrAll(closes, SMALongPeriod)
	ind.Trend = classifyTrend(currentPrice, ind.SMAShort, ind.SMALong)
	ind.VolumeSpike = detectVolumeSpike(candles)
	ind.BuySellRatio = buySellRatio(swaps)
	ind.Patterns = DetectPatterns(candles)

	return ind, nil
}

// smaOrAll computes the SMA over period, falling back to the full-series
// mean when fewer values are available.
func smaOrAll(closes []float64, period int) float64 {
	if len(closes) < period {
		period = len(closes)
	}
	sma, err := calculator.CalculateSMA(closes, period)
	if err != nil {
		return 0
	}
	return sma
}

// classifyTrend orders price against the short and long moving averages.
func classifyTrend(price, short, long float64) model.Trend {
	switch {
	case price > short && short > long:
		return model.TrendStrongUp
	case price > short && price > long:
		return model.TrendUp
	case price < short && short < long:
		return model.TrendStrongDown
	case price < short && price < long:
		return model.TrendDown
	default:
		return model.TrendSideways
	}
}

// detectVolumeSpike compares the recent average volume against the prior
// window's average.
func detectVolumeSpike(candles []model.Candle) bool {
	volumes := calculator.ExtractVolumes(candles)
	if len(volumes) < volumeRecentWindow+volumePriorWindow {
		// Shrink the prior window on short series rather than give up.
		prior := len(volumes) - volumeRecentWindow
		if prior < volumeRecentWindow {
			return false
		}
		priorAvg, err := calculator.AverageWindow(volumes, 0, prior)
		if err != nil {
			return false
		}
		recentAvg, err := calculator.AverageTail(volumes, volumeRecentWindow)
		if err != nil {
			return false
		}
		return priorAvg > 0 && recentAvg > priorAvg*VolumeSpikeMultiplier
	}

	start := len(volumes) - volumeRecentWindow - volumePriorWindow
	priorAvg, err := calculator.AverageWindow(volumes, start, start+volumePriorWindow)
	if err != nil {
		return false
	}
	recentAvg, err := calculator.AverageTail(volumes, volumeRecentWindow)
	if err != nil {
		return false
	}
	return priorAvg > 0 && recentAvg > priorAvg*VolumeSpikeMultiplier
}

// buySellRatio counts recent swap directions. 1.0 means balanced or unknown.
func buySellRatio(swaps []model.SwapRecord) float64 {
	var buys, sells int
	for _, s := range swaps {
		if s.Side == model.SwapBuy {
			buys++
		} else {
			sells++
		}
	}
	if buys == 0 && sells == 0 {
		return 1.0
	}
	if sells == 0 {
		return float64(buys)
	}
	return float64(buys) / float64(sells)
}
