package marketdata

import (
	"context"
	"sync/atomic"
	"time"

	"TokenCouncil/internal/model"
)

// MockProvider returns controllable fixed data for development and testing.
type MockProvider struct {
	Token    *model.Token
	Swaps    []model.SwapRecord
	Candles  []model.Candle
	Trending []*model.Token
	Err      error // returned by every call when set

	Calls atomic.Int64 // upstream call counter, for coalescing assertions
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) FetchToken(_ context.Context, address string) (*model.Token, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Token != nil {
		return m.Token, nil
	}
	return GenerateMockToken(address), nil
}

func (m *MockProvider) FetchSwapHistory(_ context.Context, _ string, limit int) ([]model.SwapRecord, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Swaps != nil {
		return m.Swaps, nil
	}
	return GenerateMockSwaps(limit, 2.0), nil
}

func (m *MockProvider) FetchCandles(_ context.Context, _ string, limit int) ([]model.Candle, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Candles != nil {
		return m.Candles, nil
	}
	return GenerateMockCandles(1.0, limit), nil
}

func (m *MockProvider) FetchTrending(_ context.Context, _ int) ([]*model.Token, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Trending, nil
}

// GenerateMockToken builds a healthy-looking token snapshot.
func GenerateMockToken(address string) *model.Token {
	return &model.Token{
		Address:        address,
		Symbol:         "MOCK",
		Name:           "Mock Token",
		Price:          1.0,
		MarketCap:      5_000_000,
		Liquidity:      1_000_000,
		Holders:        25_000,
		Volume24h:      750_000,
		PriceChange24h: 12.5,
		CreatedAt:      time.Now().Add(-30 * 24 * time.Hour),
		FetchedAt:      time.Now(),
	}
}

// GenerateMockCandles builds a gently rising series around basePrice.
func GenerateMockCandles(basePrice float64, count int) []model.Candle {
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.002)
		candles[i] = model.Candle{
			Time:   time.Now().Add(-time.Duration(count-i) * 5 * time.Minute),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 100_000,
		}
	}
	return candles
}

// GenerateMockSwaps builds a swap history with the given buy:sell ratio.
func GenerateMockSwaps(count int, buySellRatio float64) []model.SwapRecord {
	swaps := make([]model.SwapRecord, count)
	buyEvery := int(buySellRatio) + 1
	for i := 0; i < count; i++ {
		side := model.SwapBuy
		if buyEvery > 0 && i%buyEvery == 0 {
			side = model.SwapSell
		}
		swaps[i] = model.SwapRecord{
			Side:         side,
			NativeAmount: 1.5,
			Timestamp:    time.Now().Add(-time.Duration(count-i) * time.Minute),
		}
	}
	return swaps
}
