package model

import "time"

// Token is an immutable market snapshot of one candidate token.
// Re-fetched facts produce a new snapshot; a Token is never mutated in place.
type Token struct {
	Address        string
	Symbol         string
	Name           string
	Price          float64
	MarketCap      float64
	Liquidity      float64
	Holders        int
	Volume24h      float64
	PriceChange24h float64 // percent
	CreatedAt      time.Time
	FetchedAt      time.Time
}

// LiquidityRatio returns liquidity as a fraction of market cap (0 when unknown).
func (t *Token) LiquidityRatio() float64 {
	if t.MarketCap <= 0 {
		return 0
	}
	return t.Liquidity / t.MarketCap
}

// AgeHours returns the token age in hours at the given instant.
func (t *Token) AgeHours(now time.Time) float64 {
	if t.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(t.CreatedAt).Hours()
}

// SwapSide marks the direction of a historical swap.
type SwapSide string

const (
	SwapBuy  SwapSide = "buy"
	SwapSell SwapSide = "sell"
)

// SwapRecord is a single historical swap against the token's pool.
type SwapRecord struct {
	Side         SwapSide
	NativeAmount float64
	Timestamp    time.Time
}

// Candle represents a single OHLCV bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
