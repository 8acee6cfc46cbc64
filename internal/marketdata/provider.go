package marketdata

import (
	"context"
	"errors"

	"TokenCouncil/internal/model"
)

// ErrUnavailable indicates upstream market data could not be obtained.
// Callers substitute documented defaults and continue; the error is never
// cached.
var ErrUnavailable = errors.New("market data unavailable")

// Provider fetches token market facts from an upstream data source.
type Provider interface {
	// FetchToken returns a fresh market snapshot for the token.
	FetchToken(ctx context.Context, address string) (*model.Token, error)
	// FetchSwapHistory returns up to limit recent swaps, newest last.
	FetchSwapHistory(ctx context.Context, address string, limit int) ([]model.SwapRecord, error)
	// FetchCandles returns up to limit OHLCV bars, oldest first.
	FetchCandles(ctx context.Context, address string, limit int) ([]model.Candle, error)
	// FetchTrending returns candidate tokens for the passive scanner.
	FetchTrending(ctx context.Context, limit int) ([]*model.Token, error)
	Name() string
}
