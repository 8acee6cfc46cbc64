package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"TokenCouncil/internal/model"
)

// ScreenerProvider implements Provider against a DEX screener REST API.
// All requests pass through a circuit breaker so a flapping upstream trips
// open instead of hammering a throttled endpoint.
type ScreenerProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewScreenerProvider creates a provider with optional proxy support.
func NewScreenerProvider(baseURL, apiKey, proxyURL string) *ScreenerProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "screener",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[WARN] %s circuit breaker: %s -> %s", name, from, to)
		},
	})
	return &ScreenerProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		breaker: breaker,
	}
}

func (p *ScreenerProvider) Name() string { return "screener" }

// screenerToken is the expected JSON shape for a token snapshot.
type screenerToken struct {
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	PriceUSD       float64 `json:"price_usd"`
	MarketCap      float64 `json:"market_cap"`
	Liquidity      float64 `json:"liquidity"`
	Holders        int     `json:"holders"`
	Volume24h      float64 `json:"volume_24h"`
	PriceChange24h float64 `json:"price_change_24h"`
	CreatedAt      int64   `json:"created_at"`
}

func (t *screenerToken) toModel() *model.Token {
	return &model.Token{
		Address:        t.Address,
		Symbol:         t.Symbol,
		Name:           t.Name,
		Price:          t.PriceUSD,
		MarketCap:      t.MarketCap,
		Liquidity:      t.Liquidity,
		Holders:        t.Holders,
		Volume24h:      t.Volume24h,
		PriceChange24h: t.PriceChange24h,
		CreatedAt:      time.Unix(t.CreatedAt, 0),
		FetchedAt:      time.Now(),
	}
}

func (p *ScreenerProvider) FetchToken(ctx context.Context, address string) (*model.Token, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tokens/%s", p.BaseURL, address)
	var st screenerToken
	if err := p.getJSON(ctx, endpoint, &st); err != nil {
		return nil, fmt.Errorf("fetch token %s: %w", address, err)
	}
	return st.toModel(), nil
}

func (p *ScreenerProvider) FetchSwapHistory(ctx context.Context, address string, limit int) ([]model.SwapRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tokens/%s/swaps?limit=%d", p.BaseURL, address, limit)
	var raw []struct {
		Side      string  `json:"side"`
		Amount    float64 `json:"native_amount"`
		Timestamp int64   `json:"timestamp"`
	}
	if err := p.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch swaps %s: %w", address, err)
	}
	swaps := make([]model.SwapRecord, len(raw))
	for i, r := range raw {
		side := model.SwapBuy
		if r.Side == "sell" {
			side = model.SwapSell
		}
		swaps[i] = model.SwapRecord{
			Side:         side,
			NativeAmount: r.Amount,
			Timestamp:    time.Unix(r.Timestamp, 0),
		}
	}
	return swaps, nil
}

func (p *ScreenerProvider) FetchCandles(ctx context.Context, address string, limit int) ([]model.Candle, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tokens/%s/candles?limit=%d", p.BaseURL, address, limit)
	var raw []struct {
		Timestamp int64   `json:"timestamp"`
		Open      float64 `json:"open"`
		High      float64 `json:"high"`
		Low       float64 `json:"low"`
		Close     float64 `json:"close"`
		Volume    float64 `json:"volume"`
	}
	if err := p.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", address, err)
	}
	candles := make([]model.Candle, len(raw))
	for i, r := range raw {
		candles[i] = model.Candle{
			Time:   time.Unix(r.Timestamp, 0),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return candles, nil
}

func (p *ScreenerProvider) FetchTrending(ctx context.Context, limit int) ([]*model.Token, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tokens/trending?limit=%d", p.BaseURL, limit)
	var raw []screenerToken
	if err := p.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("fetch trending: %w", err)
	}
	tokens := make([]*model.Token, len(raw))
	for i := range raw {
		tokens[i] = raw[i].toModel()
	}
	return tokens, nil
}

func (p *ScreenerProvider) getJSON(ctx context.Context, endpoint string, out any) error {
	_, err := p.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if p.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.APIKey)
		}
		resp, err := p.Client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("status 429 (throttled)")
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	return err
}
