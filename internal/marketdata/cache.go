package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"TokenCouncil/internal/model"
)

// Default TTLs per cache partition and the shared upstream call spacing.
const (
	DefaultTokenTTL   = 60 * time.Second
	DefaultSwapTTL    = 2 * time.Minute
	DefaultCandleTTL  = 2 * time.Minute
	DefaultMetaTTL    = 5 * time.Minute
	DefaultCallSpacing = 750 * time.Millisecond
)

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

// Cache decorates a Provider with per-partition TTL caching, a single-lane
// rate limiter shared across all partitions, and request coalescing so that
// concurrent callers for the same key trigger exactly one upstream call.
// Failed fetches are returned, never cached.
type Cache struct {
	upstream Provider
	limiter  *rate.Limiter
	group    singleflight.Group

	mu      sync.RWMutex
	entries map[string]cacheEntry

	tokenTTL  time.Duration
	swapTTL   time.Duration
	candleTTL time.Duration
	trendTTL  time.Duration
}

// NewCache wraps the upstream provider with the recommended TTLs and one
// upstream call per spacing interval.
func NewCache(upstream Provider, spacing time.Duration) *Cache {
	if spacing <= 0 {
		spacing = DefaultCallSpacing
	}
	return &Cache{
		upstream:  upstream,
		limiter:   rate.NewLimiter(rate.Every(spacing), 1),
		entries:   make(map[string]cacheEntry),
		tokenTTL:  DefaultTokenTTL,
		swapTTL:   DefaultSwapTTL,
		candleTTL: DefaultCandleTTL,
		trendTTL:  DefaultMetaTTL,
	}
}

func (c *Cache) Name() string { return c.upstream.Name() + "+cache" }

func (c *Cache) FetchToken(ctx context.Context, address string) (*model.Token, error) {
	v, err := c.get(ctx, "token:"+address, c.tokenTTL, func(ctx context.Context) (any, error) {
		return c.upstream.FetchToken(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Token), nil
}

func (c *Cache) FetchSwapHistory(ctx context.Context, address string, limit int) ([]model.SwapRecord, error) {
	key := fmt.Sprintf("swaps:%s:%d", address, limit)
	v, err := c.get(ctx, key, c.swapTTL, func(ctx context.Context) (any, error) {
		return c.upstream.FetchSwapHistory(ctx, address, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.SwapRecord), nil
}

func (c *Cache) FetchCandles(ctx context.Context, address string, limit int) ([]model.Candle, error) {
	key := fmt.Sprintf("candles:%s:%d", address, limit)
	v, err := c.get(ctx, key, c.candleTTL, func(ctx context.Context) (any, error) {
		return c.upstream.FetchCandles(ctx, address, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Candle), nil
}

func (c *Cache) FetchTrending(ctx context.Context, limit int) ([]*model.Token, error) {
	key := fmt.Sprintf("trending:%d", limit)
	v, err := c.get(ctx, key, c.trendTTL, func(ctx context.Context) (any, error) {
		return c.upstream.FetchTrending(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*model.Token), nil
}

// get serves the key from cache when fresh; otherwise it coalesces
// concurrent callers into one rate-limited upstream fetch.
func (c *Cache) get(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := c.lookup(key, ttl); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: another caller may have filled the entry while we
		// waited on the flight group.
		if v, ok := c.lookup(key, ttl); ok {
			return v, nil
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.store(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Cache) lookup(key string, ttl time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.fetchedAt) > ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, v any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: v, fetchedAt: time.Now()}
	c.mu.Unlock()
}
