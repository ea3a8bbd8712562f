package marketdata

import (
	"context"
	"fmt"
	"time"

	redisadapter "advisor/internal/adapters/redis"
)

// Compile-time check
var _ Client = (*CachedClient)(nil)

// CachedClient layers a Redis read-through cache over another client.
// Quotes take a short TTL, historical and fundamental data a long one.
// Cache failures are logged at the adapter level and fall through to
// the upstream, they never fail a request.
type CachedClient struct {
	inner    Client
	cache    *redisadapter.Client
	quoteTTL time.Duration
	dataTTL  time.Duration
}

// NewCachedClient wraps a client with caching.
func NewCachedClient(inner Client, cache *redisadapter.Client, quoteTTL, dataTTL time.Duration) *CachedClient {
	if quoteTTL <= 0 {
		quoteTTL = time.Minute
	}
	if dataTTL <= 0 {
		dataTTL = time.Hour
	}
	return &CachedClient{
		inner:    inner,
		cache:    cache,
		quoteTTL: quoteTTL,
		dataTTL:  dataTTL,
	}
}

func (c *CachedClient) Name() string { return c.inner.Name() }

func (c *CachedClient) Connect(ctx context.Context) error { return c.inner.Connect(ctx) }

func (c *CachedClient) Close() error { return c.inner.Close() }

func (c *CachedClient) GetQuote(ctx context.Context, code string) (*Quote, error) {
	key := fmt.Sprintf("md:quote:%s", code)

	var cached Quote
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	quote, err := c.inner.GetQuote(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, quote, c.quoteTTL)
	return quote, nil
}

func (c *CachedClient) GetKline(ctx context.Context, code string, start, end time.Time) ([]Bar, error) {
	key := fmt.Sprintf("md:kline:%s:%s:%s", code, start.Format("20060102"), end.Format("20060102"))

	var cached []Bar
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	bars, err := c.inner.GetKline(ctx, code, start, end)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, bars, c.dataTTL)
	return bars, nil
}

func (c *CachedClient) GetValuation(ctx context.Context, code string, start, end time.Time) ([]Valuation, error) {
	key := fmt.Sprintf("md:valuation:%s:%s:%s", code, start.Format("20060102"), end.Format("20060102"))

	var cached []Valuation
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	vals, err := c.inner.GetValuation(ctx, code, start, end)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, vals, c.dataTTL)
	return vals, nil
}

func (c *CachedClient) GetReport(ctx context.Context, code string, typ ReportType, year, quarter int) (*Report, error) {
	key := fmt.Sprintf("md:report:%s:%s:%d:%d", code, typ, year, quarter)

	var cached Report
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	report, err := c.inner.GetReport(ctx, code, typ, year, quarter)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, report, c.dataTTL)
	return report, nil
}

func (c *CachedClient) GetDividends(ctx context.Context, code string, year int) ([]Dividend, error) {
	key := fmt.Sprintf("md:dividend:%s:%d", code, year)

	var cached []Dividend
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	divs, err := c.inner.GetDividends(ctx, code, year)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, divs, c.dataTTL)
	return divs, nil
}

func (c *CachedClient) GetIndustry(ctx context.Context, code string) (*Industry, error) {
	key := fmt.Sprintf("md:industry:%s", code)

	var cached Industry
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	industry, err := c.inner.GetIndustry(ctx, code)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, industry, c.dataTTL)
	return industry, nil
}

func (c *CachedClient) GetIndexConstituents(ctx context.Context, index string, limit int) ([]IndexConstituent, error) {
	key := fmt.Sprintf("md:index:%s:%d", index, limit)

	var cached []IndexConstituent
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	members, err := c.inner.GetIndexConstituents(ctx, index, limit)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, members, c.dataTTL)
	return members, nil
}

func (c *CachedClient) GetNews(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	// News is deliberately uncached, freshness matters more than load.
	return c.inner.GetNews(ctx, query, limit)
}

func (c *CachedClient) ResolveName(ctx context.Context, code string) (string, error) {
	return c.inner.ResolveName(ctx, code)
}
