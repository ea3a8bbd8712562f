package marketdata

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"advisor/pkg/errors"
)

// Compile-time check
var _ Client = (*RateLimitedClient)(nil)

// RateLimitedClient throttles every upstream call of the wrapped client.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps a client with a per-minute request budget.
// Burst is 10% of the per-minute limit, minimum 1.
func NewRateLimitedClient(inner Client, requestsPerMinute int) *RateLimitedClient {
	rps := float64(requestsPerMinute) / 60.0

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *RateLimitedClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(errors.ErrRateLimitExceeded, "market data limiter: %v", err)
	}
	return nil
}

func (c *RateLimitedClient) Name() string { return c.inner.Name() }

func (c *RateLimitedClient) Connect(ctx context.Context) error { return c.inner.Connect(ctx) }

func (c *RateLimitedClient) Close() error { return c.inner.Close() }

func (c *RateLimitedClient) GetQuote(ctx context.Context, code string) (*Quote, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetQuote(ctx, code)
}

func (c *RateLimitedClient) GetKline(ctx context.Context, code string, start, end time.Time) ([]Bar, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetKline(ctx, code, start, end)
}

func (c *RateLimitedClient) GetValuation(ctx context.Context, code string, start, end time.Time) ([]Valuation, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetValuation(ctx, code, start, end)
}

func (c *RateLimitedClient) GetReport(ctx context.Context, code string, typ ReportType, year, quarter int) (*Report, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetReport(ctx, code, typ, year, quarter)
}

func (c *RateLimitedClient) GetDividends(ctx context.Context, code string, year int) ([]Dividend, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetDividends(ctx, code, year)
}

func (c *RateLimitedClient) GetIndustry(ctx context.Context, code string) (*Industry, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetIndustry(ctx, code)
}

func (c *RateLimitedClient) GetIndexConstituents(ctx context.Context, index string, limit int) ([]IndexConstituent, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetIndexConstituents(ctx, index, limit)
}

func (c *RateLimitedClient) GetNews(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.GetNews(ctx, query, limit)
}

func (c *RateLimitedClient) ResolveName(ctx context.Context, code string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.inner.ResolveName(ctx, code)
}
