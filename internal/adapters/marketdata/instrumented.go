package marketdata

import (
	"context"
	"time"

	"advisor/internal/metrics"
)

// Compile-time check
var _ Client = (*InstrumentedClient)(nil)

// InstrumentedClient counts every upstream call per endpoint and
// status. It wraps the raw feed directly so cache hits and limiter
// rejections higher in the stack are not counted as upstream traffic.
type InstrumentedClient struct {
	inner Client
}

// NewInstrumentedClient wraps a client with call counters.
func NewInstrumentedClient(inner Client) *InstrumentedClient {
	return &InstrumentedClient{inner: inner}
}

func (c *InstrumentedClient) record(endpoint string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.MarketDataCalls.WithLabelValues(c.inner.Name(), endpoint, status).Inc()
}

func (c *InstrumentedClient) Name() string { return c.inner.Name() }

func (c *InstrumentedClient) Connect(ctx context.Context) error { return c.inner.Connect(ctx) }

func (c *InstrumentedClient) Close() error { return c.inner.Close() }

func (c *InstrumentedClient) GetQuote(ctx context.Context, code string) (*Quote, error) {
	quote, err := c.inner.GetQuote(ctx, code)
	c.record("quote", err)
	return quote, err
}

func (c *InstrumentedClient) GetKline(ctx context.Context, code string, start, end time.Time) ([]Bar, error) {
	bars, err := c.inner.GetKline(ctx, code, start, end)
	c.record("kline", err)
	return bars, err
}

func (c *InstrumentedClient) GetValuation(ctx context.Context, code string, start, end time.Time) ([]Valuation, error) {
	vals, err := c.inner.GetValuation(ctx, code, start, end)
	c.record("valuation", err)
	return vals, err
}

func (c *InstrumentedClient) GetReport(ctx context.Context, code string, typ ReportType, year, quarter int) (*Report, error) {
	report, err := c.inner.GetReport(ctx, code, typ, year, quarter)
	c.record("report", err)
	return report, err
}

func (c *InstrumentedClient) GetDividends(ctx context.Context, code string, year int) ([]Dividend, error) {
	divs, err := c.inner.GetDividends(ctx, code, year)
	c.record("dividend", err)
	return divs, err
}

func (c *InstrumentedClient) GetIndustry(ctx context.Context, code string) (*Industry, error) {
	industry, err := c.inner.GetIndustry(ctx, code)
	c.record("industry", err)
	return industry, err
}

func (c *InstrumentedClient) GetIndexConstituents(ctx context.Context, index string, limit int) ([]IndexConstituent, error) {
	members, err := c.inner.GetIndexConstituents(ctx, index, limit)
	c.record("index_constituents", err)
	return members, err
}

func (c *InstrumentedClient) GetNews(ctx context.Context, query string, limit int) ([]NewsItem, error) {
	items, err := c.inner.GetNews(ctx, query, limit)
	c.record("news", err)
	return items, err
}

func (c *InstrumentedClient) ResolveName(ctx context.Context, code string) (string, error) {
	name, err := c.inner.ResolveName(ctx, code)
	c.record("resolve_name", err)
	return name, err
}
