package marketdata

import (
	"context"
	"time"
)

// Client defines the unified contract each market data adapter must satisfy.
// Sessionful feeds (baostock-style login/logout protocols) implement
// Connect/Close; stateless adapters may make them no-ops. Every data call
// must be safe for concurrent use.
type Client interface {
	Name() string

	// Session
	Connect(ctx context.Context) error
	Close() error

	// Market data
	GetQuote(ctx context.Context, code string) (*Quote, error)
	GetKline(ctx context.Context, code string, start, end time.Time) ([]Bar, error)
	GetValuation(ctx context.Context, code string, start, end time.Time) ([]Valuation, error)

	// Fundamentals
	GetReport(ctx context.Context, code string, typ ReportType, year, quarter int) (*Report, error)
	GetDividends(ctx context.Context, code string, year int) ([]Dividend, error)

	// Classification
	GetIndustry(ctx context.Context, code string) (*Industry, error)
	GetIndexConstituents(ctx context.Context, index string, limit int) ([]IndexConstituent, error)

	// News
	GetNews(ctx context.Context, query string, limit int) ([]NewsItem, error)

	// Reference
	ResolveName(ctx context.Context, code string) (string, error)
}
