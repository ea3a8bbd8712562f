package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceClient_QuoteDeterministic(t *testing.T) {
	client := NewReferenceClient()
	defer func() { _ = client.Close() }()
	ctx := context.Background()

	first, err := client.GetQuote(ctx, "sh.600519")
	require.NoError(t, err)
	second, err := client.GetQuote(ctx, "sh.600519")
	require.NoError(t, err)

	assert.Equal(t, first.Price, second.Price)
	assert.Equal(t, "sh.600519", first.Code)
	assert.Greater(t, first.Price, 0.0)
}

func TestReferenceClient_QuoteNormalizesCode(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	quote, err := client.GetQuote(ctx, "600519")
	require.NoError(t, err)
	assert.Equal(t, "sh.600519", quote.Code)
}

func TestReferenceClient_QuoteRejectsInvalidCode(t *testing.T) {
	client := NewReferenceClient()

	_, err := client.GetQuote(context.Background(), "not-a-code")
	assert.Error(t, err)
}

func TestReferenceClient_KlineSkipsWeekends(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)  // Friday

	bars, err := client.GetKline(ctx, "sh.600519", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 10)

	for _, bar := range bars {
		assert.NotEqual(t, time.Saturday, bar.Date.Weekday())
		assert.NotEqual(t, time.Sunday, bar.Date.Weekday())
		assert.GreaterOrEqual(t, bar.High, bar.Low)
	}
}

func TestReferenceClient_KlineRejectsInvertedRange(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	end := time.Now()
	start := end.AddDate(0, 0, 7)

	_, err := client.GetKline(ctx, "sh.600519", start, end)
	assert.Error(t, err)
}

func TestReferenceClient_ReportFamilies(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	for _, typ := range AllReportTypes {
		report, err := client.GetReport(ctx, "sh.600519", typ, 2025, 4)
		require.NoError(t, err, typ)
		assert.Equal(t, typ, report.Type)
		assert.NotEmpty(t, report.Fields)
	}
}

func TestReferenceClient_ReportRejectsBadQuarter(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	_, err := client.GetReport(ctx, "sh.600519", ReportProfit, 2025, 5)
	assert.Error(t, err)

	_, err = client.GetReport(ctx, "sh.600519", ReportType("unknown"), 2025, 1)
	assert.Error(t, err)
}

func TestReferenceClient_IndustryCuratedAndFallback(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	industry, err := client.GetIndustry(ctx, "sh.600519")
	require.NoError(t, err)
	assert.Equal(t, "食品饮料", industry.Industry)
	assert.Equal(t, "贵州茅台", industry.Name)

	// Uncurated codes still classify, deterministically.
	first, err := client.GetIndustry(ctx, "sz.001234")
	require.NoError(t, err)
	second, err := client.GetIndustry(ctx, "sz.001234")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Industry)
	assert.Equal(t, first.Industry, second.Industry)
}

func TestReferenceClient_DividendsDeterministic(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	first, err := client.GetDividends(ctx, "sh.600519", 2024)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Greater(t, first[0].CashPerShare, 0.0)
	assert.Equal(t, 2024, first[0].Year)

	second, err := client.GetDividends(ctx, "sh.600519", 2024)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = client.GetDividends(ctx, "sh.600519", 1980)
	assert.Error(t, err)
}

func TestReferenceClient_IndexConstituents(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	members, err := client.GetIndexConstituents(ctx, "hs300", 10)
	require.NoError(t, err)
	require.Len(t, members, 10)

	// Sorted by code, no duplicates.
	for i := 1; i < len(members); i++ {
		assert.Less(t, members[i-1].Code, members[i].Code)
	}

	_, err = client.GetIndexConstituents(ctx, "sse50", 10)
	assert.Error(t, err)
}

func TestReferenceClient_ResolveName(t *testing.T) {
	client := NewReferenceClient()
	ctx := context.Background()

	name, err := client.ResolveName(ctx, "sz.000858")
	require.NoError(t, err)
	assert.Equal(t, "五粮液", name)

	_, err = client.ResolveName(ctx, "sh.609999")
	assert.Error(t, err)
}
