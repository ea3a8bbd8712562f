package marketdata

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/metrics"
)

func TestInstrumentedClient_CountsCallsPerEndpoint(t *testing.T) {
	client := NewInstrumentedClient(NewReferenceClient())
	ctx := context.Background()

	success := metrics.MarketDataCalls.WithLabelValues("reference", "quote", "success")
	failure := metrics.MarketDataCalls.WithLabelValues("reference", "quote", "error")
	successBefore := testutil.ToFloat64(success)
	failureBefore := testutil.ToFloat64(failure)

	_, err := client.GetQuote(ctx, "sh.600519")
	require.NoError(t, err)
	_, err = client.GetQuote(ctx, "not-a-code")
	require.Error(t, err)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(success))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(failure))
}

func TestDecoratedStack_ConnectReachesFeed(t *testing.T) {
	feed := NewReferenceClient()
	var client Client = NewRateLimitedClient(NewInstrumentedClient(feed), 60)

	require.NoError(t, client.Connect(context.Background()))

	feed.mu.Lock()
	defer feed.mu.Unlock()
	assert.True(t, feed.connected)
}

func TestInstrumentedClient_CountsIndustryCalls(t *testing.T) {
	client := NewInstrumentedClient(NewReferenceClient())

	counter := metrics.MarketDataCalls.WithLabelValues("reference", "industry", "success")
	before := testutil.ToFloat64(counter)

	_, err := client.GetIndustry(context.Background(), "sh.600519")
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
