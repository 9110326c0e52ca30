package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysncmn/borsapy/internal/domain"
)

func TestStoreResolverCurrentPrice(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := storedSeries("THYAO", 10, 5)
	require.NoError(t, store.SaveSeries(ctx, in))

	resolver := NewStoreResolver(store)
	price, err := resolver.CurrentPrice(ctx, "THYAO", domain.AssetStock)
	require.NoError(t, err)
	assert.Equal(t, in.Bars[4].Close, price)
}

func TestStoreResolverUnknownSymbol(t *testing.T) {
	resolver := NewStoreResolver(newTestStore(t))

	_, err := resolver.CurrentPrice(context.Background(), "GARAN", domain.AssetStock)
	require.Error(t, err)
	var resErr *domain.ResolutionError
	assert.ErrorAs(t, err, &resErr)
}

func TestStoreResolverHistoryDailyOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveSeries(ctx, storedSeries("THYAO", 10, 5)))

	resolver := NewStoreResolver(store)
	series, err := resolver.History(ctx, "THYAO", domain.AssetStock, domain.PeriodMax, domain.Interval1d)
	require.NoError(t, err)
	assert.Equal(t, 5, series.Len())

	_, err = resolver.History(ctx, "THYAO", domain.AssetStock, domain.PeriodMax, domain.Interval1h)
	require.Error(t, err)
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

// countingResolver counts upstream hits.
type countingResolver struct {
	price float64
	hits  int
	fail  bool
}

func (c *countingResolver) CurrentPrice(_ context.Context, _ string, _ domain.AssetClass) (float64, error) {
	c.hits++
	if c.fail {
		return 0, fmt.Errorf("upstream down")
	}
	return c.price, nil
}

func (c *countingResolver) History(_ context.Context, symbol string, class domain.AssetClass, _ domain.Period, interval domain.Interval) (domain.Series, error) {
	c.hits++
	if c.fail {
		return domain.Series{}, fmt.Errorf("upstream down")
	}
	return storedSeries(symbol, 10, 5), nil
}

func TestCachedResolverServesFromCache(t *testing.T) {
	upstream := &countingResolver{price: 300}
	cached := NewCachedResolver(upstream, nil, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		price, err := cached.CurrentPrice(ctx, "THYAO", domain.AssetStock)
		require.NoError(t, err)
		assert.Equal(t, 300.0, price)
	}
	assert.Equal(t, 1, upstream.hits, "repeated lookups within the TTL hit upstream once")
}

func TestCachedResolverExpiry(t *testing.T) {
	upstream := &countingResolver{price: 300}
	cached := NewCachedResolver(upstream, nil, time.Nanosecond)
	ctx := context.Background()

	_, err := cached.CurrentPrice(ctx, "THYAO", domain.AssetStock)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = cached.CurrentPrice(ctx, "THYAO", domain.AssetStock)
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.hits)
}

func TestCachedResolverDoesNotCacheFailures(t *testing.T) {
	upstream := &countingResolver{fail: true}
	cached := NewCachedResolver(upstream, nil, time.Minute)
	ctx := context.Background()

	_, err := cached.CurrentPrice(ctx, "THYAO", domain.AssetStock)
	require.Error(t, err)

	upstream.fail = false
	upstream.price = 42
	price, err := cached.CurrentPrice(ctx, "THYAO", domain.AssetStock)
	require.NoError(t, err)
	assert.Equal(t, 42.0, price)
}

func TestCachedResolverWritesHistoryThrough(t *testing.T) {
	store := newTestStore(t)
	upstream := &countingResolver{price: 300}
	cached := NewCachedResolver(upstream, store, time.Minute)
	ctx := context.Background()

	_, err := cached.History(ctx, "THYAO", domain.AssetStock, domain.Period1mo, domain.Interval1d)
	require.NoError(t, err)

	stored, err := store.GetSeries(ctx, "THYAO", domain.AssetStock, domain.PeriodMax)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Len(), "fetched history must land in the bar store")
}
