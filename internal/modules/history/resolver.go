package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ysncmn/borsapy/internal/domain"
)

// StoreResolver serves price resolution out of the bar store: the
// current price is the latest stored close, history is the stored daily
// series. Intraday intervals are not materialized from daily bars.
type StoreResolver struct {
	store *Store
}

// NewStoreResolver wraps the store as a PriceResolver.
func NewStoreResolver(store *Store) *StoreResolver {
	return &StoreResolver{store: store}
}

// CurrentPrice returns the close of the most recent stored bar.
func (r *StoreResolver) CurrentPrice(ctx context.Context, symbol string, class domain.AssetClass) (float64, error) {
	series, err := r.store.GetSeries(ctx, symbol, class, domain.Period1mo)
	if err != nil {
		return 0, err
	}
	if series.Empty() {
		return 0, &domain.ResolutionError{
			Symbol: symbol,
			Err:    fmt.Errorf("no stored bars"),
		}
	}
	return series.Last().Close, nil
}

// History returns the stored daily series over the period.
func (r *StoreResolver) History(ctx context.Context, symbol string, class domain.AssetClass, period domain.Period, interval domain.Interval) (domain.Series, error) {
	if interval != domain.Interval1d {
		return domain.Series{}, &domain.ConfigurationError{
			Param:  "interval",
			Reason: fmt.Sprintf("store holds daily bars only, got %s", interval),
		}
	}
	series, err := r.store.GetSeries(ctx, symbol, class, period)
	if err != nil {
		return domain.Series{}, err
	}
	if series.Empty() {
		return domain.Series{}, &domain.ResolutionError{
			Symbol: symbol,
			Err:    fmt.Errorf("no stored bars for period %s", period),
		}
	}
	return series, nil
}

// CachedResolver decorates a PriceResolver with a TTL cache for current
// prices and a write-through to the bar store for history, so repeated
// portfolio views within the TTL hit the upstream source once.
type CachedResolver struct {
	upstream domain.PriceResolver
	store    *Store
	ttl      time.Duration

	mu     sync.RWMutex
	prices map[string]cachedPrice
}

type cachedPrice struct {
	value   float64
	fetched time.Time
}

// NewCachedResolver wraps the upstream resolver. A nil store disables
// the history write-through.
func NewCachedResolver(upstream domain.PriceResolver, store *Store, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		upstream: upstream,
		store:    store,
		ttl:      ttl,
		prices:   make(map[string]cachedPrice),
	}
}

func (r *CachedResolver) CurrentPrice(ctx context.Context, symbol string, class domain.AssetClass) (float64, error) {
	key := symbol + "|" + string(class)

	r.mu.RLock()
	entry, ok := r.prices[key]
	r.mu.RUnlock()
	if ok && time.Since(entry.fetched) < r.ttl {
		return entry.value, nil
	}

	price, err := r.upstream.CurrentPrice(ctx, symbol, class)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.prices[key] = cachedPrice{value: price, fetched: time.Now()}
	r.mu.Unlock()
	return price, nil
}

func (r *CachedResolver) History(ctx context.Context, symbol string, class domain.AssetClass, period domain.Period, interval domain.Interval) (domain.Series, error) {
	series, err := r.upstream.History(ctx, symbol, class, period, interval)
	if err != nil {
		return domain.Series{}, err
	}
	if r.store != nil && interval == domain.Interval1d {
		if err := r.store.SaveSeries(ctx, series); err != nil {
			return domain.Series{}, fmt.Errorf("failed to persist history for %s: %w", symbol, err)
		}
	}
	return series, nil
}
