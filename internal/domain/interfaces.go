package domain

import "context"

// PriceResolver is the boundary to the connector layer. Implementations
// may be network-backed; calls are the only blocking points in the core.
// Retry, backoff, caching and timeout policy belong to the implementation,
// which reports failures as *ResolutionError.
type PriceResolver interface {
	// CurrentPrice returns the latest price for a symbol.
	CurrentPrice(ctx context.Context, symbol string, class AssetClass) (float64, error)

	// History returns the canonical series for a symbol over a lookback
	// window at the requested granularity. The resolver supplies the
	// requested granularity directly; the core never resamples.
	History(ctx context.Context, symbol string, class AssetClass, period Period, interval Interval) (Series, error)
}

// RateProvider supplies the risk-free rate used by risk analytics, as an
// annual decimal (0.30 means 30%). Typically backed by a government bond
// yield source; the analytics core never hardcodes it.
type RateProvider interface {
	CurrentRate(ctx context.Context) (float64, error)
}
