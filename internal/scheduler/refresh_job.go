package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
	"github.com/ysncmn/borsapy/internal/modules/history"
	"github.com/ysncmn/borsapy/internal/modules/portfolio"
)

// RefreshJob refreshes the tracked symbols' daily bars through the
// resolver, which writes them through into the bar store. One symbol
// failing does not stop the rest.
type RefreshJob struct {
	resolver domain.PriceResolver
	store    *history.Store
	symbols  []string
	period   domain.Period
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRefreshJob creates a refresh job for the given symbols.
func NewRefreshJob(resolver domain.PriceResolver, store *history.Store, symbols []string, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		resolver: resolver,
		store:    store,
		symbols:  symbols,
		period:   domain.Period1mo,
		timeout:  5 * time.Minute,
		log:      log.With().Str("job", "refresh").Logger(),
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string { return "bar-refresh" }

// Run implements Job.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	var refreshed, failed int
	for _, symbol := range j.symbols {
		class, err := portfolio.Classify(symbol)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping unclassifiable symbol")
			failed++
			continue
		}

		series, err := j.resolver.History(ctx, symbol, class, j.period, domain.Interval1d)
		if err != nil {
			j.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to refresh symbol")
			failed++
			continue
		}
		if err := j.store.SaveSeries(ctx, series); err != nil {
			j.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to persist refreshed bars")
			failed++
			continue
		}
		refreshed++
	}

	j.log.Info().Int("refreshed", refreshed).Int("failed", failed).Msg("Refresh cycle complete")
	return nil
}
