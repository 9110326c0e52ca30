package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
	"github.com/ysncmn/borsapy/internal/modules/analytics"
	"github.com/ysncmn/borsapy/pkg/formulas"
)

// Service owns the position mapping for one portfolio and derives every
// consolidated view from it. Position CRUD is driven by one logical
// caller at a time; the derived views read an immutable snapshot of the
// positions, so price resolution can be driven concurrently from outside
// without touching shared state.
type Service struct {
	positions map[string]Position
	benchmark string
	resolver  domain.PriceResolver
	rates     domain.RateProvider
	log       zerolog.Logger
}

// AddOptions carries the optional arguments of Add.
type AddOptions struct {
	// CostPerShare records the cost basis. When nil, the cost is taken
	// from the current market price at add time.
	CostPerShare *float64
	// AssetClass overrides symbol-shape classification. Required for
	// funds, whose codes carry no reliable pattern.
	AssetClass *domain.AssetClass
}

// RiskOptions tunes a risk-metrics query.
type RiskOptions struct {
	// RiskFreeRate overrides the injected rate provider (annual decimal).
	RiskFreeRate *float64
	// PeriodsPerYear is the annualization base; 252 when zero.
	PeriodsPerYear int
}

// NewService creates an empty portfolio with the default benchmark.
func NewService(resolver domain.PriceResolver, rates domain.RateProvider, log zerolog.Logger) *Service {
	return &Service{
		positions: make(map[string]Position),
		benchmark: DefaultBenchmark,
		resolver:  resolver,
		rates:     rates,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// normalizeSymbol uppercases symbols except the metal quotes, which the
// FX source addresses in their lowercase form.
func normalizeSymbol(symbol string) string {
	if _, ok := fxMetals[symbol]; ok {
		return symbol
	}
	return strings.ToUpper(symbol)
}

// Add inserts a position or, for a symbol already held, updates its
// shares and cost instead of duplicating. Non-positive share counts are
// rejected. The asset class is inferred from the symbol shape unless
// supplied; ambiguous shapes fail with a ClassificationError.
func (s *Service) Add(ctx context.Context, symbol string, shares float64, opts AddOptions) error {
	if shares <= 0 {
		return &domain.ConfigurationError{
			Param:  "shares",
			Reason: fmt.Sprintf("must be positive, got %.4f", shares),
		}
	}

	symbol = normalizeSymbol(symbol)

	var class domain.AssetClass
	if opts.AssetClass != nil {
		class = *opts.AssetClass
	} else {
		var err error
		if class, err = Classify(symbol); err != nil {
			return err
		}
	}

	cost := opts.CostPerShare
	if cost == nil {
		price, err := s.resolver.CurrentPrice(ctx, symbol, class)
		if err != nil {
			return &domain.ResolutionError{Symbol: symbol, Err: err}
		}
		cost = &price
	}

	s.positions[symbol] = Position{
		Symbol:       symbol,
		AssetClass:   class,
		Shares:       shares,
		CostPerShare: cost,
	}

	s.log.Debug().
		Str("symbol", symbol).
		Str("asset_class", string(class)).
		Float64("shares", shares).
		Msg("Added position")
	return nil
}

// Update modifies an existing position in place. Nil arguments keep the
// current values.
func (s *Service) Update(symbol string, shares *float64, costPerShare *float64) error {
	symbol = normalizeSymbol(symbol)
	pos, ok := s.positions[symbol]
	if !ok {
		return fmt.Errorf("symbol %s not in portfolio", symbol)
	}
	if shares != nil {
		if *shares <= 0 {
			return &domain.ConfigurationError{
				Param:  "shares",
				Reason: fmt.Sprintf("must be positive, got %.4f", *shares),
			}
		}
		pos.Shares = *shares
	}
	if costPerShare != nil {
		pos.CostPerShare = costPerShare
	}
	s.positions[symbol] = pos
	return nil
}

// Remove deletes a position. Removing an absent symbol is a no-op.
func (s *Service) Remove(symbol string) {
	delete(s.positions, normalizeSymbol(symbol))
}

// Clear removes all positions.
func (s *Service) Clear() {
	s.positions = make(map[string]Position)
}

// SetBenchmark sets the index symbol used for beta/alpha.
func (s *Service) SetBenchmark(index string) {
	s.benchmark = strings.ToUpper(index)
}

// Benchmark returns the current benchmark symbol.
func (s *Service) Benchmark() string { return s.benchmark }

// Len returns the number of positions.
func (s *Service) Len() int { return len(s.positions) }

// Symbols returns the held symbols in sorted order.
func (s *Service) Symbols() []string {
	out := make([]string, 0, len(s.positions))
	for sym := range s.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// snapshot returns the positions sorted by symbol. Derived views operate
// on this copy so concurrent resolution never reads the live map.
func (s *Service) snapshot() []Position {
	out := make([]Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Holdings resolves every position's current price and derives the
// consolidated view. Resolver failures degrade the affected row to an
// unresolved state and surface a warning; they never abort the view.
// Weights are taken over the resolved value and sum to 1 when any
// position resolved.
func (s *Service) Holdings(ctx context.Context) HoldingsView {
	positions := s.snapshot()
	prices := make([]*float64, len(positions))
	errs := make([]error, len(positions))

	var wg sync.WaitGroup
	for i, pos := range positions {
		wg.Add(1)
		go func(i int, pos Position) {
			defer wg.Done()
			price, err := s.resolver.CurrentPrice(ctx, pos.Symbol, pos.AssetClass)
			if err != nil {
				errs[i] = err
				return
			}
			prices[i] = &price
		}(i, pos)
	}
	wg.Wait()

	view := HoldingsView{Rows: make([]Holding, len(positions))}
	for i, pos := range positions {
		row := Holding{
			Symbol:       pos.Symbol,
			AssetClass:   pos.AssetClass,
			Shares:       pos.Shares,
			CostPerShare: pos.CostPerShare,
		}
		if prices[i] == nil {
			s.log.Warn().Str("symbol", pos.Symbol).Err(errs[i]).Msg("Price resolution failed, degrading position")
			view.Warnings = append(view.Warnings, (&domain.ResolutionError{Symbol: pos.Symbol, Err: errs[i]}).Error())
			view.Rows[i] = row
			continue
		}

		row.Resolved = true
		row.CurrentPrice = prices[i]
		value := pos.Shares * *prices[i]
		row.Value = &value
		view.TotalValue += value

		if pos.CostPerShare != nil {
			costBasis := pos.Shares * *pos.CostPerShare
			pnl := value - costBasis
			row.PnL = &pnl
			view.TotalCost += costBasis
			view.TotalPnL += pnl
			if costBasis != 0 {
				pct := pnl / costBasis
				row.PnLPct = &pct
			}
		}
		view.Rows[i] = row
	}

	if view.TotalValue > 0 {
		for i := range view.Rows {
			if view.Rows[i].Value != nil {
				w := *view.Rows[i].Value / view.TotalValue
				view.Rows[i].Weight = &w
			}
		}
	}
	return view
}

// Value returns the total resolved portfolio value.
func (s *Service) Value(ctx context.Context) float64 {
	return s.Holdings(ctx).TotalValue
}

// Cost returns the total cost basis of the resolved positions.
func (s *Service) Cost(ctx context.Context) float64 {
	return s.Holdings(ctx).TotalCost
}

// PnL returns the total unrealized profit and loss.
func (s *Service) PnL(ctx context.Context) float64 {
	return s.Holdings(ctx).TotalPnL
}

// History aggregates the positions' historical close series into one
// portfolio value series over the period, inner-joined on the dates
// common to every resolvable position, with a daily-return column.
//
// Share counts are treated as constant over the lookback window; past
// trades are not reconstructed. This is a documented limitation.
func (s *Service) History(ctx context.Context, period domain.Period) ([]HistoryPoint, error) {
	positions := s.snapshot()
	if len(positions) == 0 {
		return nil, nil
	}

	type positionSeries struct {
		pos    Position
		series domain.Series
	}
	resolved := make([]positionSeries, 0, len(positions))
	for _, pos := range positions {
		hist, err := s.resolver.History(ctx, pos.Symbol, pos.AssetClass, period, domain.Interval1d)
		if err != nil || hist.Empty() {
			s.log.Warn().Str("symbol", pos.Symbol).Err(err).Msg("History resolution failed, excluding position")
			continue
		}
		resolved = append(resolved, positionSeries{pos: pos, series: hist})
	}
	if len(resolved) == 0 {
		return nil, nil
	}

	// Inner join on calendar date across all resolved series.
	counts := make(map[string]int)
	valueByDate := make(map[string]float64)
	for _, ps := range resolved {
		for _, bar := range ps.series.Bars {
			key := bar.Time.UTC().Format("2006-01-02")
			counts[key]++
			valueByDate[key] += ps.pos.Shares * bar.Close
		}
	}

	var dates []string
	for key, n := range counts {
		if n == len(resolved) {
			dates = append(dates, key)
		}
	}
	sort.Strings(dates)

	out := make([]HistoryPoint, len(dates))
	for i, key := range dates {
		date, _ := parseDate(key)
		out[i] = HistoryPoint{Date: date, Value: valueByDate[key], DailyReturn: math.NaN()}
		if i > 0 && out[i-1].Value != 0 {
			out[i].DailyReturn = out[i].Value/out[i-1].Value - 1
		}
	}
	return out, nil
}

// RiskMetrics computes the portfolio's risk record over the period,
// using the benchmark's index history for beta/alpha when a benchmark is
// set. The risk-free rate comes from the injected provider unless
// overridden.
func (s *Service) RiskMetrics(ctx context.Context, period domain.Period, opts RiskOptions) (analytics.RiskMetrics, error) {
	history, err := s.History(ctx, period)
	if err != nil {
		return analytics.RiskMetrics{}, err
	}

	riskFree := 0.0
	if opts.RiskFreeRate != nil {
		riskFree = *opts.RiskFreeRate
	} else if s.rates != nil {
		rate, err := s.rates.CurrentRate(ctx)
		if err != nil {
			return analytics.RiskMetrics{}, fmt.Errorf("failed to fetch risk-free rate: %w", err)
		}
		riskFree = rate
	}

	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = p.Value
	}
	returns := analytics.ReturnsFromValues(historyDates(history), values)

	var benchReturns analytics.ReturnSeries
	if s.benchmark != "" {
		bench, err := s.resolver.History(ctx, s.benchmark, domain.AssetIndex, period, domain.Interval1d)
		if err != nil {
			s.log.Warn().Str("benchmark", s.benchmark).Err(err).Msg("Benchmark history unavailable, skipping beta/alpha")
		} else if benchReturns, err = analytics.Returns(bench, analytics.MethodSimple); err != nil {
			return analytics.RiskMetrics{}, err
		}
	}

	return analytics.Metrics(returns, values, benchReturns, riskFree, opts.PeriodsPerYear), nil
}

// CorrelationMatrix computes the pairwise Pearson correlation of every
// resolvable position's return series, aligned on the dates common to
// all of them. The diagonal is exactly 1.
func (s *Service) CorrelationMatrix(ctx context.Context, period domain.Period) (CorrelationMatrix, error) {
	positions := s.snapshot()

	type symbolReturns struct {
		symbol string
		byDate map[string]float64
		dates  []string
	}
	var all []symbolReturns
	for _, pos := range positions {
		hist, err := s.resolver.History(ctx, pos.Symbol, pos.AssetClass, period, domain.Interval1d)
		if err != nil || hist.Len() < 2 {
			s.log.Warn().Str("symbol", pos.Symbol).Err(err).Msg("History resolution failed, excluding from correlations")
			continue
		}
		rets, err := analytics.Returns(hist, analytics.MethodSimple)
		if err != nil {
			return CorrelationMatrix{}, err
		}
		sr := symbolReturns{symbol: pos.Symbol, byDate: make(map[string]float64, rets.Len())}
		for i, d := range rets.Dates {
			key := d.UTC().Format("2006-01-02")
			sr.byDate[key] = rets.Values[i]
			sr.dates = append(sr.dates, key)
		}
		all = append(all, sr)
	}

	if len(all) < 2 {
		return CorrelationMatrix{}, fmt.Errorf("correlation matrix needs at least 2 resolvable positions, have %d", len(all))
	}

	// Dates common to every symbol, in order.
	var common []string
	for _, key := range all[0].dates {
		shared := true
		for _, sr := range all[1:] {
			if _, ok := sr.byDate[key]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, key)
		}
	}
	if len(common) < 2 {
		return CorrelationMatrix{}, fmt.Errorf("insufficient overlapping observations for correlations: %d", len(common))
	}

	aligned := make([][]float64, len(all))
	symbols := make([]string, len(all))
	for i, sr := range all {
		symbols[i] = sr.symbol
		col := make([]float64, len(common))
		for j, key := range common {
			col[j] = sr.byDate[key]
		}
		aligned[i] = col
	}

	values := make([][]float64, len(all))
	for i := range all {
		values[i] = make([]float64, len(all))
		values[i][i] = 1.0
		for j := 0; j < i; j++ {
			c := formulas.Correlation(aligned[i], aligned[j])
			values[i][j] = c
			values[j][i] = c
		}
	}

	return CorrelationMatrix{Symbols: symbols, Values: values}, nil
}

func historyDates(points []HistoryPoint) []time.Time {
	out := make([]time.Time, len(points))
	for i, p := range points {
		out[i] = p.Date
	}
	return out
}

func parseDate(key string) (time.Time, error) {
	return time.Parse("2006-01-02", key)
}
