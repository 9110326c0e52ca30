package portfolio

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysncmn/borsapy/internal/domain"
)

// fakeResolver serves canned prices and histories keyed by symbol.
type fakeResolver struct {
	prices    map[string]float64
	histories map[string]domain.Series
	failing   map[string]bool
}

func (f *fakeResolver) CurrentPrice(_ context.Context, symbol string, _ domain.AssetClass) (float64, error) {
	if f.failing[symbol] {
		return 0, fmt.Errorf("source unavailable")
	}
	price, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("unknown symbol %s", symbol)
	}
	return price, nil
}

func (f *fakeResolver) History(_ context.Context, symbol string, _ domain.AssetClass, _ domain.Period, _ domain.Interval) (domain.Series, error) {
	if f.failing[symbol] {
		return domain.Series{}, fmt.Errorf("source unavailable")
	}
	s, ok := f.histories[symbol]
	if !ok {
		return domain.Series{}, fmt.Errorf("unknown symbol %s", symbol)
	}
	return s, nil
}

func histSeries(symbol string, startDay int, closes []float64) domain.Series {
	s := domain.Series{Symbol: symbol, AssetClass: domain.AssetStock, Interval: domain.Interval1d}
	for i, c := range closes {
		s.Bars = append(s.Bars, domain.Bar{
			Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, startDay+i),
			Open: c, High: c, Low: c, Close: c,
		})
	}
	return s
}

func newTestService(resolver domain.PriceResolver) *Service {
	return NewService(resolver, nil, zerolog.Nop())
}

func twoStockResolver() *fakeResolver {
	return &fakeResolver{
		prices: map[string]float64{"THYAO": 300, "GARAN": 55, "XU100": 9500},
		histories: map[string]domain.Series{
			"THYAO": histSeries("THYAO", 0, []float64{280, 285, 290, 295, 300}),
			"GARAN": histSeries("GARAN", 0, []float64{50, 51, 52, 54, 55}),
			"XU100": histSeries("XU100", 0, []float64{9000, 9100, 9200, 9400, 9500}),
		},
		failing: map[string]bool{},
	}
}

func addTwoStocks(t *testing.T, svc *Service) {
	t.Helper()
	cost1, cost2 := 280.0, 50.0
	require.NoError(t, svc.Add(context.Background(), "THYAO", 100, AddOptions{CostPerShare: &cost1}))
	require.NoError(t, svc.Add(context.Background(), "GARAN", 200, AddOptions{CostPerShare: &cost2}))
}

func TestAddRejectsNonPositiveShares(t *testing.T) {
	svc := newTestService(twoStockResolver())

	for _, shares := range []float64{0, -5} {
		err := svc.Add(context.Background(), "THYAO", shares, AddOptions{})
		require.Error(t, err)
		var cfgErr *domain.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	}
	assert.Equal(t, 0, svc.Len())
}

func TestAddDefaultsCostToCurrentPrice(t *testing.T) {
	svc := newTestService(twoStockResolver())
	require.NoError(t, svc.Add(context.Background(), "THYAO", 10, AddOptions{}))

	view := svc.Holdings(context.Background())
	require.Len(t, view.Rows, 1)
	require.NotNil(t, view.Rows[0].CostPerShare)
	assert.Equal(t, 300.0, *view.Rows[0].CostPerShare)
}

func TestAddAmbiguousSymbolNeedsExplicitClass(t *testing.T) {
	svc := newTestService(&fakeResolver{prices: map[string]float64{"AFA": 1.5}})

	err := svc.Add(context.Background(), "AFA", 100, AddOptions{})
	var classErr *domain.ClassificationError
	require.ErrorAs(t, err, &classErr)

	fund := domain.AssetFund
	cost := 1.2
	require.NoError(t, svc.Add(context.Background(), "AFA", 100, AddOptions{AssetClass: &fund, CostPerShare: &cost}))
	assert.Equal(t, []string{"AFA"}, svc.Symbols())
}

func TestAddMergesExistingSymbol(t *testing.T) {
	svc := newTestService(twoStockResolver())
	addTwoStocks(t, svc)
	require.Equal(t, 2, svc.Len())

	newCost := 290.0
	require.NoError(t, svc.Add(context.Background(), "THYAO", 150, AddOptions{CostPerShare: &newCost}))

	assert.Equal(t, 2, svc.Len(), "re-adding must not duplicate the position")
	view := svc.Holdings(context.Background())
	for _, row := range view.Rows {
		if row.Symbol == "THYAO" {
			assert.Equal(t, 150.0, row.Shares)
			assert.Equal(t, 290.0, *row.CostPerShare)
		}
	}
}

func TestHoldingsView(t *testing.T) {
	svc := newTestService(twoStockResolver())
	addTwoStocks(t, svc)

	view := svc.Holdings(context.Background())
	require.Len(t, view.Rows, 2)
	assert.Empty(t, view.Warnings)

	// 100*300 + 200*55
	assert.InDelta(t, 41000.0, view.TotalValue, 1e-9)
	// (30000-28000) + (11000-10000)
	assert.InDelta(t, 3000.0, view.TotalPnL, 1e-9)

	// Rows sorted by symbol: GARAN, THYAO.
	garan, thyao := view.Rows[0], view.Rows[1]
	require.Equal(t, "GARAN", garan.Symbol)
	require.Equal(t, "THYAO", thyao.Symbol)

	assert.InDelta(t, 11000.0/41000.0, *garan.Weight, 1e-9)
	assert.InDelta(t, 30000.0/41000.0, *thyao.Weight, 1e-9)
	assert.InDelta(t, 1.0, *garan.Weight+*thyao.Weight, 1e-9)

	assert.InDelta(t, 2000.0, *thyao.PnL, 1e-9)
	assert.InDelta(t, 2000.0/28000.0, *thyao.PnLPct, 1e-9)

	assert.InDelta(t, 41000.0, svc.Value(context.Background()), 1e-9)
	assert.InDelta(t, 38000.0, svc.Cost(context.Background()), 1e-9)
	assert.InDelta(t, 3000.0, svc.PnL(context.Background()), 1e-9)
}

func TestHoldingsDegradesUnresolvedPositions(t *testing.T) {
	resolver := twoStockResolver()
	resolver.failing["GARAN"] = true
	svc := newTestService(resolver)
	addTwoStocks(t, svc)

	view := svc.Holdings(context.Background())
	require.Len(t, view.Rows, 2)
	require.Len(t, view.Warnings, 1)
	assert.Contains(t, view.Warnings[0], "GARAN")

	garan, thyao := view.Rows[0], view.Rows[1]
	assert.False(t, garan.Resolved)
	assert.Nil(t, garan.Value)
	assert.Nil(t, garan.Weight)

	// The resolved rest of the portfolio still carries full numbers.
	assert.True(t, thyao.Resolved)
	assert.InDelta(t, 30000.0, view.TotalValue, 1e-9)
	assert.InDelta(t, 1.0, *thyao.Weight, 1e-9)
}

func TestUpdateAndRemove(t *testing.T) {
	svc := newTestService(twoStockResolver())
	addTwoStocks(t, svc)

	shares := 50.0
	require.NoError(t, svc.Update("THYAO", &shares, nil))
	assert.Error(t, svc.Update("ABSENT", &shares, nil))

	bad := -1.0
	assert.Error(t, svc.Update("THYAO", &bad, nil))

	svc.Remove("GARAN")
	assert.Equal(t, []string{"THYAO"}, svc.Symbols())
	svc.Remove("GARAN") // absent: no-op

	svc.Clear()
	assert.Equal(t, 0, svc.Len())
}

func TestHistoryInnerJoin(t *testing.T) {
	resolver := twoStockResolver()
	// GARAN misses day 2: only the common dates survive.
	resolver.histories["GARAN"] = domain.Series{
		Symbol: "GARAN", AssetClass: domain.AssetStock, Interval: domain.Interval1d,
		Bars: []domain.Bar{
			{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 50, High: 50, Low: 50, Close: 50},
			{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 51, High: 51, Low: 51, Close: 51},
			{Time: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Open: 54, High: 54, Low: 54, Close: 54},
			{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Open: 55, High: 55, Low: 55, Close: 55},
		},
	}
	svc := newTestService(resolver)
	addTwoStocks(t, svc)

	points, err := svc.History(context.Background(), domain.Period1mo)
	require.NoError(t, err)
	require.Len(t, points, 4)

	// Day 1: 100*280 + 200*50
	assert.InDelta(t, 38000.0, points[0].Value, 1e-9)
	assert.True(t, math.IsNaN(points[0].DailyReturn))
	for i := 1; i < len(points); i++ {
		assert.False(t, math.IsNaN(points[i].DailyReturn))
		assert.True(t, points[i].Date.After(points[i-1].Date))
	}
}

func TestHistorySkipsFailingPosition(t *testing.T) {
	resolver := twoStockResolver()
	resolver.failing["GARAN"] = true
	svc := newTestService(resolver)
	addTwoStocks(t, svc)

	points, err := svc.History(context.Background(), domain.Period1mo)
	require.NoError(t, err)
	require.Len(t, points, 5)
	// Only THYAO contributes.
	assert.InDelta(t, 100*280.0, points[0].Value, 1e-9)
}

func TestHistoryEmptyPortfolio(t *testing.T) {
	svc := newTestService(twoStockResolver())
	points, err := svc.History(context.Background(), domain.Period1y)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestRiskMetricsUsesBenchmark(t *testing.T) {
	resolver := &fakeResolver{
		prices:    map[string]float64{"THYAO": 0},
		histories: map[string]domain.Series{},
		failing:   map[string]bool{},
	}
	// Long histories so the observation gate passes.
	closes := make([]float64, 40)
	bench := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 * (1 + 0.01*float64(i)) * (1 + 0.002*float64(i%3))
		bench[i] = 9000 * (1 + 0.008*float64(i))
	}
	resolver.histories["THYAO"] = histSeries("THYAO", 0, closes)
	resolver.histories["XU100"] = histSeries("XU100", 0, bench)
	resolver.prices["THYAO"] = closes[len(closes)-1]

	svc := newTestService(resolver)
	cost := 100.0
	require.NoError(t, svc.Add(context.Background(), "THYAO", 10, AddOptions{CostPerShare: &cost}))
	assert.Equal(t, DefaultBenchmark, svc.Benchmark())

	rf := 0.30
	m, err := svc.RiskMetrics(context.Background(), domain.Period1y, RiskOptions{RiskFreeRate: &rf})
	require.NoError(t, err)

	require.NotNil(t, m.AnnualizedReturn)
	require.NotNil(t, m.Beta)
	require.NotNil(t, m.Alpha)
	assert.Equal(t, 0.30, m.RiskFreeRate)
}

func TestCorrelationMatrix(t *testing.T) {
	resolver := twoStockResolver()
	svc := newTestService(resolver)
	addTwoStocks(t, svc)

	matrix, err := svc.CorrelationMatrix(context.Background(), domain.Period1mo)
	require.NoError(t, err)

	require.Equal(t, []string{"GARAN", "THYAO"}, matrix.Symbols)
	require.Len(t, matrix.Values, 2)

	assert.Equal(t, 1.0, matrix.Values[0][0], "diagonal must be exactly 1")
	assert.Equal(t, 1.0, matrix.Values[1][1])
	assert.InDelta(t, matrix.Values[0][1], matrix.Values[1][0], 1e-12, "matrix must be symmetric")
	assert.GreaterOrEqual(t, matrix.Values[0][1], -1.0)
	assert.LessOrEqual(t, matrix.Values[0][1], 1.0)
}

func TestCorrelationMatrixNeedsTwoPositions(t *testing.T) {
	svc := newTestService(twoStockResolver())
	cost := 280.0
	require.NoError(t, svc.Add(context.Background(), "THYAO", 100, AddOptions{CostPerShare: &cost}))

	_, err := svc.CorrelationMatrix(context.Background(), domain.Period1mo)
	assert.Error(t, err)
}

func TestSetBenchmark(t *testing.T) {
	svc := newTestService(twoStockResolver())
	svc.SetBenchmark("xu030")
	assert.Equal(t, "XU030", svc.Benchmark())
}
