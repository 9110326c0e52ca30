package analytics

import (
	"context"
	"fmt"

	"github.com/ysncmn/borsapy/pkg/formulas"
)

// MinObservations is the smallest sample a risk-metrics query will
// report on. Below it every statistic is undefined.
const MinObservations = 20

// DefaultTradingDays is the annualization base for equity markets.
// Crypto markets trade continuously and use 365.
const (
	DefaultTradingDays = 252
	CryptoTradingDays  = 365
)

// RiskMetrics is a fixed-field record computed fresh per query; it is a
// pure function of its inputs and is never cached. Fields that can be
// statistically undefined are nil.
type RiskMetrics struct {
	AnnualizedReturn     *float64 `json:"annualized_return"`
	AnnualizedVolatility *float64 `json:"annualized_volatility"`
	SharpeRatio          *float64 `json:"sharpe_ratio"`
	SortinoRatio         *float64 `json:"sortino_ratio"`
	MaxDrawdown          *float64 `json:"max_drawdown"`
	Beta                 *float64 `json:"beta,omitempty"`
	Alpha                *float64 `json:"alpha,omitempty"`
	RiskFreeRate         float64  `json:"risk_free_rate"`
	TradingDays          int      `json:"trading_days"`
	Observations         int      `json:"observations"`
}

// Beta computes Cov(asset, benchmark) / Var(benchmark) after aligning
// the two return series on identical dates. Fewer than two overlapping
// points is a reported error, not a silent zero. A zero benchmark
// variance leaves beta undefined (nil).
func Beta(asset, benchmark ReturnSeries) (*float64, error) {
	x, y := Align(asset, benchmark)
	if len(x) < 2 {
		return nil, fmt.Errorf("insufficient overlap between return series: %d aligned points (need at least 2)", len(x))
	}

	variance := formulas.Variance(y)
	if variance == 0 {
		return nil, nil
	}
	beta := formulas.Covariance(x, y) / variance
	return &beta, nil
}

// Metrics computes the full risk record for a value series.
//
// values is the price or portfolio-value history; benchmark may be a
// zero-value ReturnSeries when no benchmark applies, in which case beta
// and alpha stay nil. riskFreeRate is an annual decimal supplied by the
// caller (sourced from a bond-yield provider, never hardcoded here).
func Metrics(values ReturnSeries, prices []float64, benchmark ReturnSeries, riskFreeRate float64, periodsPerYear int) RiskMetrics {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultTradingDays
	}

	clean := formulas.DropNaN(values.Values)
	out := RiskMetrics{
		RiskFreeRate: riskFreeRate,
		TradingDays:  periodsPerYear,
		Observations: len(clean),
	}
	if len(clean) < MinObservations {
		return out
	}

	annReturn := formulas.AnnualizeReturn(formulas.Mean(clean), periodsPerYear)
	annVol := formulas.AnnualizeVolatility(formulas.StdDev(clean), periodsPerYear)
	out.AnnualizedReturn = &annReturn
	out.AnnualizedVolatility = &annVol

	out.SharpeRatio = formulas.SharpeRatio(clean, riskFreeRate, periodsPerYear)
	out.SortinoRatio = formulas.SortinoRatio(clean, riskFreeRate, periodsPerYear)
	out.MaxDrawdown = formulas.MaxDrawdown(prices)

	if benchmark.Len() > 0 {
		beta, err := Beta(values, benchmark)
		if err == nil && beta != nil {
			out.Beta = beta

			benchClean := formulas.DropNaN(benchmark.Values)
			benchAnn := formulas.AnnualizeReturn(formulas.Mean(benchClean), periodsPerYear)
			alpha := formulas.Alpha(annReturn, *beta, benchAnn, riskFreeRate)
			out.Alpha = &alpha
		}
	}

	return out
}

// FixedRate is a RateProvider returning a constant annual rate. It backs
// deployments without a live bond-yield connector.
type FixedRate float64

// CurrentRate returns the configured rate.
func (r FixedRate) CurrentRate(_ context.Context) (float64, error) {
	return float64(r), nil
}
