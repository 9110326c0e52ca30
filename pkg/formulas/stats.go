// Package formulas provides the pure numeric building blocks for return
// and risk statistics. Functions whose result can be statistically
// undefined return a nil *float64 instead of a fault.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two equal-length
// datasets.
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two
// equal-length datasets.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// SimpleReturns converts prices to simple periodic returns:
// r[i] = P[i+1]/P[i] - 1. A zero previous price yields NaN for that
// period rather than an infinite return.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// LogReturns converts prices to log returns: r[i] = ln(P[i+1]/P[i]).
// Non-positive prices yield NaN for that period.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out
}

// AnnualizeReturn scales a mean periodic return to an annual figure.
func AnnualizeReturn(meanReturn float64, periodsPerYear int) float64 {
	return meanReturn * float64(periodsPerYear)
}

// AnnualizeVolatility scales a periodic standard deviation by the square
// root of the number of periods per year.
func AnnualizeVolatility(stdDev float64, periodsPerYear int) float64 {
	return stdDev * math.Sqrt(float64(periodsPerYear))
}

// DownsideDeviation computes the standard deviation of the negative
// periodic returns only. The second result is the number of downside
// periods; zero means the statistic is undefined.
func DownsideDeviation(returns []float64) (float64, int) {
	var downside []float64
	for _, r := range returns {
		if math.IsNaN(r) {
			continue
		}
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0, 0
	}
	if len(downside) == 1 {
		return 0, 1
	}
	return stat.StdDev(downside, nil), len(downside)
}

// DropNaN returns the values with NaN entries removed.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
