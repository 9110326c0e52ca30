package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanAndStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(data), 1e-9)
	// Sample standard deviation.
	assert.InDelta(t, 2.138, StdDev(data), 0.001)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev([]float64{1}))
}

func TestCovarianceAndCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 1.0, Correlation(x, y), 1e-9)
	assert.Greater(t, Covariance(x, y), 0.0)

	inverse := []float64{10, 8, 6, 4, 2}
	assert.InDelta(t, -1.0, Correlation(x, inverse), 1e-9)
}

func TestSimpleReturnsEdgeCases(t *testing.T) {
	assert.Empty(t, SimpleReturns([]float64{100}))

	r := SimpleReturns([]float64{100, 110, 0, 55})
	require.Len(t, r, 3)
	assert.InDelta(t, 0.10, r[0], 1e-9)
	assert.InDelta(t, -1.0, r[1], 1e-9)
	assert.True(t, math.IsNaN(r[2]), "division by a zero price is undefined")
}

func TestLogReturnsNonPositive(t *testing.T) {
	r := LogReturns([]float64{100, 110, -5, 55})
	require.Len(t, r, 3)
	assert.InDelta(t, math.Log(1.1), r[0], 1e-9)
	assert.True(t, math.IsNaN(r[1]))
	assert.True(t, math.IsNaN(r[2]))
}

func TestAnnualization(t *testing.T) {
	assert.InDelta(t, 0.252, AnnualizeReturn(0.001, 252), 1e-9)
	assert.InDelta(t, 0.02*math.Sqrt(252), AnnualizeVolatility(0.02, 252), 1e-9)
}

func TestDownsideDeviation(t *testing.T) {
	_, n := DownsideDeviation([]float64{0.01, 0.02, 0.03})
	assert.Equal(t, 0, n, "all-positive returns have no downside")

	dev, n := DownsideDeviation([]float64{0.01, -0.02, 0.03, -0.04})
	assert.Equal(t, 2, n)
	assert.Greater(t, dev, 0.0)
}

func TestDropNaN(t *testing.T) {
	out := DropNaN([]float64{1, math.NaN(), 2, math.NaN()})
	assert.Equal(t, []float64{1, 2}, out)
}

func TestSharpeRatio(t *testing.T) {
	// Constant returns: zero volatility, ratio undefined.
	assert.Nil(t, SharpeRatio([]float64{0.01, 0.01, 0.01, 0.01}, 0.0, 252))
	assert.Nil(t, SharpeRatio([]float64{0.01}, 0.0, 252))

	returns := []float64{0.01, -0.005, 0.02, 0.003, -0.01, 0.015}
	s := SharpeRatio(returns, 0.0, 252)
	require.NotNil(t, s)

	// Subtracting a higher risk-free rate can only lower the ratio.
	sHighRf := SharpeRatio(returns, 0.30, 252)
	require.NotNil(t, sHighRf)
	assert.Less(t, *sHighRf, *s)
}

func TestSortinoRatio(t *testing.T) {
	// No downside periods: undefined rather than infinite.
	assert.Nil(t, SortinoRatio([]float64{0.01, 0.02, 0.01, 0.03}, 0.0, 252))

	s := SortinoRatio([]float64{0.01, -0.005, 0.02, -0.012, 0.015}, 0.0, 252)
	assert.NotNil(t, s)
}

func TestAlpha(t *testing.T) {
	// Beta 1 and equal returns: zero CAPM residual.
	assert.InDelta(t, 0.0, Alpha(0.40, 1.0, 0.40, 0.30), 1e-9)
	// Outperformance above the CAPM expectation is positive alpha.
	assert.InDelta(t, 0.05, Alpha(0.45, 1.0, 0.40, 0.30), 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Nil(t, MaxDrawdown([]float64{100}))

	dd := MaxDrawdown([]float64{100, 101, 105, 110})
	require.NotNil(t, dd)
	assert.Equal(t, 0.0, *dd, "monotonic rise has zero drawdown")

	dd = MaxDrawdown([]float64{100, 120, 90, 110, 80})
	require.NotNil(t, dd)
	assert.InDelta(t, 80.0/120.0-1, *dd, 1e-9)
	assert.Less(t, *dd, 0.0)
}

func TestDrawdownSeries(t *testing.T) {
	out := DrawdownSeries([]float64{100, 120, 90, 110})
	require.Len(t, out, 4)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 0.0, out[1])
	assert.InDelta(t, 90.0/120.0-1, out[2], 1e-9)
	assert.InDelta(t, 110.0/120.0-1, out[3], 1e-9)
}
