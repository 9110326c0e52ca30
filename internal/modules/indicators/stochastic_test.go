package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysncmn/borsapy/internal/domain"
)

func TestStochasticBounds(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/2)*10
	}
	res, err := Stochastic(seriesFromCloses(closes), 14, 3)
	require.NoError(t, err)

	for i := 0; i < 13; i++ {
		assert.True(t, math.IsNaN(res.K[i]), "K index %d should be warm-up", i)
	}
	for i := 13; i < 30; i++ {
		assert.GreaterOrEqual(t, res.K[i], 0.0)
		assert.LessOrEqual(t, res.K[i], 100.0)
	}
	for i := 15; i < 30; i++ {
		assert.False(t, math.IsNaN(res.D[i]), "D index %d should be defined", i)
	}
}

func TestStochasticCloseAtExtremes(t *testing.T) {
	// Rising closes inside a fixed window put the close at the window
	// high, so %K is near 100.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	res, err := Stochastic(seriesFromCloses(closes), 5, 3)
	require.NoError(t, err)

	// close = e.g. 110, window high = 111, window low = 104: in [0, 100].
	last := res.K[19]
	assert.Greater(t, last, 80.0)
	assert.LessOrEqual(t, last, 100.0)
}

func TestStochasticZeroRangeIsUndefined(t *testing.T) {
	s := domain.Series{Symbol: "FLAT", AssetClass: domain.AssetStock, Interval: domain.Interval1d}
	for i := 0; i < 10; i++ {
		s.Bars = append(s.Bars, domain.Bar{
			Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: 50, High: 50, Low: 50, Close: 50,
		})
	}

	res, err := Stochastic(s, 5, 3)
	require.NoError(t, err)
	for i := range res.K {
		assert.True(t, math.IsNaN(res.K[i]), "zero range must leave %%K undefined at %d", i)
		assert.True(t, math.IsNaN(res.D[i]))
	}
}

func TestStochasticShortSeries(t *testing.T) {
	res, err := Stochastic(seriesFromCloses([]float64{1, 2, 3}), 14, 3)
	require.NoError(t, err)
	require.Len(t, res.K, 3)
	for i := range res.K {
		assert.True(t, math.IsNaN(res.K[i]))
	}
}

func TestVWAPSingleSession(t *testing.T) {
	// Intraday bars on one day: VWAP accumulates across all of them.
	s := domain.Series{Symbol: "THYAO", AssetClass: domain.AssetStock, Interval: domain.Interval1h}
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	prices := []float64{100, 102, 104}
	volumes := []float64{10, 20, 30}
	for i := range prices {
		v := volumes[i]
		s.Bars = append(s.Bars, domain.Bar{
			Time: base.Add(time.Duration(i) * time.Hour),
			Open: prices[i], High: prices[i], Low: prices[i], Close: prices[i],
			Volume: &v,
		})
	}

	out, err := VWAP(s)
	require.NoError(t, err)

	// Flat bars make the typical price equal the close.
	assert.InDelta(t, 100.0, out[0], 1e-9)
	assert.InDelta(t, (100*10+102*20)/30.0, out[1], 1e-9)
	assert.InDelta(t, (100*10+102*20+104*30)/60.0, out[2], 1e-9)
}

func TestVWAPResetsAtSessionBoundary(t *testing.T) {
	s := domain.Series{Symbol: "THYAO", AssetClass: domain.AssetStock, Interval: domain.Interval1h}
	v := 10.0
	day1 := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	for _, spec := range []struct {
		ts    time.Time
		price float64
	}{
		{day1, 100},
		{day2, 200},
	} {
		vol := v
		s.Bars = append(s.Bars, domain.Bar{
			Time: spec.ts,
			Open: spec.price, High: spec.price, Low: spec.price, Close: spec.price,
			Volume: &vol,
		})
	}

	out, err := VWAP(s)
	require.NoError(t, err)

	// Day 2 starts a fresh accumulation: no bleed-over from day 1.
	assert.InDelta(t, 100.0, out[0], 1e-9)
	assert.InDelta(t, 200.0, out[1], 1e-9)
}

func TestVWAPWithoutVolume(t *testing.T) {
	out, err := VWAP(seriesFromCloses([]float64{1, 2, 3}))
	require.NoError(t, err)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}
