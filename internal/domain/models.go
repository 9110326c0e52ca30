// Package domain provides the canonical time-series model and the core
// types shared by every analytics module.
package domain

import (
	"fmt"
	"math"
	"time"
)

// AssetClass identifies the market a symbol trades on.
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetIndex  AssetClass = "index"
	AssetFX     AssetClass = "fx"
	AssetCrypto AssetClass = "crypto"
	AssetFund   AssetClass = "fund"
	AssetBond   AssetClass = "bond"
)

// ParseAssetClass validates an asset class string.
func ParseAssetClass(s string) (AssetClass, error) {
	switch AssetClass(s) {
	case AssetStock, AssetIndex, AssetFX, AssetCrypto, AssetFund, AssetBond:
		return AssetClass(s), nil
	}
	return "", &ConfigurationError{
		Param:  "asset_class",
		Reason: fmt.Sprintf("unknown asset class %q (valid: stock, index, fx, crypto, fund, bond)", s),
	}
}

// Interval is the bar granularity of a series.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval1d  Interval = "1d"
	Interval1wk Interval = "1wk"
	Interval1mo Interval = "1mo"
)

var validIntervals = []Interval{
	Interval1m, Interval5m, Interval15m, Interval30m,
	Interval1h, Interval1d, Interval1wk, Interval1mo,
}

// ParseInterval validates an interval string.
func ParseInterval(s string) (Interval, error) {
	for _, iv := range validIntervals {
		if Interval(s) == iv {
			return iv, nil
		}
	}
	return "", &ConfigurationError{
		Param:  "interval",
		Reason: fmt.Sprintf("unknown interval %q (valid: 1m, 5m, 15m, 30m, 1h, 1d, 1wk, 1mo)", s),
	}
}

// Period is a named lookback window for history queries.
type Period string

const (
	Period1d  Period = "1d"
	Period5d  Period = "5d"
	Period1mo Period = "1mo"
	Period3mo Period = "3mo"
	Period6mo Period = "6mo"
	Period1y  Period = "1y"
	Period2y  Period = "2y"
	Period5y  Period = "5y"
	Period10y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

var validPeriods = []Period{
	Period1d, Period5d, Period1mo, Period3mo, Period6mo,
	Period1y, Period2y, Period5y, Period10y, PeriodYTD, PeriodMax,
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	for _, p := range validPeriods {
		if Period(s) == p {
			return p, nil
		}
	}
	return "", &ConfigurationError{
		Param:  "period",
		Reason: fmt.Sprintf("unknown period %q (valid: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max)", s),
	}
}

// Start returns the start of the lookback window ending at now.
// ok is false for PeriodMax, which has no lower bound.
func (p Period) Start(now time.Time) (start time.Time, ok bool) {
	switch p {
	case Period1d:
		return now.AddDate(0, 0, -1), true
	case Period5d:
		return now.AddDate(0, 0, -5), true
	case Period1mo:
		return now.AddDate(0, -1, 0), true
	case Period3mo:
		return now.AddDate(0, -3, 0), true
	case Period6mo:
		return now.AddDate(0, -6, 0), true
	case Period1y:
		return now.AddDate(-1, 0, 0), true
	case Period2y:
		return now.AddDate(-2, 0, 0), true
	case Period5y:
		return now.AddDate(-5, 0, 0), true
	case Period10y:
		return now.AddDate(-10, 0, 0), true
	case PeriodYTD:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// Bar is a single OHLCV observation. Volume is nil for sources that
// report price only (FX rates, fund prices, indices).
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *float64  `json:"volume,omitempty"`
}

// Validate checks that every price is finite, that the OHLC ordering
// invariant holds (low <= open, close <= high) and that volume, when
// present, is non-negative.
func (b Bar) Validate() error {
	for field, v := range map[string]float64{"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar at %s: %s is not finite", b.Time.Format(time.RFC3339), field)
		}
	}
	if b.Low > b.High {
		return fmt.Errorf("bar at %s: low %.4f above high %.4f", b.Time.Format(time.RFC3339), b.Low, b.High)
	}
	if b.Open < b.Low || b.Open > b.High {
		return fmt.Errorf("bar at %s: open %.4f outside [low, high]", b.Time.Format(time.RFC3339), b.Open)
	}
	if b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("bar at %s: close %.4f outside [low, high]", b.Time.Format(time.RFC3339), b.Close)
	}
	if b.Volume != nil && *b.Volume < 0 {
		return fmt.Errorf("bar at %s: negative volume %.2f", b.Time.Format(time.RFC3339), *b.Volume)
	}
	return nil
}

// Series is the canonical, source-agnostic time series for one symbol.
// A successfully normalized series has strictly increasing timestamps of
// uniform granularity. An empty series is a valid state, not an error.
type Series struct {
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Interval   Interval   `json:"interval"`
	Bars       []Bar      `json:"bars"`
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Last returns the most recent bar, or nil for an empty series.
func (s Series) Last() *Bar {
	if len(s.Bars) == 0 {
		return nil
	}
	return &s.Bars[len(s.Bars)-1]
}

// Times returns the timestamp index.
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Time
	}
	return out
}

// Closes returns the close-price column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high-price column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low-price column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// HasVolume reports whether every bar carries a volume value.
func (s Series) HasVolume() bool {
	if len(s.Bars) == 0 {
		return false
	}
	for _, b := range s.Bars {
		if b.Volume == nil {
			return false
		}
	}
	return true
}

// Volumes returns the volume column. ok is false when any bar lacks
// volume, in which case the slice is nil.
func (s Series) Volumes() (vols []float64, ok bool) {
	if !s.HasVolume() {
		return nil, false
	}
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = *b.Volume
	}
	return out, true
}

// Slice returns the sub-series covering the lookback window of p ending
// at now. PeriodMax returns the series unchanged.
func (s Series) Slice(p Period, now time.Time) Series {
	start, bounded := p.Start(now)
	if !bounded {
		return s
	}
	idx := len(s.Bars)
	for i, b := range s.Bars {
		if !b.Time.Before(start) {
			idx = i
			break
		}
	}
	out := s
	out.Bars = s.Bars[idx:]
	return out
}

// CheckMonotonic verifies the strictly-increasing timestamp invariant.
func (s Series) CheckMonotonic() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("series %s: timestamps not strictly increasing at index %d (%s >= %s)",
				s.Symbol, i,
				s.Bars[i-1].Time.Format(time.RFC3339),
				s.Bars[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}
