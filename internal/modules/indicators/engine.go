// Package indicators computes technical indicators over a canonical
// series. Every function is stateless and returns a column aligned to
// the input's timestamp index, with NaN for the warm-up prefix where no
// value is defined. Indicator computation never mutates its input.
package indicators

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/ysncmn/borsapy/internal/domain"
)

// Default indicator parameters.
const (
	DefaultSMAPeriod    = 20
	DefaultEMAPeriod    = 12
	DefaultRSIPeriod    = 14
	DefaultMACDFast     = 12
	DefaultMACDSlow     = 26
	DefaultMACDSignal   = 9
	DefaultBollingerPer = 20
	DefaultBollingerStd = 2.0
	DefaultATRPeriod    = 14
	DefaultStochKPeriod = 14
	DefaultStochDPeriod = 3
	DefaultADXPeriod    = 14
)

// MACDResult holds the three MACD output columns.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// BollingerResult holds the three band columns.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// StochasticResult holds the %K and %D columns.
type StochasticResult struct {
	K []float64
	D []float64
}

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return &domain.ConfigurationError{Param: name, Reason: fmt.Sprintf("period must be positive, got %d", period)}
	}
	return nil
}

// allNaN returns a length-n column with every entry undefined.
func allNaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// maskWarmup overwrites the first n entries with NaN. The underlying
// TA-Lib port zero-fills its unstable head; the canonical contract is
// that warm-up values are undefined.
func maskWarmup(values []float64, n int) []float64 {
	for i := 0; i < n && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

// SMA computes the simple moving average of close prices.
// SMA with period 1 is the close-price identity.
func SMA(s domain.Series, period int) ([]float64, error) {
	if err := checkPeriod("sma_period", period); err != nil {
		return nil, err
	}
	if s.Len() < period {
		return allNaN(s.Len()), nil
	}
	return maskWarmup(talib.Sma(s.Closes(), period), period-1), nil
}

// EMA computes the exponential moving average of close prices with
// smoothing factor 2/(period+1), seeded by the SMA of the first period
// values.
func EMA(s domain.Series, period int) ([]float64, error) {
	if err := checkPeriod("ema_period", period); err != nil {
		return nil, err
	}
	if s.Len() < period {
		return allNaN(s.Len()), nil
	}
	return maskWarmup(talib.Ema(s.Closes(), period), period-1), nil
}

// RSI computes Wilder's relative strength index. When the average loss
// over the window is zero the RSI is 100.
func RSI(s domain.Series, period int) ([]float64, error) {
	if err := checkPeriod("rsi_period", period); err != nil {
		return nil, err
	}
	if s.Len() < period+1 {
		return allNaN(s.Len()), nil
	}
	return maskWarmup(talib.Rsi(s.Closes(), period), period), nil
}

// MACD computes the moving average convergence/divergence line, its
// signal line and the histogram.
func MACD(s domain.Series, fast, slow, signal int) (MACDResult, error) {
	for name, p := range map[string]int{"macd_fast": fast, "macd_slow": slow, "macd_signal": signal} {
		if err := checkPeriod(name, p); err != nil {
			return MACDResult{}, err
		}
	}
	if fast >= slow {
		return MACDResult{}, &domain.ConfigurationError{
			Param:  "macd_fast",
			Reason: fmt.Sprintf("fast period %d must be below slow period %d", fast, slow),
		}
	}
	if s.Len() < slow+signal {
		n := s.Len()
		return MACDResult{MACD: allNaN(n), Signal: allNaN(n), Histogram: allNaN(n)}, nil
	}

	n := s.Len()
	closes := s.Closes()
	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)

	// The line is the difference of the two EMAs and is defined as soon
	// as the slow EMA is, at index slow-1.
	line := make([]float64, n)
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	line = maskWarmup(line, slow-1)

	// The signal line smooths the defined part of the MACD line, seeded
	// with the mean of its first signal values.
	sig := allNaN(n)
	hist := allNaN(n)
	start := slow - 1
	seed := 0.0
	for i := start; i < start+signal; i++ {
		seed += line[i]
	}
	first := start + signal - 1
	sig[first] = seed / float64(signal)
	hist[first] = line[first] - sig[first]
	alpha := 2.0 / float64(signal+1)
	for i := first + 1; i < n; i++ {
		sig[i] = alpha*line[i] + (1-alpha)*sig[i-1]
		hist[i] = line[i] - sig[i]
	}

	return MACDResult{MACD: line, Signal: sig, Histogram: hist}, nil
}

// BollingerBands computes the middle SMA band with upper and lower bands
// stdDev standard deviations away.
func BollingerBands(s domain.Series, period int, stdDev float64) (BollingerResult, error) {
	if err := checkPeriod("bollinger_period", period); err != nil {
		return BollingerResult{}, err
	}
	if stdDev <= 0 {
		return BollingerResult{}, &domain.ConfigurationError{
			Param:  "bollinger_std_dev",
			Reason: fmt.Sprintf("std_dev must be positive, got %.2f", stdDev),
		}
	}
	if s.Len() < period {
		n := s.Len()
		return BollingerResult{Upper: allNaN(n), Middle: allNaN(n), Lower: allNaN(n)}, nil
	}

	upper, middle, lower := talib.BBands(s.Closes(), period, stdDev, stdDev, talib.SMA)
	return BollingerResult{
		Upper:  maskWarmup(upper, period-1),
		Middle: maskWarmup(middle, period-1),
		Lower:  maskWarmup(lower, period-1),
	}, nil
}

// ATR computes Wilder's average true range.
func ATR(s domain.Series, period int) ([]float64, error) {
	if err := checkPeriod("atr_period", period); err != nil {
		return nil, err
	}
	if s.Len() < period+1 {
		return allNaN(s.Len()), nil
	}
	return maskWarmup(talib.Atr(s.Highs(), s.Lows(), s.Closes(), period), period), nil
}

// ADX computes the average directional movement index from +DM/-DM and
// the smoothed true range. Its warm-up spans 2*period-1 bars.
func ADX(s domain.Series, period int) ([]float64, error) {
	if err := checkPeriod("adx_period", period); err != nil {
		return nil, err
	}
	if s.Len() < 2*period {
		return allNaN(s.Len()), nil
	}
	return maskWarmup(talib.Adx(s.Highs(), s.Lows(), s.Closes(), period), 2*period-1), nil
}

// OBV computes on-balance volume: a running sum that adds volume when
// the close rises, subtracts it when the close falls and carries over
// when unchanged. A series without volume yields an all-NaN column.
func OBV(s domain.Series) ([]float64, error) {
	vols, ok := s.Volumes()
	if !ok {
		return allNaN(s.Len()), nil
	}
	return talib.Obv(s.Closes(), vols), nil
}
