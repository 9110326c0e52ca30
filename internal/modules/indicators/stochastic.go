package indicators

import (
	"math"

	"github.com/ysncmn/borsapy/internal/domain"
)

// Stochastic computes the stochastic oscillator:
//
//	%K = 100 * (close - min(low, k)) / (max(high, k) - min(low, k))
//	%D = SMA(%K, d)
//
// When the high-low range over the window is zero, %K is undefined for
// that bar and stays NaN. %D averages only defined %K values and is NaN
// whenever any value in its window is undefined.
func Stochastic(s domain.Series, kPeriod, dPeriod int) (StochasticResult, error) {
	if err := checkPeriod("stochastic_k", kPeriod); err != nil {
		return StochasticResult{}, err
	}
	if err := checkPeriod("stochastic_d", dPeriod); err != nil {
		return StochasticResult{}, err
	}

	n := s.Len()
	k := allNaN(n)
	d := allNaN(n)
	if n < kPeriod {
		return StochasticResult{K: k, D: d}, nil
	}

	highs := s.Highs()
	lows := s.Lows()
	closes := s.Closes()

	for i := kPeriod - 1; i < n; i++ {
		hi := highs[i]
		lo := lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if hi == lo {
			continue // zero range: %K undefined for this bar
		}
		k[i] = 100 * (closes[i] - lo) / (hi - lo)
	}

	for i := kPeriod + dPeriod - 2; i < n; i++ {
		sum := 0.0
		defined := true
		for j := i - dPeriod + 1; j <= i; j++ {
			if math.IsNaN(k[j]) {
				defined = false
				break
			}
			sum += k[j]
		}
		if defined {
			d[i] = sum / float64(dPeriod)
		}
	}

	return StochasticResult{K: k, D: d}, nil
}
