package formulas

// MaxDrawdown calculates the maximum peak-to-trough decline of a value
// series as a non-positive fraction: min over t of P[t]/runningMax - 1.
// A monotonically non-decreasing series has a drawdown of exactly 0.
// Returns nil for fewer than two observations.
func MaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}

	maxDD := 0.0
	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			dd := v/peak - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return &maxDD
}

// DrawdownSeries returns the drawdown at every observation, each value
// non-positive relative to the running peak.
func DrawdownSeries(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = v/peak - 1
		}
	}
	return out
}
