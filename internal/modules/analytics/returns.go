// Package analytics derives return series and risk statistics from
// canonical value series. Statistically undefined results are reported
// as nil values, never as faults.
package analytics

import (
	"fmt"
	"time"

	"github.com/ysncmn/borsapy/internal/domain"
	"github.com/ysncmn/borsapy/pkg/formulas"
)

// Method selects the return computation.
type Method string

const (
	// MethodSimple computes (P_t / P_{t-1}) - 1.
	MethodSimple Method = "simple"
	// MethodLog computes ln(P_t / P_{t-1}).
	MethodLog Method = "log"
)

// ReturnSeries holds periodic returns aligned to the dates on which they
// were realized. Its length is one less than the source series.
type ReturnSeries struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of periods.
func (r ReturnSeries) Len() int { return len(r.Values) }

// Returns derives a periodic return series from a canonical series'
// close prices. An unknown method is a ConfigurationError.
func Returns(s domain.Series, method Method) (ReturnSeries, error) {
	var values []float64
	switch method {
	case MethodSimple:
		values = formulas.SimpleReturns(s.Closes())
	case MethodLog:
		values = formulas.LogReturns(s.Closes())
	default:
		return ReturnSeries{}, &domain.ConfigurationError{
			Param:  "method",
			Reason: fmt.Sprintf("unknown return method %q (valid: simple, log)", method),
		}
	}

	if s.Len() < 2 {
		return ReturnSeries{}, nil
	}
	return ReturnSeries{Dates: s.Times()[1:], Values: values}, nil
}

// ReturnsFromValues derives a simple return series from a raw value
// column with its date index (used for portfolio value histories).
func ReturnsFromValues(dates []time.Time, values []float64) ReturnSeries {
	if len(values) < 2 {
		return ReturnSeries{}
	}
	return ReturnSeries{
		Dates:  dates[1:],
		Values: formulas.SimpleReturns(values),
	}
}

// dateKey normalizes a timestamp to its calendar day for alignment.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Align inner-joins two return series on identical dates and returns the
// paired values in chronological order.
func Align(a, b ReturnSeries) (x, y []float64) {
	bByDate := make(map[string]float64, b.Len())
	for i, d := range b.Dates {
		bByDate[dateKey(d)] = b.Values[i]
	}
	for i, d := range a.Dates {
		if bv, ok := bByDate[dateKey(d)]; ok {
			x = append(x, a.Values[i])
			y = append(y, bv)
		}
	}
	return x, y
}
