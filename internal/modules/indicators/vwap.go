package indicators

import (
	"github.com/ysncmn/borsapy/internal/domain"
)

// VWAP computes the volume-weighted average price, resetting at each
// trading session boundary (calendar-day change of the bar timestamp):
//
//	VWAP = cumulative(typical price * volume) / cumulative(volume)
//
// with typical price = (high + low + close) / 3. On a daily or coarser
// series every bar forms its own session, so VWAP equals the bar's
// typical price. A series without volume yields an all-NaN column.
func VWAP(s domain.Series) ([]float64, error) {
	vols, ok := s.Volumes()
	if !ok {
		return allNaN(s.Len()), nil
	}

	n := s.Len()
	out := allNaN(n)

	var cumPV, cumVol float64
	session := ""
	for i, b := range s.Bars {
		day := b.Time.UTC().Format("2006-01-02")
		if day != session {
			session = day
			cumPV, cumVol = 0, 0
		}
		typical := (b.High + b.Low + b.Close) / 3
		cumPV += typical * vols[i]
		cumVol += vols[i]
		if cumVol > 0 {
			out[i] = cumPV / cumVol
		}
	}
	return out, nil
}
