package indicators

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ysncmn/borsapy/internal/domain"
)

// Params carries every tunable indicator parameter with its documented
// default. Defaults are threaded explicitly into each call; there is no
// ambient configuration state.
type Params struct {
	SMAPeriod       int     `json:"sma_period"`
	EMAPeriod       int     `json:"ema_period"`
	RSIPeriod       int     `json:"rsi_period"`
	MACDFast        int     `json:"macd_fast"`
	MACDSlow        int     `json:"macd_slow"`
	MACDSignal      int     `json:"macd_signal"`
	BollingerPeriod int     `json:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_std_dev"`
	ATRPeriod       int     `json:"atr_period"`
	StochKPeriod    int     `json:"stochastic_k"`
	StochDPeriod    int     `json:"stochastic_d"`
	ADXPeriod       int     `json:"adx_period"`
}

// DefaultParams returns the documented defaults for every indicator.
func DefaultParams() Params {
	return Params{
		SMAPeriod:       DefaultSMAPeriod,
		EMAPeriod:       DefaultEMAPeriod,
		RSIPeriod:       DefaultRSIPeriod,
		MACDFast:        DefaultMACDFast,
		MACDSlow:        DefaultMACDSlow,
		MACDSignal:      DefaultMACDSignal,
		BollingerPeriod: DefaultBollingerPer,
		BollingerStdDev: DefaultBollingerStd,
		ATRPeriod:       DefaultATRPeriod,
		StochKPeriod:    DefaultStochKPeriod,
		StochDPeriod:    DefaultStochDPeriod,
		ADXPeriod:       DefaultADXPeriod,
	}
}

// Table is an augmented series: the original OHLCV columns plus one
// column per requested indicator sub-value, all aligned row-for-row on
// the source timestamp index. Undefined entries are NaN.
type Table struct {
	Symbol  string
	Times   []time.Time
	Columns []string
	Values  map[string][]float64
}

// Names lists the valid indicator names accepted by Compute.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registry maps an indicator name to the columns it contributes.
var registry = map[string]func(s domain.Series, p Params, t *Table) error{
	"sma": func(s domain.Series, p Params, t *Table) error {
		col, err := SMA(s, p.SMAPeriod)
		if err != nil {
			return err
		}
		t.add("sma", col)
		return nil
	},
	"ema": func(s domain.Series, p Params, t *Table) error {
		col, err := EMA(s, p.EMAPeriod)
		if err != nil {
			return err
		}
		t.add("ema", col)
		return nil
	},
	"rsi": func(s domain.Series, p Params, t *Table) error {
		col, err := RSI(s, p.RSIPeriod)
		if err != nil {
			return err
		}
		t.add("rsi", col)
		return nil
	},
	"macd": func(s domain.Series, p Params, t *Table) error {
		res, err := MACD(s, p.MACDFast, p.MACDSlow, p.MACDSignal)
		if err != nil {
			return err
		}
		t.add("macd", res.MACD)
		t.add("macd_signal", res.Signal)
		t.add("macd_hist", res.Histogram)
		return nil
	},
	"bollinger": func(s domain.Series, p Params, t *Table) error {
		res, err := BollingerBands(s, p.BollingerPeriod, p.BollingerStdDev)
		if err != nil {
			return err
		}
		t.add("bb_upper", res.Upper)
		t.add("bb_middle", res.Middle)
		t.add("bb_lower", res.Lower)
		return nil
	},
	"atr": func(s domain.Series, p Params, t *Table) error {
		col, err := ATR(s, p.ATRPeriod)
		if err != nil {
			return err
		}
		t.add("atr", col)
		return nil
	},
	"stochastic": func(s domain.Series, p Params, t *Table) error {
		res, err := Stochastic(s, p.StochKPeriod, p.StochDPeriod)
		if err != nil {
			return err
		}
		t.add("stoch_k", res.K)
		t.add("stoch_d", res.D)
		return nil
	},
	"obv": func(s domain.Series, p Params, t *Table) error {
		col, err := OBV(s)
		if err != nil {
			return err
		}
		t.add("obv", col)
		return nil
	},
	"vwap": func(s domain.Series, p Params, t *Table) error {
		col, err := VWAP(s)
		if err != nil {
			return err
		}
		t.add("vwap", col)
		return nil
	},
	"adx": func(s domain.Series, p Params, t *Table) error {
		col, err := ADX(s, p.ADXPeriod)
		if err != nil {
			return err
		}
		t.add("adx", col)
		return nil
	},
}

// Compute batches several indicators over one series into a single
// aligned table. Unknown indicator names fail the whole request with a
// ConfigurationError naming the valid set; undefined data for a single
// indicator (missing volume, short history) only yields NaN columns.
func Compute(s domain.Series, names []string, params Params) (*Table, error) {
	t := &Table{
		Symbol: s.Symbol,
		Times:  s.Times(),
		Values: make(map[string][]float64),
	}

	t.add("open", columnOf(s, func(b domain.Bar) float64 { return b.Open }))
	t.add("high", s.Highs())
	t.add("low", s.Lows())
	t.add("close", s.Closes())
	if vols, ok := s.Volumes(); ok {
		t.add("volume", vols)
	} else {
		t.add("volume", allNaN(s.Len()))
	}

	for _, name := range names {
		compute, ok := registry[strings.ToLower(name)]
		if !ok {
			return nil, &domain.ConfigurationError{
				Param:  "indicator",
				Reason: fmt.Sprintf("unknown indicator %q (valid: %s)", name, strings.Join(Names(), ", ")),
			}
		}
		if err := compute(s, params, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) add(name string, values []float64) {
	t.Columns = append(t.Columns, name)
	t.Values[name] = values
}

func columnOf(s domain.Series, f func(domain.Bar) float64) []float64 {
	out := make([]float64, s.Len())
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}

// Latest returns the last defined value of a column, or nil when the
// column is empty or ends in NaN.
func Latest(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
