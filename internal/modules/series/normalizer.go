// Package series normalizes heterogeneous connector payloads into the
// canonical OHLCV model.
package series

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
)

// FieldMap describes which raw keys of a connector payload map onto the
// canonical bar fields. Each connector supplies its own mapping; nothing
// is hardcoded centrally. Volume may be empty for price-only sources.
type FieldMap struct {
	Time   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// Validate checks that the required keys are present.
func (fm FieldMap) Validate() error {
	for param, key := range map[string]string{
		"time": fm.Time, "open": fm.Open, "high": fm.High, "low": fm.Low, "close": fm.Close,
	} {
		if key == "" {
			return &domain.ConfigurationError{Param: "field_map", Reason: fmt.Sprintf("missing raw key for %s", param)}
		}
	}
	return nil
}

// Normalizer converts raw connector rows into a canonical Series.
//
// MaxInvalidFraction controls the batch-rejection policy: when the share
// of rows failing coercion or the OHLC ordering invariant exceeds it, the
// whole batch is rejected with a NormalizationError; otherwise invalid
// rows are dropped and the rest is kept. The default of 0 is strict.
type Normalizer struct {
	MaxInvalidFraction float64
	log                zerolog.Logger
}

// NewNormalizer creates a strict normalizer.
func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{
		log: log.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize coerces raw rows into a canonical Series for one symbol.
// Rows are sorted by timestamp and deduplicated (last seen wins). Empty
// input yields an empty Series and no error. The transformation is pure:
// the input rows are never modified.
func (n *Normalizer) Normalize(
	symbol string,
	rows []map[string]any,
	fm FieldMap,
	class domain.AssetClass,
	interval domain.Interval,
) (domain.Series, error) {
	out := domain.Series{Symbol: symbol, AssetClass: class, Interval: interval}

	if err := fm.Validate(); err != nil {
		return domain.Series{}, err
	}
	if len(rows) == 0 {
		return out, nil
	}

	bars := make([]domain.Bar, 0, len(rows))
	invalid := 0
	var firstErr error

	for i, row := range rows {
		bar, err := coerceBar(row, fm)
		if err == nil {
			err = bar.Validate()
		}
		if err != nil {
			invalid++
			if firstErr == nil {
				firstErr = fmt.Errorf("row %d: %w", i, err)
			}
			continue
		}
		bars = append(bars, bar)
	}

	if frac := float64(invalid) / float64(len(rows)); invalid > 0 && frac > n.MaxInvalidFraction {
		return domain.Series{}, &domain.NormalizationError{
			Symbol: symbol,
			Reason: fmt.Sprintf("%d of %d rows invalid (%.1f%% > %.1f%% allowed): %v",
				invalid, len(rows), frac*100, n.MaxInvalidFraction*100, firstErr),
		}
	}
	if invalid > 0 {
		n.log.Warn().
			Str("symbol", symbol).
			Int("dropped", invalid).
			Int("total", len(rows)).
			Msg("Dropped invalid rows during normalization")
	}

	// Sort ascending; stable so that for duplicate timestamps the later
	// raw row survives the dedupe below.
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	deduped := bars[:0:0]
	for _, b := range bars {
		if len(deduped) > 0 && deduped[len(deduped)-1].Time.Equal(b.Time) {
			deduped[len(deduped)-1] = b
			continue
		}
		deduped = append(deduped, b)
	}

	out.Bars = deduped
	if err := out.CheckMonotonic(); err != nil {
		return domain.Series{}, &domain.NormalizationError{Symbol: symbol, Field: "timestamp", Reason: err.Error()}
	}
	return out, nil
}

func coerceBar(row map[string]any, fm FieldMap) (domain.Bar, error) {
	var bar domain.Bar
	var err error

	if bar.Time, err = coerceTime(row[fm.Time]); err != nil {
		return bar, fmt.Errorf("field %s: %w", fm.Time, err)
	}
	if bar.Open, err = coerceFloat(row[fm.Open]); err != nil {
		return bar, fmt.Errorf("field %s: %w", fm.Open, err)
	}
	if bar.High, err = coerceFloat(row[fm.High]); err != nil {
		return bar, fmt.Errorf("field %s: %w", fm.High, err)
	}
	if bar.Low, err = coerceFloat(row[fm.Low]); err != nil {
		return bar, fmt.Errorf("field %s: %w", fm.Low, err)
	}
	if bar.Close, err = coerceFloat(row[fm.Close]); err != nil {
		return bar, fmt.Errorf("field %s: %w", fm.Close, err)
	}

	if fm.Volume != "" {
		if raw, present := row[fm.Volume]; present && raw != nil {
			v, err := coerceFloat(raw)
			if err != nil {
				return bar, fmt.Errorf("field %s: %w", fm.Volume, err)
			}
			bar.Volume = &v
		}
	}
	return bar, nil
}

// coerceFloat accepts the numeric renderings connectors actually emit:
// Go numerics, json.Number and strings, including the Turkish convention
// of dot thousands separators with a comma decimal ("1.234,56").
func coerceFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("non-finite value")
		}
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return coerceFloat(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fmt.Errorf("empty value")
		}
		// Turkish format: 1.234,56
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable number %q", v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("unsupported value type %T", raw)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006", // Turkish date format
}

// coerceTime accepts time.Time, formatted strings and unix timestamps
// (seconds or milliseconds). All results are normalized to UTC.
func coerceTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("missing timestamp")
	case time.Time:
		return v.UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unixToTime(n), nil
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
	case int64:
		return unixToTime(v), nil
	case int:
		return unixToTime(int64(v)), nil
	case float64:
		return unixToTime(int64(v)), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable timestamp %q", v)
		}
		return unixToTime(n), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", raw)
}

// unixToTime treats values past the year-33658 boundary in seconds as
// millisecond timestamps.
func unixToTime(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
