package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysncmn/borsapy/internal/domain"
)

type stubResolver struct{}

func (stubResolver) CurrentPrice(_ context.Context, symbol string, _ domain.AssetClass) (float64, error) {
	return 0, fmt.Errorf("unknown symbol %s", symbol)
}

func (stubResolver) History(_ context.Context, symbol string, class domain.AssetClass, _ domain.Period, _ domain.Interval) (domain.Series, error) {
	if symbol != "THYAO" {
		return domain.Series{}, &domain.ResolutionError{Symbol: symbol, Err: fmt.Errorf("no stored bars")}
	}
	out := domain.Series{Symbol: symbol, AssetClass: class, Interval: domain.Interval1d}
	for i := 0; i < 30; i++ {
		c := 100 + float64(i)
		out.Bars = append(out.Bars, domain.Bar{
			Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c,
		})
	}
	return out, nil
}

func newTestRouter() *chi.Mux {
	r := chi.NewRouter()
	NewHandler(stubResolver{}, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListIndicators(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/indicators/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rsi")
	assert.Contains(t, rec.Body.String(), "vwap")
}

func TestComputeFromStore(t *testing.T) {
	r := newTestRouter()
	rec := post(t, r, "/indicators/compute", map[string]any{
		"symbol":     "THYAO",
		"indicators": []string{"sma", "rsi"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Symbol  string                `json:"symbol"`
		Columns []string              `json:"columns"`
		Values  map[string][]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "THYAO", resp.Symbol)
	assert.Contains(t, resp.Columns, "sma")

	// Warm-up prefix rendered as JSON null, not NaN.
	require.Len(t, resp.Values["sma"], 30)
	assert.Nil(t, resp.Values["sma"][0])
	assert.NotNil(t, resp.Values["sma"][29])
}

func TestComputeFromInlineRows(t *testing.T) {
	r := newTestRouter()

	rows := make([]map[string]any, 10)
	for i := range rows {
		c := 10.0 + float64(i)
		rows[i] = map[string]any{
			"time": fmt.Sprintf("2024-03-%02d", i+1),
			"open": c, "high": c + 1, "low": c - 1, "close": c,
		}
	}

	rec := post(t, r, "/indicators/compute", map[string]any{
		"symbol":     "CUSTOM1",
		"indicators": []string{"sma"},
		"params":     map[string]any{"sma_period": 3},
		"rows":       rows,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Values map[string][]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Values["sma"], 10)
	require.NotNil(t, resp.Values["sma"][2])
	assert.InDelta(t, 11.0, *resp.Values["sma"][2], 1e-9)
}

func TestComputeMalformedRows(t *testing.T) {
	r := newTestRouter()
	rec := post(t, r, "/indicators/compute", map[string]any{
		"symbol":     "CUSTOM1",
		"indicators": []string{"sma"},
		"rows": []map[string]any{
			{"time": "2024-03-01", "open": 10, "high": 5, "low": 9, "close": 10},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestComputeUnknownIndicatorName(t *testing.T) {
	r := newTestRouter()
	rec := post(t, r, "/indicators/compute", map[string]any{
		"symbol":     "THYAO",
		"indicators": []string{"ichimoku"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeUnresolvableSymbol(t *testing.T) {
	r := newTestRouter()
	rec := post(t, r, "/indicators/compute", map[string]any{
		"symbol":     "GARAN",
		"indicators": []string{"sma"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestComputeMissingFields(t *testing.T) {
	r := newTestRouter()
	rec := post(t, r, "/indicators/compute", map[string]any{"symbol": "THYAO"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
