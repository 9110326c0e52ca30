// Package handlers provides HTTP handlers for per-symbol risk and
// return analytics.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
	"github.com/ysncmn/borsapy/internal/modules/analytics"
	"github.com/ysncmn/borsapy/internal/modules/portfolio"
	"github.com/ysncmn/borsapy/pkg/formulas"
)

// Handler handles analytics HTTP requests.
type Handler struct {
	resolver    domain.PriceResolver
	rates       domain.RateProvider
	tradingDays int
	log         zerolog.Logger
}

// NewHandler creates a new analytics handler.
func NewHandler(resolver domain.PriceResolver, rates domain.RateProvider, tradingDays int, log zerolog.Logger) *Handler {
	return &Handler{
		resolver:    resolver,
		rates:       rates,
		tradingDays: tradingDays,
		log:         log.With().Str("handler", "analytics").Logger(),
	}
}

// symbolSeries resolves the request's symbol history, classifying the
// symbol when no asset_class query parameter is given.
func (h *Handler) symbolSeries(r *http.Request, symbol string) (domain.Series, error) {
	var class domain.AssetClass
	if raw := r.URL.Query().Get("asset_class"); raw != "" {
		parsed, err := domain.ParseAssetClass(raw)
		if err != nil {
			return domain.Series{}, err
		}
		class = parsed
	} else {
		inferred, err := portfolio.Classify(symbol)
		if err != nil {
			return domain.Series{}, err
		}
		class = inferred
	}

	period := domain.Period1y
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := domain.ParsePeriod(raw)
		if err != nil {
			return domain.Series{}, err
		}
		period = parsed
	}

	return h.resolver.History(r.Context(), symbol, class, period, domain.Interval1d)
}

// HandleGetReturns handles GET /api/analytics/{symbol}/returns
func (h *Handler) HandleGetReturns(w http.ResponseWriter, r *http.Request, symbol string) {
	series, err := h.symbolSeries(r, symbol)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	method := analytics.MethodSimple
	if raw := r.URL.Query().Get("method"); raw != "" {
		method = analytics.Method(raw)
	}

	returns, err := analytics.Returns(series, method)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dates := make([]string, returns.Len())
	values := make([]*float64, returns.Len())
	for i := range returns.Values {
		dates[i] = returns.Dates[i].UTC().Format("2006-01-02")
		if !math.IsNaN(returns.Values[i]) {
			v := returns.Values[i]
			values[i] = &v
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"method":  string(method),
		"dates":   dates,
		"returns": values,
	})
}

// HandleGetRisk handles GET /api/analytics/{symbol}/risk
func (h *Handler) HandleGetRisk(w http.ResponseWriter, r *http.Request, symbol string) {
	series, err := h.symbolSeries(r, symbol)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	returns, err := analytics.Returns(series, analytics.MethodSimple)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	riskFree := 0.0
	if raw := r.URL.Query().Get("risk_free_rate"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid risk_free_rate")
			return
		}
		riskFree = parsed
	} else if h.rates != nil {
		rate, err := h.rates.CurrentRate(r.Context())
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		riskFree = rate
	}

	periodsPerYear := h.tradingDays
	if series.AssetClass == domain.AssetCrypto {
		periodsPerYear = analytics.CryptoTradingDays
	}
	if raw := r.URL.Query().Get("trading_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid trading_days")
			return
		}
		periodsPerYear = parsed
	}

	var benchmark analytics.ReturnSeries
	if bench := r.URL.Query().Get("benchmark"); bench != "" {
		period := domain.Period1y
		if raw := r.URL.Query().Get("period"); raw != "" {
			period, _ = domain.ParsePeriod(raw)
		}
		benchSeries, err := h.resolver.History(r.Context(), bench, domain.AssetIndex, period, domain.Interval1d)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		if benchmark, err = analytics.Returns(benchSeries, analytics.MethodSimple); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	metrics := analytics.Metrics(returns, series.Closes(), benchmark, riskFree, periodsPerYear)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"metrics": metrics,
	})
}

// HandleGetDrawdown handles GET /api/analytics/{symbol}/drawdown
func (h *Handler) HandleGetDrawdown(w http.ResponseWriter, r *http.Request, symbol string) {
	series, err := h.symbolSeries(r, symbol)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	closes := series.Closes()
	drawdowns := formulas.DrawdownSeries(closes)
	values := make([]*float64, len(drawdowns))
	for i := range drawdowns {
		if !math.IsNaN(drawdowns[i]) {
			v := drawdowns[i]
			values[i] = &v
		}
	}

	dates := make([]string, series.Len())
	for i, t := range series.Times() {
		dates[i] = t.UTC().Format("2006-01-02")
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":       symbol,
		"dates":        dates,
		"drawdowns":    values,
		"max_drawdown": formulas.MaxDrawdown(closes),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var cfgErr *domain.ConfigurationError
	var classErr *domain.ClassificationError
	var resErr *domain.ResolutionError
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &classErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &resErr):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
