// Package handlers provides HTTP handlers for indicator computation.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
	"github.com/ysncmn/borsapy/internal/modules/indicators"
	"github.com/ysncmn/borsapy/internal/modules/series"
)

// Handler handles indicator HTTP requests.
type Handler struct {
	resolver   domain.PriceResolver
	normalizer *series.Normalizer
	log        zerolog.Logger
}

// NewHandler creates a new indicators handler.
func NewHandler(resolver domain.PriceResolver, log zerolog.Logger) *Handler {
	return &Handler{
		resolver:   resolver,
		normalizer: series.NewNormalizer(log),
		log:        log.With().Str("handler", "indicators").Logger(),
	}
}

// HandleListIndicators handles GET /api/indicators
func (h *Handler) HandleListIndicators(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"indicators": indicators.Names(),
	})
}

type computeRequest struct {
	Symbol     string             `json:"symbol"`
	AssetClass string             `json:"asset_class,omitempty"`
	Period     string             `json:"period,omitempty"`
	Interval   string             `json:"interval,omitempty"`
	Indicators []string           `json:"indicators"`
	Params     *indicators.Params `json:"params,omitempty"`

	// Rows carries raw bar rows inline, bypassing the stored history.
	// They are normalized with FieldMap (canonical field names when
	// omitted) before computation.
	Rows     []map[string]any `json:"rows,omitempty"`
	FieldMap *series.FieldMap `json:"field_map,omitempty"`
}

// computeResponse mirrors indicators.Table with NaN rendered as null,
// which encoding/json cannot do for float64 directly.
type computeResponse struct {
	Symbol  string                `json:"symbol"`
	Times   []int64               `json:"times"`
	Columns []string              `json:"columns"`
	Values  map[string][]*float64 `json:"values"`
}

// HandleCompute handles POST /api/indicators/compute
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" || len(req.Indicators) == 0 {
		h.writeError(w, http.StatusBadRequest, "symbol and indicators are required")
		return
	}

	class := domain.AssetStock
	if req.AssetClass != "" {
		parsed, err := domain.ParseAssetClass(req.AssetClass)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		class = parsed
	}
	period := domain.Period1y
	if req.Period != "" {
		parsed, err := domain.ParsePeriod(req.Period)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		period = parsed
	}
	interval := domain.Interval1d
	if req.Interval != "" {
		parsed, err := domain.ParseInterval(req.Interval)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		interval = parsed
	}

	var src domain.Series
	if len(req.Rows) > 0 {
		fm := defaultFieldMap
		if req.FieldMap != nil {
			fm = *req.FieldMap
		}
		var err error
		src, err = h.normalizer.Normalize(req.Symbol, req.Rows, fm, class, interval)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
	} else {
		var err error
		src, err = h.resolver.History(r.Context(), req.Symbol, class, period, interval)
		if err != nil {
			h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to resolve history")
			h.writeDomainError(w, err)
			return
		}
	}

	params := indicators.DefaultParams()
	if req.Params != nil {
		params = overlayParams(params, *req.Params)
	}

	table, err := indicators.Compute(src, req.Indicators, params)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp := computeResponse{
		Symbol:  table.Symbol,
		Times:   make([]int64, len(table.Times)),
		Columns: table.Columns,
		Values:  make(map[string][]*float64, len(table.Values)),
	}
	for i, t := range table.Times {
		resp.Times[i] = t.UTC().Unix()
	}
	for name, col := range table.Values {
		resp.Values[name] = nullableColumn(col)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// overlayParams applies the request's explicitly-set parameters over the
// defaults, so a partial params object only overrides what it names.
func overlayParams(base, req indicators.Params) indicators.Params {
	if req.SMAPeriod > 0 {
		base.SMAPeriod = req.SMAPeriod
	}
	if req.EMAPeriod > 0 {
		base.EMAPeriod = req.EMAPeriod
	}
	if req.RSIPeriod > 0 {
		base.RSIPeriod = req.RSIPeriod
	}
	if req.MACDFast > 0 {
		base.MACDFast = req.MACDFast
	}
	if req.MACDSlow > 0 {
		base.MACDSlow = req.MACDSlow
	}
	if req.MACDSignal > 0 {
		base.MACDSignal = req.MACDSignal
	}
	if req.BollingerPeriod > 0 {
		base.BollingerPeriod = req.BollingerPeriod
	}
	if req.BollingerStdDev > 0 {
		base.BollingerStdDev = req.BollingerStdDev
	}
	if req.ATRPeriod > 0 {
		base.ATRPeriod = req.ATRPeriod
	}
	if req.StochKPeriod > 0 {
		base.StochKPeriod = req.StochKPeriod
	}
	if req.StochDPeriod > 0 {
		base.StochDPeriod = req.StochDPeriod
	}
	if req.ADXPeriod > 0 {
		base.ADXPeriod = req.ADXPeriod
	}
	return base
}

// defaultFieldMap covers rows that already use the canonical field
// names.
var defaultFieldMap = series.FieldMap{
	Time: "time", Open: "open", High: "high", Low: "low", Close: "close", Volume: "volume",
}

// nullableColumn converts NaN entries to nil so the column survives JSON
// encoding.
func nullableColumn(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			v := values[i]
			out[i] = &v
		}
	}
	return out
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
	var normErr *domain.NormalizationError
	var resErr *domain.ResolutionError
	switch {
	case errors.As(err, &cfgErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &normErr):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &resErr):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
