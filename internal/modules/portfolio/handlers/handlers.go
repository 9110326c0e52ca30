// Package handlers provides HTTP handlers for portfolio operations.
package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ysncmn/borsapy/internal/domain"
	"github.com/ysncmn/borsapy/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	service *portfolio.Service
	repo    *portfolio.Repository
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(service *portfolio.Service, repo *portfolio.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type addPositionRequest struct {
	Symbol       string   `json:"symbol"`
	Shares       float64  `json:"shares"`
	CostPerShare *float64 `json:"cost_per_share,omitempty"`
	AssetClass   string   `json:"asset_class,omitempty"`
}

// HandleAddPosition handles POST /api/portfolio/positions
func (h *Handler) HandleAddPosition(w http.ResponseWriter, r *http.Request) {
	var req addPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Symbol == "" {
		h.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	opts := portfolio.AddOptions{CostPerShare: req.CostPerShare}
	if req.AssetClass != "" {
		class, err := domain.ParseAssetClass(req.AssetClass)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.AssetClass = &class
	}

	if err := h.service.Add(r.Context(), req.Symbol, req.Shares, opts); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"symbols": h.service.Symbols(),
	})
}

type updatePositionRequest struct {
	Shares       *float64 `json:"shares,omitempty"`
	CostPerShare *float64 `json:"cost_per_share,omitempty"`
}

// HandleUpdatePosition handles PUT /api/portfolio/positions/{symbol}
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request, symbol string) {
	var req updatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.Update(symbol, req.Shares, req.CostPerShare); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// HandleRemovePosition handles DELETE /api/portfolio/positions/{symbol}
func (h *Handler) HandleRemovePosition(w http.ResponseWriter, r *http.Request, symbol string) {
	h.service.Remove(symbol)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// HandleClear handles DELETE /api/portfolio/positions
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear()
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleGetHoldings handles GET /api/portfolio/holdings
func (h *Handler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Holdings(r.Context()))
}

type historyPoint struct {
	Date        string   `json:"date"`
	Value       float64  `json:"value"`
	DailyReturn *float64 `json:"daily_return"`
}

// HandleGetHistory handles GET /api/portfolio/history
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	period, ok := h.queryPeriod(w, r)
	if !ok {
		return
	}

	points, err := h.service.History(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	out := make([]historyPoint, len(points))
	for i, p := range points {
		out[i] = historyPoint{Date: p.Date.Format("2006-01-02"), Value: p.Value}
		if !math.IsNaN(p.DailyReturn) {
			ret := p.DailyReturn
			out[i].DailyReturn = &ret
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":  string(period),
		"history": out,
	})
}

// HandleGetRisk handles GET /api/portfolio/risk
func (h *Handler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	period, ok := h.queryPeriod(w, r)
	if !ok {
		return
	}

	opts := portfolio.RiskOptions{}
	if raw := r.URL.Query().Get("risk_free_rate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid risk_free_rate")
			return
		}
		opts.RiskFreeRate = &rate
	}
	if raw := r.URL.Query().Get("trading_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			h.writeError(w, http.StatusBadRequest, "invalid trading_days")
			return
		}
		opts.PeriodsPerYear = days
	}

	metrics, err := h.service.RiskMetrics(r.Context(), period, opts)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":    string(period),
		"benchmark": h.service.Benchmark(),
		"metrics":   metrics,
	})
}

// HandleGetCorrelations handles GET /api/portfolio/correlations
func (h *Handler) HandleGetCorrelations(w http.ResponseWriter, r *http.Request) {
	period, ok := h.queryPeriod(w, r)
	if !ok {
		return
	}
	matrix, err := h.service.CorrelationMatrix(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	// Zero-variance return series make individual cells undefined; those
	// render as null rather than NaN.
	resp := correlationResponse{
		Symbols: matrix.Symbols,
		Values:  make([][]*float64, len(matrix.Values)),
	}
	for i, row := range matrix.Values {
		resp.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				c := v
				resp.Values[i][j] = &c
			}
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type correlationResponse struct {
	Symbols []string     `json:"symbols"`
	Values  [][]*float64 `json:"values"`
}

type benchmarkRequest struct {
	Index string `json:"index"`
}

// HandleSetBenchmark handles PUT /api/portfolio/benchmark
func (h *Handler) HandleSetBenchmark(w http.ResponseWriter, r *http.Request) {
	var req benchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == "" {
		h.writeError(w, http.StatusBadRequest, "index is required")
		return
	}
	h.service.SetBenchmark(req.Index)
	h.writeJSON(w, http.StatusOK, map[string]string{"benchmark": h.service.Benchmark()})
}

// HandleExport handles GET /api/portfolio/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.ToDocument())
}

// HandleImport handles POST /api/portfolio/import
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var doc portfolio.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid portfolio document")
		return
	}
	if err := h.service.Restore(doc); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols": h.service.Symbols(),
	})
}

type saveRequest struct {
	Name string `json:"name"`
}

// HandleSave handles POST /api/portfolio/save
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	id, err := h.repo.Save(r.Context(), req.Name, h.service.ToDocument())
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to save portfolio")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id, "name": req.Name})
}

// HandleListSaved handles GET /api/portfolio/saved
func (h *Handler) HandleListSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.repo.List(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"portfolios": saved})
}

// HandleLoad handles POST /api/portfolio/load/{name}
func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request, name string) {
	doc, err := h.repo.Load(r.Context(), name)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err := h.service.Restore(doc); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    name,
		"symbols": h.service.Symbols(),
	})
}

// HandleDeleteSaved handles DELETE /api/portfolio/saved/{name}
func (h *Handler) HandleDeleteSaved(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.repo.Delete(r.Context(), name); err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) queryPeriod(w http.ResponseWriter, r *http.Request) (domain.Period, bool) {
	period := domain.Period1y
	if raw := r.URL.Query().Get("period"); raw != "" {
		parsed, err := domain.ParsePeriod(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return "", false
		}
		period = parsed
	}
	return period, true
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
	var normErr *domain.NormalizationError
	var resErr *domain.ResolutionError
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &classErr):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &normErr):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &resErr):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
