// Package portfolio implements multi-asset portfolio valuation: position
// bookkeeping, consolidated value and P&L views, historical value series
// and delegation to the risk analytics module.
package portfolio

import (
	"time"

	"github.com/ysncmn/borsapy/internal/domain"
)

// DefaultBenchmark is the index used for beta/alpha when none is set.
const DefaultBenchmark = "XU100"

// Position is one holding: a symbol, its asset class, a positive share
// count and an optional cost basis per share. When cost is nil at add
// time it is recorded at the current market price.
type Position struct {
	Symbol       string            `json:"symbol"`
	AssetClass   domain.AssetClass `json:"asset_class"`
	Shares       float64           `json:"shares"`
	CostPerShare *float64          `json:"cost_per_share,omitempty"`
}

// Holding is the derived per-position view row. When the price resolver
// fails for the symbol, Resolved is false and the numeric fields are nil
// instead of aborting the whole view.
type Holding struct {
	Symbol       string            `json:"symbol"`
	AssetClass   domain.AssetClass `json:"asset_class"`
	Shares       float64           `json:"shares"`
	CostPerShare *float64          `json:"cost_per_share,omitempty"`
	CurrentPrice *float64          `json:"current_price,omitempty"`
	Value        *float64          `json:"value,omitempty"`
	Weight       *float64          `json:"weight,omitempty"`
	PnL          *float64          `json:"pnl,omitempty"`
	PnLPct       *float64          `json:"pnl_pct,omitempty"`
	Resolved     bool              `json:"resolved"`
}

// HoldingsView is the consolidated portfolio snapshot. Warnings carries
// one entry per position that could not be resolved.
type HoldingsView struct {
	Rows       []Holding `json:"rows"`
	TotalValue float64   `json:"total_value"`
	TotalCost  float64   `json:"total_cost"`
	TotalPnL   float64   `json:"total_pnl"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// HistoryPoint is one observation of the aggregated portfolio value.
// DailyReturn is NaN for the first point.
type HistoryPoint struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	DailyReturn float64   `json:"daily_return"`
}

// CorrelationMatrix is the pairwise Pearson correlation of the
// positions' aligned return series. It is symmetric with a unit
// diagonal. Cells for zero-variance series are NaN and are translated
// to null at the HTTP boundary.
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols"`
	Values  [][]float64 `json:"values"`
}

// Document is the flat persisted form of a portfolio. Export followed by
// import reproduces an equal portfolio.
type Document struct {
	Benchmark string            `json:"benchmark"`
	Holdings  []DocumentHolding `json:"holdings"`
}

// DocumentHolding is one persisted position.
type DocumentHolding struct {
	Symbol       string   `json:"symbol"`
	Shares       float64  `json:"shares"`
	CostPerShare *float64 `json:"cost_per_share"`
	AssetClass   string   `json:"asset_class"`
}
