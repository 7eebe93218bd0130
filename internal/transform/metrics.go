package transform

import (
	"github.com/shopspring/decimal"

	"salesetl/internal/sales"
)

// RunMetrics accumulates per-run counters. Revenue and profit sums use
// decimal arithmetic so long files do not drift.
type RunMetrics struct {
	RowsRead        int64
	RowsTransformed int64
	RowsSkipped     int64
	DistinctIDs     int
	SumRevenue      decimal.Decimal
	SumProfit       decimal.Decimal
}

// Add counts r as transformed and adds its revenue and profit.
func (m *RunMetrics) Add(r sales.Row) {
	m.RowsTransformed++
	m.SumRevenue = m.SumRevenue.Add(decimal.NewFromFloat(r.TotalRevenue))
	m.SumProfit = m.SumProfit.Add(decimal.NewFromFloat(r.TotalProfit))
}

// Averages returns mean revenue and profit per transformed row, or zeros
// when nothing was transformed.
func (m *RunMetrics) Averages() (avgRevenue, avgProfit float64) {
	if m.RowsTransformed == 0 {
		return 0, 0
	}
	n := decimal.NewFromInt(m.RowsTransformed)
	avgRevenue, _ = m.SumRevenue.Div(n).Float64()
	avgProfit, _ = m.SumProfit.Div(n).Float64()
	return avgRevenue, avgProfit
}
