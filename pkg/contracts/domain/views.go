package domain

import (
	"time"
)

// TrendPoint is one day of summed sales in the daily sales trend.
// Rows with non-positive or missing sales are excluded upstream.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Sales float64   `json:"sales"`
}

// CustomerStock is one bar of the top-N stock chart.
type CustomerStock struct {
	Customer string `json:"customer"`
	Stock    int64  `json:"stock"`
}

// CashExpenseTotals feeds the collections-vs-expense pie.
type CashExpenseTotals struct {
	Collections float64 `json:"collections"`
	Expense     float64 `json:"expense"`
}

// SegmentAverage holds mean (not summed) deal sizes for one segment,
// distinguishing typical deal size from raw volume.
type SegmentAverage struct {
	Segment         string  `json:"segment"`
	MeanSales       float64 `json:"mean_sales"`
	MeanCollections float64 `json:"mean_collections"`
}

// CustomerSummary is the per-customer profit/margin roll-up behind the
// profit scatter. Profit is the sum of per-row (collections - expense),
// never re-derived from the summed columns, so it stays consistent even
// when some rows have an undefined margin. MeanMargin averages per-row
// margins clamped to [-1, 1]; MarginDefined is false when every row's
// margin was undefined (zero or missing sales).
type CustomerSummary struct {
	Customer        string  `json:"customer"`
	Segment         string  `json:"segment"`
	TotalSales      float64 `json:"total_sales"`
	TotalCollections float64 `json:"total_collections"`
	TotalExpense    float64 `json:"total_expense"`
	Profit          float64 `json:"profit"`
	MeanMargin      float64 `json:"mean_margin"`
	MarginDefined   bool    `json:"margin_defined"`
	BelowThreshold  bool    `json:"below_threshold"`
}

// YearMonthSales is one (year, month) bucket of the year-over-year
// comparison chart.
type YearMonthSales struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Sales float64 `json:"sales"`
}

// KPITotals are the four headline scalars over the currently filtered
// set. Net is always Collections - Expense.
type KPITotals struct {
	Sales       float64 `json:"sales"`
	Collections float64 `json:"collections"`
	Expense     float64 `json:"expense"`
	Net         float64 `json:"net"`
}

// DashboardViews bundles every derived view of one recomputation pass.
// A pass either produces the full bundle or fails as a whole; views are
// never partially refreshed.
type DashboardViews struct {
	Trend             []TrendPoint      `json:"trend"`
	TopStock          []CustomerStock   `json:"top_stock"`
	CashExpense       CashExpenseTotals `json:"cash_expense"`
	SegmentAverages   []SegmentAverage  `json:"segment_averages"`
	CustomerSummaries []CustomerSummary `json:"customer_summaries"`
	YearMonthSales    []YearMonthSales  `json:"year_month_sales"`
	KPIs              KPITotals         `json:"kpis"`
	ThresholdFraction float64           `json:"threshold_fraction"`
	RowCount          int               `json:"row_count"`
}
