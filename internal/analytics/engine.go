// Package analytics computes the derived dashboard views from a filtered
// record set. Every view is an independent, pure, stateless transform;
// views never read each other's output, and all of them degrade to empty
// series or zero totals on an empty input instead of failing. Input
// sanitation is the loader's job, not ours.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"salesdash/pkg/contracts/domain"
)

// DefaultTopN is how many customers the stock ranking keeps.
const DefaultTopN = 10

// DefaultThresholdFraction is applied when the caller supplies no margin
// threshold at all. An explicit zero is honored as zero, it does not fall
// back here.
const DefaultThresholdFraction = 0.10

// Engine computes dashboard views. It carries no state between calls.
type Engine struct {
	logger *slog.Logger
	topN   int
}

// NewEngine creates an engine. topN <= 0 selects DefaultTopN.
func NewEngine(logger *slog.Logger, topN int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Engine{logger: logger, topN: topN}
}

// Recompute produces the full view bundle for one filtered record set.
// The bundle replaces whatever the caller displayed before as a whole;
// there are no partial refreshes. Totals are always recomputed from the
// records, never carried forward incrementally.
func (e *Engine) Recompute(ctx context.Context, records []domain.Record, thresholdFraction float64) domain.DashboardViews {
	start := time.Now()

	views := domain.DashboardViews{
		Trend:             e.Trend(records),
		TopStock:          e.TopStock(records, e.topN),
		CashExpense:       e.CashExpense(records),
		SegmentAverages:   e.SegmentAverages(records),
		CustomerSummaries: e.CustomerSummaries(records, thresholdFraction),
		YearMonthSales:    e.YearMonthSales(records),
		KPIs:              e.KPIs(records),
		ThresholdFraction: thresholdFraction,
		RowCount:          len(records),
	}

	e.logger.DebugContext(ctx, "views recomputed",
		slog.Int("rows", len(records)),
		slog.Float64("threshold_fraction", thresholdFraction),
		slog.Duration("elapsed", time.Since(start)))

	return views
}

// Trend sums sales per day. Rows with missing or non-positive sales are
// excluded before grouping: refunds and voids do not belong in the trend.
func (e *Engine) Trend(records []domain.Record) []domain.TrendPoint {
	byDay := make(map[time.Time]float64)
	for _, r := range records {
		if !r.HasSales() || r.SalesValue() <= 0 {
			continue
		}
		day := r.Date
		byDay[day] += r.SalesValue()
	}

	points := make([]domain.TrendPoint, 0, len(byDay))
	for day, sales := range byDay {
		points = append(points, domain.TrendPoint{Date: day, Sales: sales})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}

// TopStock ranks customers by summed stock, descending, truncated to n.
// Ties keep the order customers were first encountered in the dataset.
// Fewer than n distinct customers returns all of them.
func (e *Engine) TopStock(records []domain.Record, n int) []domain.CustomerStock {
	if n <= 0 {
		n = e.topN
	}

	totals := make(map[string]int64)
	order := make([]string, 0)
	for _, r := range records {
		if _, seen := totals[r.Customer]; !seen {
			order = append(order, r.Customer)
		}
		totals[r.Customer] += r.Stock
	}

	ranked := make([]domain.CustomerStock, 0, len(order))
	for _, customer := range order {
		ranked = append(ranked, domain.CustomerStock{Customer: customer, Stock: totals[customer]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Stock > ranked[j].Stock })

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// CashExpense sums collections and expense over the set. Missing cells
// contribute nothing.
func (e *Engine) CashExpense(records []domain.Record) domain.CashExpenseTotals {
	var totals domain.CashExpenseTotals
	for _, r := range records {
		totals.Collections += r.CollectionsValue()
		totals.Expense += r.ExpenseValue()
	}
	return totals
}

// SegmentAverages computes mean sales and mean collections per segment.
// Means, not sums: the chart contrasts typical deal size, not volume.
// Missing cells are excluded from their column's mean.
func (e *Engine) SegmentAverages(records []domain.Record) []domain.SegmentAverage {
	type acc struct {
		salesSum, collectionsSum     float64
		salesCount, collectionsCount int
	}
	bySegment := make(map[string]*acc)
	for _, r := range records {
		a := bySegment[r.Segment]
		if a == nil {
			a = &acc{}
			bySegment[r.Segment] = a
		}
		if r.Sales != nil {
			a.salesSum += *r.Sales
			a.salesCount++
		}
		if r.Collections != nil {
			a.collectionsSum += *r.Collections
			a.collectionsCount++
		}
	}

	averages := make([]domain.SegmentAverage, 0, len(bySegment))
	for segment, a := range bySegment {
		avg := domain.SegmentAverage{Segment: segment}
		if a.salesCount > 0 {
			avg.MeanSales = a.salesSum / float64(a.salesCount)
		}
		if a.collectionsCount > 0 {
			avg.MeanCollections = a.collectionsSum / float64(a.collectionsCount)
		}
		averages = append(averages, avg)
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].Segment < averages[j].Segment })
	return averages
}

// CustomerSummaries rolls records up per customer for the profit scatter.
//
// Per-row profit is collections - expense with missing cells contributing
// zero, and the aggregate profit is the sum of those per-row profits, so
// it equals sum(collections) - sum(expense) regardless of how many rows
// have an undefined margin. Per-row margin is profit/sales, undefined for
// zero or missing sales, clamped to [-1, 1] before averaging so a single
// outlier row cannot dominate the mean.
//
// A customer is below threshold when total profit < thresholdFraction *
// total sales; sitting exactly on the bar counts as at-or-above.
func (e *Engine) CustomerSummaries(records []domain.Record, thresholdFraction float64) []domain.CustomerSummary {
	type acc struct {
		summary      domain.CustomerSummary
		marginSum    float64
		marginCount  int
		segmentCount map[string]int
		segmentOrder []string
	}

	byCustomer := make(map[string]*acc)
	order := make([]string, 0)
	for _, r := range records {
		a := byCustomer[r.Customer]
		if a == nil {
			a = &acc{summary: domain.CustomerSummary{Customer: r.Customer}, segmentCount: make(map[string]int)}
			byCustomer[r.Customer] = a
			order = append(order, r.Customer)
		}

		a.summary.TotalSales += r.SalesValue()
		a.summary.TotalCollections += r.CollectionsValue()
		a.summary.TotalExpense += r.ExpenseValue()

		profit := r.CollectionsValue() - r.ExpenseValue()
		a.summary.Profit += profit

		if margin, ok := rowMargin(profit, r); ok {
			a.marginSum += margin
			a.marginCount++
		}

		if _, seen := a.segmentCount[r.Segment]; !seen {
			a.segmentOrder = append(a.segmentOrder, r.Segment)
		}
		a.segmentCount[r.Segment]++
	}

	summaries := make([]domain.CustomerSummary, 0, len(order))
	for _, customer := range order {
		a := byCustomer[customer]
		if a.marginCount > 0 {
			a.summary.MeanMargin = a.marginSum / float64(a.marginCount)
			a.summary.MarginDefined = true
		}
		a.summary.Segment = dominantSegment(a.segmentCount, a.segmentOrder)
		a.summary.BelowThreshold = a.summary.Profit < thresholdFraction*a.summary.TotalSales
		summaries = append(summaries, a.summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Customer < summaries[j].Customer })
	return summaries
}

// rowMargin computes the clamped per-row margin. Division by zero and
// infinite results are undefined, excluded from the mean rather than
// counted as zero.
func rowMargin(profit float64, r domain.Record) (float64, bool) {
	if !r.HasSales() || r.SalesValue() == 0 {
		return 0, false
	}
	margin := profit / r.SalesValue()
	if math.IsInf(margin, 0) || math.IsNaN(margin) {
		return 0, false
	}
	return clamp(margin, -1, 1), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dominantSegment picks the most frequent segment; frequency ties go to
// the segment encountered first.
func dominantSegment(counts map[string]int, order []string) string {
	best := ""
	bestCount := -1
	for _, segment := range order {
		if counts[segment] > bestCount {
			best = segment
			bestCount = counts[segment]
		}
	}
	return best
}

// YearMonthSales sums sales per calendar (year, month) bucket so the same
// month can be compared across years.
func (e *Engine) YearMonthSales(records []domain.Record) []domain.YearMonthSales {
	type key struct {
		year  int
		month int
	}
	totals := make(map[key]float64)
	for _, r := range records {
		if r.Sales == nil {
			continue
		}
		k := key{year: r.Date.Year(), month: int(r.Date.Month())}
		totals[k] += *r.Sales
	}

	buckets := make([]domain.YearMonthSales, 0, len(totals))
	for k, sales := range totals {
		buckets = append(buckets, domain.YearMonthSales{Year: k.year, Month: k.month, Sales: sales})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Year != buckets[j].Year {
			return buckets[i].Year < buckets[j].Year
		}
		return buckets[i].Month < buckets[j].Month
	})
	return buckets
}

// KPIs computes the four headline totals over the filtered set. They are
// recomputed from scratch on every call; incremental updates would drift.
func (e *Engine) KPIs(records []domain.Record) domain.KPITotals {
	var kpis domain.KPITotals
	for _, r := range records {
		kpis.Sales += r.SalesValue()
		kpis.Collections += r.CollectionsValue()
		kpis.Expense += r.ExpenseValue()
	}
	kpis.Net = kpis.Collections - kpis.Expense
	return kpis
}
