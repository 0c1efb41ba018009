package domain

import (
	"time"
)

// Record represents one validated transaction row of the source dataset.
// Monetary columns are pointers so a cell that failed numeric coercion
// stays distinguishable from an actual zero: missing cells are excluded
// from sums and means instead of dragging them toward zero.
type Record struct {
	Date        time.Time `json:"date"`
	Customer    string    `json:"customer"`
	Segment     string    `json:"segment"`
	Sales       *float64  `json:"sales,omitempty"`
	Collections *float64  `json:"collections,omitempty"`
	Expense     *float64  `json:"expense,omitempty"`
	Stock       int64     `json:"stock"`
}

// HasSales reports whether the sales cell carries a value.
func (r Record) HasSales() bool { return r.Sales != nil }

// SalesValue returns the sales amount, or 0 when the cell is missing.
func (r Record) SalesValue() float64 { return deref(r.Sales) }

// CollectionsValue returns the collections amount, or 0 when missing.
func (r Record) CollectionsValue() float64 { return deref(r.Collections) }

// ExpenseValue returns the expense amount, or 0 when missing.
func (r Record) ExpenseValue() float64 { return deref(r.Expense) }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Amount builds a *float64 cell value. Convenience for loaders and tests.
func Amount(v float64) *float64 { return &v }

// Dataset is an ordered, immutable collection of records plus the date
// bounds derived from it. A re-upload replaces the whole dataset; records
// are never mutated in place.
type Dataset struct {
	Records []Record  `json:"records"`
	MinDate time.Time `json:"min_date"`
	MaxDate time.Time `json:"max_date"`
}

// NewDataset builds a dataset and derives its date bounds from the given
// records. Bounds are zero when the dataset is empty.
func NewDataset(records []Record) *Dataset {
	ds := &Dataset{Records: records}
	for _, r := range records {
		if ds.MinDate.IsZero() || r.Date.Before(ds.MinDate) {
			ds.MinDate = r.Date
		}
		if ds.MaxDate.IsZero() || r.Date.After(ds.MaxDate) {
			ds.MaxDate = r.Date
		}
	}
	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// FilterSpec is the tuple of active constraints applied to a dataset.
// Zero From/To dates mean "unbounded on that side" and are defaulted from
// the unfiltered dataset's bounds. Empty segment or customer selections
// mean "no restriction on that dimension", not "match nothing".
type FilterSpec struct {
	From      time.Time `json:"from,omitempty"`
	To        time.Time `json:"to,omitempty"`
	Segments  []string  `json:"segments,omitempty"`
	Customers []string  `json:"customers,omitempty"`
}

// IsUnrestricted reports whether the spec applies no constraint at all.
func (f FilterSpec) IsUnrestricted() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.Segments) == 0 && len(f.Customers) == 0
}
