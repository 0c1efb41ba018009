package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordMissingCellsStayDistinguishable(t *testing.T) {
	missing := Record{Customer: "C1"}
	zero := Record{Customer: "C2", Sales: Amount(0)}

	assert.False(t, missing.HasSales())
	assert.True(t, zero.HasSales())

	// Both read as 0, but only via the accessor; the pointer keeps the
	// difference for aggregation code that must skip missing cells.
	assert.Zero(t, missing.SalesValue())
	assert.Zero(t, zero.SalesValue())
	assert.Zero(t, missing.CollectionsValue())
	assert.Zero(t, missing.ExpenseValue())
}

func TestNewDatasetDerivesBounds(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC) }

	ds := NewDataset([]Record{
		{Date: day(15)},
		{Date: day(3)},
		{Date: day(28)},
	})

	assert.Equal(t, day(3), ds.MinDate)
	assert.Equal(t, day(28), ds.MaxDate)
	assert.Equal(t, 3, ds.Len())
}

func TestNewDatasetEmpty(t *testing.T) {
	ds := NewDataset(nil)
	assert.True(t, ds.MinDate.IsZero())
	assert.True(t, ds.MaxDate.IsZero())
	assert.Zero(t, ds.Len())
}

func TestDatasetLenNil(t *testing.T) {
	var ds *Dataset
	assert.Zero(t, ds.Len())
}

func TestFilterSpecIsUnrestricted(t *testing.T) {
	assert.True(t, FilterSpec{}.IsUnrestricted())

	now := time.Now()
	tests := []struct {
		name string
		spec FilterSpec
	}{
		{"from set", FilterSpec{From: now}},
		{"to set", FilterSpec{To: now}},
		{"segments set", FilterSpec{Segments: []string{"A"}}},
		{"customers set", FilterSpec{Customers: []string{"C1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.spec.IsUnrestricted())
		})
	}
}
