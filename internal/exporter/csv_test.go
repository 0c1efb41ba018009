package exporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/pkg/contracts/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWriteRecords(t *testing.T) {
	records := []domain.Record{
		{
			Date:        date(2024, time.March, 1),
			Customer:    "Müşteri_1",
			Segment:     "A",
			Sales:       domain.Amount(1500.5),
			Collections: domain.Amount(1200),
			Expense:     domain.Amount(300),
			Stock:       40,
		},
		{
			Date:     date(2024, time.March, 2),
			Customer: "Müşteri_2",
			Segment:  "B",
			// amounts missing
			Stock: 10,
		},
	}

	var buf bytes.Buffer
	e := NewCSVExporter(nil)
	require.NoError(t, e.WriteRecords(&buf, records))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "output should start with UTF-8 BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,customer,segment,sales,collections,expense,stock", lines[0])
	assert.Equal(t, "2024-03-01,Müşteri_1,A,1500.50,1200.00,300.00,40", lines[1])
	// missing amounts stay empty, not zero
	assert.Equal(t, "2024-03-02,Müşteri_2,B,,,,10", lines[2])
}

func TestWriteRecordsEmpty(t *testing.T) {
	var buf bytes.Buffer
	e := NewCSVExporter(nil)
	require.NoError(t, e.WriteRecords(&buf, nil))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")), "\n")
	assert.Len(t, lines, 1, "header only")
}

func TestWriteCustomerSummaries(t *testing.T) {
	summaries := []domain.CustomerSummary{
		{
			Customer:         "Müşteri_1",
			Segment:          "A",
			TotalSales:       1000,
			TotalCollections: 900,
			TotalExpense:     200,
			Profit:           700,
			MeanMargin:       0.7,
			MarginDefined:    true,
			BelowThreshold:   false,
		},
		{
			Customer:         "Müşteri_2",
			Segment:          "B",
			TotalSales:       0,
			TotalCollections: 50,
			TotalExpense:     80,
			Profit:           -30,
			MarginDefined:    false,
			BelowThreshold:   true,
		},
	}

	var buf bytes.Buffer
	e := NewCSVExporter(nil)
	require.NoError(t, e.WriteCustomerSummaries(&buf, summaries))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "customer,segment,total_sales,total_collections,total_expense,profit,mean_margin,below_threshold", lines[0])
	assert.Equal(t, "Müşteri_1,A,1000.00,900.00,200.00,700.00,0.70,false", lines[1])
	// undefined margin exports as an empty cell
	assert.Equal(t, "Müşteri_2,B,0.00,50.00,80.00,-30.00,,true", lines[2])
}
