package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"salesdash/pkg/contracts/domain"
)

// recordHeaders is the column order for record exports.
var recordHeaders = []string{"date", "customer", "segment", "sales", "collections", "expense", "stock"}

// customerHeaders is the column order for customer summary exports.
var customerHeaders = []string{"customer", "segment", "total_sales", "total_collections", "total_expense", "profit", "mean_margin", "below_threshold"}

// CSVExporter streams dashboard data as CSV to an io.Writer,
// typically the HTTP response body.
type CSVExporter struct {
	logger *slog.Logger
}

// NewCSVExporter creates a new CSV exporter instance
func NewCSVExporter(logger *slog.Logger) *CSVExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVExporter{logger: logger}
}

// WriteRecords writes the filtered records as CSV. Missing amounts are
// written as empty cells, not zeros, so the export round-trips through
// the loader without inventing values.
func (e *CSVExporter) WriteRecords(w io.Writer, records []domain.Record) error {
	cw, err := e.begin(w, recordHeaders)
	if err != nil {
		return err
	}

	for i, rec := range records {
		row := []string{
			rec.Date.Format("2006-01-02"),
			rec.Customer,
			rec.Segment,
			formatAmount(rec.Sales),
			formatAmount(rec.Collections),
			formatAmount(rec.Expense),
			formatInt(rec.Stock),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}

	e.logger.Debug("exported records CSV", slog.Int("rows", len(records)))
	return nil
}

// WriteCustomerSummaries writes per-customer profitability rows as CSV.
// An undefined mean margin is written as an empty cell.
func (e *CSVExporter) WriteCustomerSummaries(w io.Writer, summaries []domain.CustomerSummary) error {
	cw, err := e.begin(w, customerHeaders)
	if err != nil {
		return err
	}

	for i, s := range summaries {
		margin := ""
		if s.MarginDefined {
			margin = formatFloat(s.MeanMargin)
		}
		row := []string{
			s.Customer,
			s.Segment,
			formatFloat(s.TotalSales),
			formatFloat(s.TotalCollections),
			formatFloat(s.TotalExpense),
			formatFloat(s.Profit),
			margin,
			formatBool(s.BelowThreshold),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write summary %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush summaries: %w", err)
	}

	e.logger.Debug("exported customer summaries CSV", slog.Int("rows", len(summaries)))
	return nil
}

// begin writes the BOM and header row and returns the csv writer.
func (e *CSVExporter) begin(w io.Writer, headers []string) (*csv.Writer, error) {
	// BOM helps Excel recognize UTF-8
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	return cw, nil
}
