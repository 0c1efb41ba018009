package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "salesdash/internal/errors"
	"salesdash/pkg/contracts/domain"
)

// Sentinel errors surfaced to the transport layer. Anything else coming
// out of Load is a parsing AppError wrapping the underlying cause.
var (
	// ErrUnsupportedFormat is returned when the file extension is neither
	// CSV nor a spreadsheet.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMissingDateColumn is returned when no date column can be found.
	// Date is the primary filtering key, so its absence is a hard failure.
	ErrMissingDateColumn = errors.New("required date column not found")
	// ErrNoUsableRows is returned when every data row was dropped.
	ErrNoUsableRows = errors.New("file contains no usable rows")
)

// Schema maps logical columns to the header names accepted for them.
// Matching is case-insensitive on trimmed headers. The defaults cover the
// Turkish ERP export headers alongside their English equivalents.
type Schema struct {
	Date        []string
	Customer    []string
	Segment     []string
	Sales       []string
	Collections []string
	Expense     []string
	Stock       []string
}

// DefaultSchema returns the header synonyms for the Mikro ERP export.
func DefaultSchema() Schema {
	return Schema{
		Date:        []string{"tarih", "date"},
		Customer:    []string{"müşteri", "musteri", "customer"},
		Segment:     []string{"segment"},
		Sales:       []string{"satış", "satis", "sales"},
		Collections: []string{"tahsilat", "collections"},
		Expense:     []string{"gider", "expense"},
		Stock:       []string{"stok", "stock"},
	}
}

// dateLayouts are tried in order. DD.MM.YYYY first because that is what
// the ERP exports; ISO second for hand-edited files.
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// Loader parses raw CSV or XLSX bytes into a validated Dataset.
type Loader struct {
	logger *slog.Logger
	schema Schema
}

// NewLoader creates a loader with the given schema. A nil logger falls
// back to slog.Default.
func NewLoader(logger *slog.Logger, schema Schema) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, schema: schema}
}

// Load parses the file contents into a Dataset. The format is selected by
// the filename extension. Rows with an unparseable date are dropped; a
// numeric cell that fails coercion becomes a missing value while the rest
// of the row is kept.
func (l *Loader) Load(filename string, data []byte) (*domain.Dataset, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSVRows(data)
	case ".xlsx":
		rows, err = readSheetRows(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", filename), err)
	}

	ds, dropped, err := l.buildDataset(rows)
	if err != nil {
		return nil, err
	}

	l.logger.Info("dataset loaded",
		slog.String("file", filename),
		slog.Int("rows", ds.Len()),
		slog.Int("dropped", dropped))

	return ds, nil
}

// utf8BOM prefixes CSVs written for Excel, including our own exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSVRows reads all CSV records, tolerating ragged rows. A leading
// UTF-8 BOM is stripped so the first header cell matches the schema.
func readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readSheetRows opens the workbook and returns the rows of the first
// sheet that has more than a bare header.
func readSheetRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) > 1 {
			return rows, nil
		}
	}
	return nil, errors.New("workbook contains no data sheet")
}

// columnIndex holds resolved header positions; -1 means absent.
type columnIndex struct {
	date, customer, segment, sales, collections, expense, stock int
}

func (l *Loader) mapHeader(header []string) columnIndex {
	idx := columnIndex{date: -1, customer: -1, segment: -1, sales: -1, collections: -1, expense: -1, stock: -1}
	match := func(cell string, names []string) bool {
		// XLSX cells can carry a BOM when the sheet came from a CSV import
		cell = strings.TrimPrefix(cell, "\uFEFF")
		cell = strings.ToLower(strings.TrimSpace(cell))
		for _, n := range names {
			if cell == n {
				return true
			}
		}
		return false
	}
	for i, cell := range header {
		switch {
		case idx.date == -1 && match(cell, l.schema.Date):
			idx.date = i
		case idx.customer == -1 && match(cell, l.schema.Customer):
			idx.customer = i
		case idx.segment == -1 && match(cell, l.schema.Segment):
			idx.segment = i
		case idx.sales == -1 && match(cell, l.schema.Sales):
			idx.sales = i
		case idx.collections == -1 && match(cell, l.schema.Collections):
			idx.collections = i
		case idx.expense == -1 && match(cell, l.schema.Expense):
			idx.expense = i
		case idx.stock == -1 && match(cell, l.schema.Stock):
			idx.stock = i
		}
	}
	return idx
}

// buildDataset converts raw rows into records. The first row is the
// header; it must contain a date column.
func (l *Loader) buildDataset(rows [][]string) (*domain.Dataset, int, error) {
	if len(rows) == 0 {
		return nil, 0, ErrNoUsableRows
	}

	idx := l.mapHeader(rows[0])
	if idx.date == -1 {
		return nil, 0, ErrMissingDateColumn
	}

	records := make([]domain.Record, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		date, ok := parseDate(cellAt(row, idx.date))
		if !ok {
			dropped++
			continue
		}
		records = append(records, domain.Record{
			Date:        date,
			Customer:    cellAt(row, idx.customer),
			Segment:     cellAt(row, idx.segment),
			Sales:       parseAmount(cellAt(row, idx.sales)),
			Collections: parseAmount(cellAt(row, idx.collections)),
			Expense:     parseAmount(cellAt(row, idx.expense)),
			Stock:       parseQuantity(cellAt(row, idx.stock)),
		})
	}

	if len(records) == 0 {
		return nil, dropped, ErrNoUsableRows
	}
	return domain.NewDataset(records), dropped, nil
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAmount coerces a numeric cell, returning nil for a missing value.
// Thousands separators are stripped the way the spreadsheet exports them.
func parseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseQuantity coerces an integer cell. Quantities feed zero-filled
// totals, so a failed coercion becomes 0 rather than a missing marker.
func parseQuantity(s string) int64 {
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	// Spreadsheets sometimes render integers as decimals ("10.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
