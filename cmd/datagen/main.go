// Command datagen writes a deterministic demo sales dataset. The
// customers encode controlled profit margin scenarios (0%, 4%, 6%,
// 10%, 30% and three randomized ones) so threshold behavior is easy to
// eyeball on the dashboard.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	customers = []string{
		"Müşteri_0", "Müşteri_4", "Müşteri_6", "Müşteri_10", "Müşteri_30",
		"Müşteri_A", "Müşteri_B", "Müşteri_C",
	}
	segments = []string{"A", "B", "C", "D"}
	headers  = []string{"Tarih", "Müşteri", "Segment", "Satış", "Tahsilat", "Gider", "Stok"}
)

func main() {
	out := flag.String("out", "data/demo_sales.csv", "output CSV path")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if err := run(*out, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "datagen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *out)
}

func run(out string, seed int64) error {
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := generate(f, seed); err != nil {
		return err
	}
	return f.Close()
}

// generate writes one row per (month-end, customer) from 2022 through
// 2025. Output carries a UTF-8 BOM so Excel reads the Turkish headers.
func generate(w io.Writer, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, date := range monthEnds(2022, 2025) {
		for _, customer := range customers {
			segment := segments[rng.Intn(len(segments))]
			sales := float64(10000 + rng.Intn(10000))

			var collections, expense float64
			switch customer {
			case "Müşteri_0":
				collections, expense = sales, sales // margin 0
			case "Müşteri_4":
				collections, expense = sales, sales*0.96
			case "Müşteri_6":
				collections, expense = sales, sales*0.94
			case "Müşteri_10":
				collections, expense = sales, sales*0.90
			case "Müşteri_30":
				collections, expense = sales, sales*0.70
			default:
				// randomized scenario, margin can go negative
				collections = sales * (0.8 + 0.4*rng.Float64())
				expense = collections * (0.5 + 0.6*rng.Float64())
			}

			stock := 50 + rng.Intn(450)

			row := []string{
				date.Format("2006-01-02"),
				customer,
				segment,
				fmt.Sprintf("%.0f", sales),
				fmt.Sprintf("%.2f", collections),
				fmt.Sprintf("%.2f", expense),
				fmt.Sprintf("%d", stock),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// monthEnds returns the last day of every month in [firstYear, lastYear].
func monthEnds(firstYear, lastYear int) []time.Time {
	var dates []time.Time
	for year := firstYear; year <= lastYear; year++ {
		for month := time.January; month <= time.December; month++ {
			firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
			dates = append(dates, firstOfNext.AddDate(0, 0, -1))
		}
	}
	return dates
}
