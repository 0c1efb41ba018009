// Package exporter writes dashboard data as CSV. Output carries a
// UTF-8 BOM so Excel opens Turkish customer names correctly.
package exporter
