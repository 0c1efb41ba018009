package http

import (
	"context"

	"salesdash/internal/dataset"
	"salesdash/internal/services"
	"salesdash/pkg/contracts/domain"
)

// DashboardServiceInterface is what the handlers need from the service
// layer. Kept as an interface so handler tests can stub it.
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, spec domain.FilterSpec, thresholdPercent *float64, topN int) (domain.DashboardViews, error)
	Trend(ctx context.Context, rangeKey string) ([]domain.TrendPoint, error)
	FilterOptions(ctx context.Context) (services.FilterOptions, error)
	FilteredRecords(ctx context.Context, spec domain.FilterSpec) ([]domain.Record, error)
	CustomerSummaries(ctx context.Context, spec domain.FilterSpec, thresholdPercent *float64) ([]domain.CustomerSummary, error)
	Upload(ctx context.Context, filename string, data []byte) (dataset.Info, error)
	DatasetInfo() dataset.Info
}
