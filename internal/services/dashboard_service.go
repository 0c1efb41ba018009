package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"salesdash/internal/analytics"
	"salesdash/internal/config"
	"salesdash/internal/dataset"
	apperrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
	"salesdash/internal/validation"
	"salesdash/pkg/contracts/domain"
)

// TrendRanges are the accepted range shortcuts for the standalone trend
// view, in months back from today.
var TrendRanges = map[string]int{
	"1m": 1,
	"3m": 3,
	"6m": 6,
	"1y": 12,
}

// DefaultTrendRange applies when the request omits the range parameter.
const DefaultTrendRange = "1y"

// FilterOptions is what the presentation layer needs to populate its
// controls: the distinct filterable values and the dataset date bounds.
type FilterOptions struct {
	Segments  []string  `json:"segments"`
	Customers []string  `json:"customers"`
	MinDate   time.Time `json:"min_date"`
	MaxDate   time.Time `json:"max_date"`
}

// DashboardService orchestrates the loader, the store and the analytics
// engine. It owns threshold defaulting and parameter validation so the
// handlers stay thin.
type DashboardService struct {
	logger    *slog.Logger
	loader    *dataset.Loader
	store     *dataset.Store
	engine    *analytics.Engine
	validator *validation.UploadValidator
	metrics   *infrastructure.Metrics
	cfg       config.DashboardConfig

	// now is injectable for trend range tests
	now func() time.Time
}

// NewDashboardService wires the service from its collaborators.
func NewDashboardService(
	logger *slog.Logger,
	loader *dataset.Loader,
	store *dataset.Store,
	engine *analytics.Engine,
	validator *validation.UploadValidator,
	metrics *infrastructure.Metrics,
	cfg config.DashboardConfig,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		logger:    logger.With(slog.String("service", "dashboard")),
		loader:    loader,
		store:     store,
		engine:    engine,
		validator: validator,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// LoadBundledFile loads the configured seed dataset at startup. A missing
// file is logged and skipped so the service can start empty and wait for
// an upload.
func (s *DashboardService) LoadBundledFile(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "bundled dataset not found, starting empty",
				slog.String("path", path))
			return nil
		}
		return apperrors.NewStorageError(fmt.Sprintf("failed to read bundled dataset %s", path), err)
	}

	info, err := s.replaceDataset(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "bundled dataset loaded",
		slog.String("path", path),
		slog.Int("rows", info.Rows))
	return nil
}

// Upload validates and loads an uploaded file, atomically replacing the
// active dataset. A failed load leaves the previous dataset active.
func (s *DashboardService) Upload(ctx context.Context, filename string, data []byte) (dataset.Info, error) {
	if err := s.validator.ValidateUpload(filename, int64(len(data))); err != nil {
		return dataset.Info{}, apperrors.NewWithDetails(
			apperrors.ErrValidationFailed.StatusCode,
			apperrors.ErrValidationFailed.ErrorCode,
			"Upload rejected",
			err.Error(),
		)
	}
	return s.replaceDataset(ctx, filename, data)
}

func (s *DashboardService) replaceDataset(ctx context.Context, filename string, data []byte) (dataset.Info, error) {
	ds, err := s.loader.Load(filename, data)
	if err != nil {
		// previous dataset stays active
		s.logger.WarnContext(ctx, "dataset load failed, previous dataset kept",
			slog.String("file", filename),
			slog.String("error", err.Error()))
		return dataset.Info{}, err
	}

	s.store.Replace(ds, filename)
	if s.metrics != nil {
		s.metrics.DatasetRows.Record(ctx, int64(ds.Len()))
	}
	return s.store.Describe(), nil
}

// Dashboard computes every view for the given filter. thresholdPercent
// nil means "not supplied" and falls back to the configured default; an
// explicit zero is honored as zero. Non-zero values must sit within the
// configured slider range. topN overrides the configured stock ranking
// size when positive.
func (s *DashboardService) Dashboard(ctx context.Context, spec domain.FilterSpec, thresholdPercent *float64, topN int) (domain.DashboardViews, error) {
	ds := s.store.Active()
	if ds == nil {
		return domain.DashboardViews{}, apperrors.ErrDatasetNotFound
	}

	fraction, err := s.thresholdFraction(thresholdPercent)
	if err != nil {
		return domain.DashboardViews{}, err
	}

	records := dataset.Filter(ds, spec)

	start := time.Now()
	views := s.engine.Recompute(ctx, records, fraction)
	if topN > 0 && topN != s.cfg.TopN {
		views.TopStock = s.engine.TopStock(records, topN)
	}
	if s.metrics != nil {
		s.metrics.RecordRecompute(ctx, time.Since(start).Seconds(), len(records))
	}
	return views, nil
}

// FilteredRecords returns the records matching the filter, for export.
func (s *DashboardService) FilteredRecords(ctx context.Context, spec domain.FilterSpec) ([]domain.Record, error) {
	ds := s.store.Active()
	if ds == nil {
		return nil, apperrors.ErrDatasetNotFound
	}
	return dataset.Filter(ds, spec), nil
}

// CustomerSummaries returns the per-customer roll-up for export, using
// the same threshold semantics as Dashboard.
func (s *DashboardService) CustomerSummaries(ctx context.Context, spec domain.FilterSpec, thresholdPercent *float64) ([]domain.CustomerSummary, error) {
	views, err := s.Dashboard(ctx, spec, thresholdPercent, 0)
	if err != nil {
		return nil, err
	}
	return views.CustomerSummaries, nil
}

// Trend computes the standalone sales trend over a range shortcut. The
// range is applied against the unfiltered dataset, relative to today.
func (s *DashboardService) Trend(ctx context.Context, rangeKey string) ([]domain.TrendPoint, error) {
	ds := s.store.Active()
	if ds == nil {
		return nil, apperrors.ErrDatasetNotFound
	}

	if rangeKey == "" {
		rangeKey = DefaultTrendRange
	}
	months, ok := TrendRanges[rangeKey]
	if !ok {
		return nil, apperrors.NewWithDetails(
			apperrors.ErrInvalidParameter.StatusCode,
			apperrors.ErrInvalidParameter.ErrorCode,
			"Invalid trend range",
			fmt.Sprintf("range %q is not one of 1m, 3m, 6m, 1y", rangeKey),
		)
	}

	to := s.now()
	from := to.AddDate(0, -months, 0)
	records := dataset.Filter(ds, domain.FilterSpec{From: from, To: to})
	return s.engine.Trend(records), nil
}

// FilterOptions returns distinct sorted segments and customers plus the
// dataset date bounds.
func (s *DashboardService) FilterOptions(ctx context.Context) (FilterOptions, error) {
	ds := s.store.Active()
	if ds == nil {
		return FilterOptions{}, apperrors.ErrDatasetNotFound
	}

	segments := make(map[string]bool)
	customers := make(map[string]bool)
	for _, r := range ds.Records {
		if r.Segment != "" {
			segments[r.Segment] = true
		}
		if r.Customer != "" {
			customers[r.Customer] = true
		}
	}

	opts := FilterOptions{
		Segments:  sortedKeys(segments),
		Customers: sortedKeys(customers),
		MinDate:   ds.MinDate,
		MaxDate:   ds.MaxDate,
	}
	return opts, nil
}

// DatasetInfo describes the active dataset for the health endpoint.
func (s *DashboardService) DatasetInfo() dataset.Info {
	return s.store.Describe()
}

// thresholdFraction converts the request percent to a fraction. nil
// falls back to the configured default; zero is literal; anything else
// must be within the configured range.
func (s *DashboardService) thresholdFraction(percent *float64) (float64, error) {
	if percent == nil {
		return s.cfg.DefaultThresholdPercent / 100, nil
	}
	p := *percent
	if p == 0 {
		return 0, nil
	}
	if p < s.cfg.MinThresholdPercent || p > s.cfg.MaxThresholdPercent {
		return 0, apperrors.NewWithDetails(
			apperrors.ErrInvalidParameter.StatusCode,
			apperrors.ErrInvalidParameter.ErrorCode,
			"Invalid threshold",
			fmt.Sprintf("threshold %.2f is outside the allowed range [%.0f, %.0f]",
				p, s.cfg.MinThresholdPercent, s.cfg.MaxThresholdPercent),
		)
	}
	return p / 100, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
