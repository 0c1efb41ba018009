package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/analytics"
	"salesdash/internal/config"
	"salesdash/internal/dataset"
	apperrors "salesdash/internal/errors"
	"salesdash/internal/validation"
	"salesdash/pkg/contracts/domain"
)

const sampleCSV = `Tarih,Müşteri,Segment,Satış,Tahsilat,Gider,Stok
01.01.2024,Müşteri_1,A,1000,900,100,50
15.02.2024,Müşteri_1,A,2000,1500,400,30
01.03.2024,Müşteri_2,B,500,450,50,20
10.03.2024,Müşteri_3,C,800,700,200,10
`

func newTestService(t *testing.T) *DashboardService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := config.Default().Dashboard
	svc := NewDashboardService(
		logger,
		dataset.NewLoader(logger, dataset.DefaultSchema()),
		dataset.NewStore(),
		analytics.NewEngine(logger, cfg.TopN),
		validation.NewUploadValidator(logger, 1<<20),
		nil,
		cfg,
	)
	return svc
}

func loadSample(t *testing.T, svc *DashboardService) {
	t.Helper()
	_, err := svc.Upload(context.Background(), "sample.csv", []byte(sampleCSV))
	require.NoError(t, err)
}

func TestUploadReplacesDataset(t *testing.T) {
	svc := newTestService(t)

	info, err := svc.Upload(context.Background(), "sample.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 4, info.Rows)
	assert.Equal(t, "sample.csv", info.Source)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), info.MinDate)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), info.MaxDate)
}

func TestUploadFailureKeepsPreviousDataset(t *testing.T) {
	svc := newTestService(t)
	loadSample(t, svc)

	_, err := svc.Upload(context.Background(), "broken.csv", []byte("Müşteri,Segment\nX,A\n"))
	require.Error(t, err, "file without a date column must be rejected")

	views, err := svc.Dashboard(context.Background(), domain.FilterSpec{}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, views.RowCount, "previous dataset stays active after a failed upload")
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Upload(context.Background(), "sales.pdf", []byte("data"))
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestDashboardWithoutDataset(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Dashboard(context.Background(), domain.FilterSpec{}, nil, 0)
	var apiErr *apperrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "DATASET_NOT_FOUND", apiErr.ErrorCode)
}

func TestDashboardThresholdSemantics(t *testing.T) {
	svc := newTestService(t)
	loadSample(t, svc)
	ctx := context.Background()

	t.Run("absent falls back to default", func(t *testing.T) {
		views, err := svc.Dashboard(ctx, domain.FilterSpec{}, nil, 0)
		require.NoError(t, err)
		assert.InDelta(t, 0.10, views.ThresholdFraction, 1e-9)
	})

	t.Run("explicit zero is honored", func(t *testing.T) {
		zero := 0.0
		views, err := svc.Dashboard(ctx, domain.FilterSpec{}, &zero, 0)
		require.NoError(t, err)
		assert.Zero(t, views.ThresholdFraction)
	})

	t.Run("value within range converts to fraction", func(t *testing.T) {
		pct := 25.0
		views, err := svc.Dashboard(ctx, domain.FilterSpec{}, &pct, 0)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, views.ThresholdFraction, 1e-9)
	})

	t.Run("value outside range is rejected", func(t *testing.T) {
		pct := 50.0
		_, err := svc.Dashboard(ctx, domain.FilterSpec{}, &pct, 0)
		var apiErr *apperrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "INVALID_PARAMETER", apiErr.ErrorCode)
	})
}

func TestDashboardEmptyFilterResultIsValid(t *testing.T) {
	svc := newTestService(t)
	loadSample(t, svc)

	spec := domain.FilterSpec{Segments: []string{"Z"}}
	views, err := svc.Dashboard(context.Background(), spec, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, views.RowCount)
	assert.Empty(t, views.Trend)
	assert.Zero(t, views.KPIs.Sales)
}

func TestTrendRanges(t *testing.T) {
	svc := newTestService(t)
	loadSample(t, svc)

	// Pin "today" so the range windows are deterministic
	svc.now = func() time.Time {
		return time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	t.Run("one month window", func(t *testing.T) {
		// from bound 2024-02-15 is inclusive
		points, err := svc.Trend(ctx, "1m")
		require.NoError(t, err)
		require.Len(t, points, 3)
		assert.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), points[0].Date)
	})

	t.Run("default covers everything", func(t *testing.T) {
		points, err := svc.Trend(ctx, "")
		require.NoError(t, err)
		assert.Len(t, points, 4)
	})

	t.Run("invalid range rejected", func(t *testing.T) {
		_, err := svc.Trend(ctx, "2w")
		var apiErr *apperrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "INVALID_PARAMETER", apiErr.ErrorCode)
	})
}

func TestFilterOptions(t *testing.T) {
	svc := newTestService(t)
	loadSample(t, svc)

	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, opts.Segments)
	assert.Equal(t, []string{"Müşteri_1", "Müşteri_2", "Müşteri_3"}, opts.Customers)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), opts.MinDate)
}

func TestLoadBundledFile(t *testing.T) {
	svc := newTestService(t)

	t.Run("missing file starts empty", func(t *testing.T) {
		err := svc.LoadBundledFile(context.Background(), "does/not/exist.csv")
		require.NoError(t, err)
		assert.Nil(t, svc.store.Active())
	})

	t.Run("file loads at startup", func(t *testing.T) {
		path := writeTempCSV(t, sampleCSV)
		require.NoError(t, svc.LoadBundledFile(context.Background(), path))
		assert.Equal(t, 4, svc.DatasetInfo().Rows)
	})
}

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "sales-*.csv")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
