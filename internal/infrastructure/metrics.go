package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "salesdash"
	ServiceVersion = "1.0.0"
	MeterName      = "salesdash"
)

// Metrics holds the meter provider plus the instruments the service
// records on. Tracing is deliberately not wired: there is no trace
// consumer in this deployment, only the Prometheus scrape endpoint.
type Metrics struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter
	Handler       http.Handler

	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	RecomputeDuration metric.Float64Histogram
	DatasetRows       metric.Int64Gauge

	logger *slog.Logger
}

// InitializeMetrics sets up the OpenTelemetry meter provider with the
// Prometheus exporter and registers the service instruments.
func InitializeMetrics(logger *slog.Logger) (*Metrics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	m := &Metrics{
		MeterProvider: provider,
		Meter:         provider.Meter(MeterName),
		Handler:       promhttp.Handler(),
		logger:        logger,
	}

	if err := m.createInstruments(); err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}

	logger.Info("metrics initialized",
		slog.String("service", ServiceName),
		slog.String("exporter", "prometheus"))

	return m, nil
}

func (m *Metrics) createInstruments() error {
	var err error

	m.RequestCount, err = m.Meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total HTTP requests processed"))
	if err != nil {
		return err
	}

	m.RequestDuration, err = m.Meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	m.RecomputeDuration, err = m.Meter.Float64Histogram("dashboard_recompute_duration_seconds",
		metric.WithDescription("Duration of one full view recomputation pass"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	m.DatasetRows, err = m.Meter.Int64Gauge("dataset_rows",
		metric.WithDescription("Rows in the currently active dataset"))
	if err != nil {
		return err
	}

	return nil
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, path string, status int, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, seconds, attrs)
}

// RecordRecompute records the duration of one recomputation pass.
func (m *Metrics) RecordRecompute(ctx context.Context, seconds float64, rows int) {
	m.RecomputeDuration.Record(ctx, seconds)
	m.DatasetRows.Record(ctx, int64(rows))
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.MeterProvider == nil {
		return nil
	}
	return m.MeterProvider.Shutdown(ctx)
}
