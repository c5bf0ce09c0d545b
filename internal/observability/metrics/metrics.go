package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	exportInterval    = 10 * time.Second
	maxSensorLabelLen = 40
	unknownSensor     = "unknown"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics holds the domain counters. A nil *Metrics records nothing, so
// services can take it as an optional dependency.
type Metrics struct {
	measurementsCreated metric.Int64Counter
	importRows          metric.Int64Counter
	devicePolls         metric.Int64Counter
	ingestRateLimited   metric.Int64Counter
}

// NewProvider registers the global meter provider. Without OTLP export
// every instrument is a noop.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics exporter ready",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New creates the sensorlog_* counters on a meter named after the service.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	scope := strings.TrimSpace(cfg.ServiceName)
	if scope == "" {
		scope = "sensorlog"
	}
	meter := provider.Meter(scope)

	m := &Metrics{}
	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&m.measurementsCreated, "sensorlog_measurements_created_total", "Measurements stored, by source and sensor."},
		{&m.importRows, "sensorlog_import_rows_total", "CSV import rows, by outcome."},
		{&m.devicePolls, "sensorlog_device_poll_total", "Device status polls, by outcome."},
		{&m.ingestRateLimited, "sensorlog_ingest_rate_limited_total", "Device pushes rejected by the ingest limiter."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.target = counter
	}
	return m, nil
}

// RecordMeasurementsCreated counts stored measurements per source and sensor.
func (m *Metrics) RecordMeasurementsCreated(ctx context.Context, source, sensorName string, count int) {
	if m == nil {
		return
	}
	add(ctx, m.measurementsCreated, count,
		attribute.String("source", strings.TrimSpace(source)),
		attribute.String("sensor", SensorLabel(sensorName)),
	)
}

// RecordImportRows counts CSV rows by outcome: imported, failed or skipped.
func (m *Metrics) RecordImportRows(ctx context.Context, outcome string, count int) {
	if m == nil {
		return
	}
	add(ctx, m.importRows, count, attribute.String("outcome", strings.TrimSpace(outcome)))
}

func (m *Metrics) RecordDevicePoll(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	add(ctx, m.devicePolls, 1, attribute.String("outcome", strings.TrimSpace(outcome)))
}

func (m *Metrics) RecordIngestRateLimited(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	add(ctx, m.ingestRateLimited, 1, attribute.String("reason", strings.TrimSpace(reason)))
}

func add(ctx context.Context, counter metric.Int64Counter, n int, attrs ...attribute.KeyValue) {
	if counter == nil || n <= 0 {
		return
	}
	counter.Add(ctx, int64(n), metric.WithAttributes(FilterAttributes(attrs...)...))
}

// SensorLabel turns a free-form sensor name into a bounded label value.
// Imports that span several sensors record "unknown".
func SensorLabel(name string) string {
	label := slug.Make(strings.TrimSpace(name))
	switch {
	case label == "":
		return unknownSensor
	case len(label) > maxSensorLabelLen:
		return strings.TrimRight(label[:maxSensorLabelLen], "-")
	}
	return label
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", p)
	}
}

// Label keys allowed on the domain counters. Usernames, ids
// and free-form text never become labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"source":      {},
	"sensor":      {},
	"outcome":     {},
	"reason":      {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes drops every attribute whose key is not an allowed label.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; ok {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}
