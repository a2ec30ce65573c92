package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/romanconv/romanconv/internal/config"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// instrument recorded by otelhttp for every served request
	httpServerDurationInstrument = "http.server.request.duration"

	meterShutdownTimeout = 5 * time.Second
)

// HTTPMetricsCollector exposes the OpenTelemetry HTTP server metrics recorded by
// otelhttp through the Prometheus endpoint.
type HTTPMetricsCollector struct {
	registry      *prometheus.Registry
	meterProvider *metric.MeterProvider
	log           logrus.FieldLogger
}

// NewHTTPMetricsCollector builds a meter provider that exports into its own
// registry and installs it globally, unless an SDK provider is already installed.
// Request duration histograms use the configured latency buckets.
func NewHTTPMetricsCollector(cfg *config.Config, serviceName string, log logrus.FieldLogger) (*HTTPMetricsCollector, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprometheus.New(
		otelprometheus.WithRegisterer(registry),
		otelprometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter for otel http metrics: %w", err)
	}

	opts := []metric.Option{
		metric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
		metric.WithReader(exporter),
	}
	if cfg.Metrics != nil && len(cfg.Metrics.LatencyBuckets) > 0 {
		opts = append(opts, metric.WithView(metric.NewView(
			metric.Instrument{Name: httpServerDurationInstrument},
			metric.Stream{Aggregation: metric.AggregationExplicitBucketHistogram{
				Boundaries: cfg.Metrics.LatencyBuckets,
			}},
		)))
	}
	mp := metric.NewMeterProvider(opts...)

	if _, ok := otel.GetMeterProvider().(*metric.MeterProvider); ok {
		log.Warn("Global meter provider already set, using existing provider")
	} else {
		otel.SetMeterProvider(mp)
	}

	log.Info("OpenTelemetry HTTP metrics collector initialized")
	return &HTTPMetricsCollector{
		registry:      registry,
		meterProvider: mp,
		log:           log,
	}, nil
}

func (c *HTTPMetricsCollector) MetricsName() string {
	return "otel-http"
}

func (c *HTTPMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	c.registry.Describe(ch)
}

func (c *HTTPMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	c.registry.Collect(ch)
}

// Shutdown flushes and stops the meter provider.
func (c *HTTPMetricsCollector) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), meterShutdownTimeout)
	defer cancel()

	if err := c.meterProvider.Shutdown(ctx); err != nil {
		c.log.WithError(err).Error("Failed to shutdown OpenTelemetry HTTP metrics")
		return err
	}
	c.log.Info("OpenTelemetry HTTP metrics shutdown successfully")
	return nil
}
