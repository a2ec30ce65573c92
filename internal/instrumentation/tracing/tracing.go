// Package tracing wires the process-wide OpenTelemetry tracer provider and offers
// small helpers for starting spans and marking them failed.
package tracing

import (
	"context"
	"net/url"
	"strings"

	"github.com/romanconv/romanconv/internal/config"
	"github.com/romanconv/romanconv/internal/config/common"
	"github.com/romanconv/romanconv/pkg/version"
	"github.com/sirupsen/logrus"
	"github.com/stoewer/go-strcase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultServiceName = "roman-numeral-converter"
	tracesPath         = "/v1/traces"
)

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(context.Context) error

// InitTracer installs the global tracer provider. When tracing is disabled, or the
// OTLP exporter cannot be built, a no-op provider is installed and the service
// keeps running. The returned function must be called on exit to flush spans.
func InitTracer(log logrus.FieldLogger, cfg *config.Config, serviceName string) ShutdownFunc {
	if cfg.Tracing == nil || !cfg.Tracing.Enabled {
		log.Info("Tracing is disabled")
		return useNoop()
	}

	exp, err := otlptracehttp.New(context.Background(), exporterOptions(cfg.Tracing)...)
	if err != nil {
		log.WithError(err).Error("Failed to initialize OTLP exporter, tracing is disabled")
		return useNoop()
	}

	if serviceName == "" {
		serviceName = defaultServiceName
	}
	ratio := cfg.Tracing.EffectiveSampleRatio()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(newResource(serviceName)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.WithFields(logrus.Fields{
		"endpoint":     cfg.Tracing.Endpoint,
		"sample_ratio": ratio,
	}).Info("Tracing initialized")
	return tp.Shutdown
}

func useNoop() ShutdownFunc {
	otel.SetTracerProvider(noop.NewTracerProvider())
	return func(context.Context) error { return nil }
}

// exporterOptions accepts the endpoint either as host:port or in the
// OTEL_EXPORTER_OTLP_ENDPOINT URL form, where an http scheme implies an insecure
// connection and a base path is prefixed to the traces path.
func exporterOptions(cfg *common.TracingConfig) []otlptracehttp.Option {
	endpoint, insecure, urlPath := cfg.Endpoint, cfg.Insecure, ""
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		insecure = insecure || u.Scheme == "http"
		if base := strings.TrimSuffix(u.Path, "/"); base != "" {
			urlPath = base + tracesPath
		}
	}

	var opts []otlptracehttp.Option
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if urlPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(urlPath))
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(version.Get().String()),
	)
}

// StartSpan starts a span on the global provider with its name in kebab-case, so
// "RomanConversion" is recorded as "roman-conversion".
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, strcase.KebabCase(spanName), opts...)
}

// RecordError marks the span as failed. A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
