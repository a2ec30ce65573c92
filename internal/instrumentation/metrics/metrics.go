package metrics

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/romanconv/romanconv/internal/instrumentation/tracing"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	metricsPath      = "/metrics"
	scrapeTracerName = "romanconv/metrics"

	defaultListenAddr = ":15690"

	httpGracefulShutdownTimeout = 5 * time.Second
	httpReadHeaderTimeout       = 2 * time.Second
	httpWriteTimeout            = 10 * time.Second
	httpIdleTimeout             = 60 * time.Second

	// span attributes list metric names only up to this many
	maxListedMetrics = 20
)

// MetricsServer exposes the registered collectors on /metrics.
type MetricsServer struct {
	log        logrus.FieldLogger
	collectors []prometheus.Collector
}

type runOptions struct {
	addr    string
	wrapper func(http.Handler) http.Handler
}

// RunOption configures MetricsServer.Run.
type RunOption func(*runOptions)

// WithListenAddr sets the address the metrics server listens on.
func WithListenAddr(addr string) RunOption {
	return func(o *runOptions) {
		o.addr = addr
	}
}

// WithHandlerWrapper wraps the /metrics handler, e.g. with otelhttp.
func WithHandlerWrapper(wrap func(http.Handler) http.Handler) RunOption {
	return func(o *runOptions) {
		o.wrapper = wrap
	}
}

// NewMetricsServer creates a server for the given collectors. Nil collectors are
// skipped and NamedCollectors get a span per scrape.
func NewMetricsServer(log logrus.FieldLogger, collectors ...prometheus.Collector) *MetricsServer {
	wrapped := make([]prometheus.Collector, 0, len(collectors))
	for _, c := range collectors {
		switch col := c.(type) {
		case nil:
			continue
		case NamedCollector:
			wrapped = append(wrapped, WrapWithTrace(col))
		default:
			wrapped = append(wrapped, col)
		}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MetricsServer{log: log, collectors: wrapped}
}

// Run serves until ctx is cancelled. Bind errors are returned immediately.
func (m *MetricsServer) Run(ctx context.Context, opts ...RunOption) error {
	o := runOptions{addr: defaultListenAddr}
	for _, opt := range opts {
		opt(&o)
	}

	handler := NewHandler(m.collectors...)
	if o.wrapper != nil {
		handler = o.wrapper(handler)
	}
	mux := http.NewServeMux()
	mux.Handle(metricsPath, handler)

	listener, err := net.Listen("tcp", o.addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
	}

	go func() {
		<-ctx.Done()
		m.log.WithError(ctx.Err()).Info("Metrics server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpGracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			m.log.WithError(err).Warn("Metrics server shutdown error")
		}
	}()

	m.log.Infof("Listening for metrics on %s", listener.Addr())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NamedCollector is a Prometheus collector with a stable name used for its scrape span.
type NamedCollector interface {
	prometheus.Collector
	MetricsName() string
}

// tracedCollector opens a span around Collect. ctx is the scrape request context
// and is only set on the per-request copies made by NewHandler.
type tracedCollector struct {
	ctx         context.Context
	collector   NamedCollector
	metricNames []string
}

// WrapWithTrace wraps c so that each collection is recorded as a span named after
// c.MetricsName(), listing the metric names c describes.
func WrapWithTrace(c NamedCollector) NamedCollector {
	if tc, ok := c.(*tracedCollector); ok {
		return tc
	}
	return &tracedCollector{collector: c, metricNames: describedNames(c)}
}

func (tc *tracedCollector) MetricsName() string {
	return tc.collector.MetricsName()
}

func (tc *tracedCollector) Describe(ch chan<- *prometheus.Desc) {
	tc.collector.Describe(ch)
}

func (tc *tracedCollector) Collect(ch chan<- prometheus.Metric) {
	ctx := tc.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := tracing.StartSpan(ctx, scrapeTracerName, tc.collector.MetricsName())
	defer span.End()

	if len(tc.metricNames) > maxListedMetrics {
		span.SetAttributes(attribute.Int("collector.metric_count", len(tc.metricNames)))
	} else {
		span.SetAttributes(attribute.StringSlice("collector.metrics", tc.metricNames))
	}
	tc.collector.Collect(ch)
}

func (tc *tracedCollector) forScrape(ctx context.Context) *tracedCollector {
	return &tracedCollector{ctx: ctx, collector: tc.collector, metricNames: tc.metricNames}
}

// describedNames returns the fully qualified names of the metrics c describes.
func describedNames(c prometheus.Collector) []string {
	descs := make(chan *prometheus.Desc)
	go func() {
		c.Describe(descs)
		close(descs)
	}()

	names := make([]string, 0, 4)
	for d := range descs {
		names = append(names, fqName(d))
	}
	return names
}

// fqName extracts the name from a descriptor's String form, which is the only
// place client_golang exposes it.
func fqName(d *prometheus.Desc) string {
	s := d.String()
	if _, rest, ok := strings.Cut(s, `fqName: "`); ok {
		if name, _, ok := strings.Cut(rest, `"`); ok {
			return name
		}
	}
	return s
}

// NewHandler returns a handler that gathers the collectors into a fresh registry on
// every scrape, so traced collectors see the request context.
func NewHandler(collectors ...prometheus.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registry := prometheus.NewRegistry()
		for _, c := range collectors {
			if tc, ok := c.(*tracedCollector); ok {
				c = tc.forScrape(r.Context())
			}
			if err := registry.Register(c); err != nil {
				http.Error(w, fmt.Sprintf("failed to register collector: %v", err), http.StatusInternalServerError)
				return
			}
		}

		families, err := registry.Gather()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to gather metrics: %v", err), http.StatusInternalServerError)
			return
		}
		writeMetrics(w, r, families)
	})
}

func writeMetrics(w http.ResponseWriter, r *http.Request, families []*dto.MetricFamily) {
	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))

	var out io.Writer = w
	if acceptsGzip(r.Header) {
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		defer zw.Close()
		out = zw
	}

	encoder := expfmt.NewEncoder(out, format)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			http.Error(w, fmt.Sprintf("failed to encode metrics: %v", err), http.StatusInternalServerError)
			return
		}
	}
	if closer, ok := encoder.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			http.Error(w, fmt.Sprintf("failed to flush metrics: %v", err), http.StatusInternalServerError)
		}
	}
}

// acceptsGzip reports whether the Accept-Encoding header lists gzip.
func acceptsGzip(header http.Header) bool {
	for _, val := range strings.Split(header.Get("Accept-Encoding"), ",") {
		if part := strings.TrimSpace(val); part == "gzip" || strings.HasPrefix(part, "gzip;") {
			return true
		}
	}
	return false
}
