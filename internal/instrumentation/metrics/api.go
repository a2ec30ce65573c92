package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/romanconv/romanconv/internal/config"
)

const unmatchedRoute = "unmatched"

// ApiCollector implements NamedCollector for the HTTP traffic of the API server.
type ApiCollector struct {
	sloMax float64

	requestDuration   *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	activeConnections prometheus.Gauge
	sloViolations     prometheus.Counter
}

func NewApiCollector(cfg *config.Config) *ApiCollector {
	sloMax := 1.0
	buckets := prometheus.DefBuckets
	if cfg.Metrics != nil {
		if cfg.Metrics.SloMax > 0 {
			sloMax = cfg.Metrics.SloMax
		}
		if len(cfg.Metrics.LatencyBuckets) > 0 {
			buckets = cfg.Metrics.LatencyBuckets
		}
	}

	labels := []string{"method", "route", "status_code"}
	return &ApiCollector{
		sloMax: sloMax,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: buckets,
		}, labels),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, labels),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of requests currently being served",
		}),
		sloViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_slo_violations_total",
			Help: "Number of successful responses slower than the configured SLO",
		}),
	}
}

func (c *ApiCollector) MetricsName() string {
	return "api"
}

func (c *ApiCollector) Describe(ch chan<- *prometheus.Desc) {
	c.requestDuration.Describe(ch)
	c.requests.Describe(ch)
	ch <- c.activeConnections.Desc()
	ch <- c.sloViolations.Desc()
}

func (c *ApiCollector) Collect(ch chan<- prometheus.Metric) {
	c.requestDuration.Collect(ch)
	c.requests.Collect(ch)
	ch <- c.activeConnections
	ch <- c.sloViolations
}

// Middleware records request count, latency and in-flight requests. The route label
// is the matched chi pattern so that query strings and unknown paths do not
// create new series.
func (c *ApiCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.activeConnections.Inc()
		defer c.activeConnections.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start).Seconds()

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		labels := prometheus.Labels{
			"method":      r.Method,
			"route":       route,
			"status_code": strconv.Itoa(status),
		}
		c.requestDuration.With(labels).Observe(elapsed)
		c.requests.With(labels).Inc()
		if status < http.StatusBadRequest && elapsed > c.sloMax {
			c.sloViolations.Inc()
		}
	})
}
