package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RunTracedServer starts the metrics server and wraps /metrics with OTEL HTTP middleware
// so every scrape produces a server span named "metrics-http-server".
func RunTracedServer(
	ctx context.Context,
	log logrus.FieldLogger,
	addr string,
	collectors ...prometheus.Collector,
) error {
	s := NewMetricsServer(log, collectors...)

	return s.Run(
		ctx,
		WithListenAddr(addr),
		WithHandlerWrapper(func(h http.Handler) http.Handler {
			return otelhttp.NewHandler(h, "metrics-http-server", otelhttp.WithPublicEndpoint())
		}),
	)
}
