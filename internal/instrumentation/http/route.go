package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// RouteMetricAttributes labels otelhttp metrics with the matched chi route and a
// fixed component name, so /romannumeral?query=1 and ?query=2 share one series.
func RouteMetricAttributes(routes chi.Routes, component string) func(*http.Request) []attribute.KeyValue {
	return func(r *http.Request) []attribute.KeyValue {
		attrs := []attribute.KeyValue{attribute.String("http_component", component)}
		if route := matchRoutePattern(routes, r); route != "" {
			attrs = append(attrs, semconv.HTTPRoute(route))
		}
		return attrs
	}
}

// RouteSpanNameFormatter names server spans "<METHOD> <route>", falling back to the
// otelhttp operation name for paths no route matches.
func RouteSpanNameFormatter(routes chi.Routes) func(string, *http.Request) string {
	return func(operation string, r *http.Request) string {
		if route := matchRoutePattern(routes, r); route != "" {
			return r.Method + " " + route
		}
		return operation
	}
}

func matchRoutePattern(routes chi.Routes, r *http.Request) string {
	if r == nil || routes == nil {
		return ""
	}
	rctx := chi.NewRouteContext()
	if routes.Match(rctx, r.Method, r.URL.Path) {
		return rctx.RoutePattern()
	}
	return ""
}
