package metrics

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/romanconv/romanconv/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputRange(t *testing.T) {
	tests := map[int]string{
		-5:   "unknown",
		0:    "unknown",
		1:    "1-10",
		10:   "1-10",
		11:   "11-50",
		50:   "11-50",
		51:   "51-100",
		100:  "51-100",
		101:  "101-500",
		500:  "101-500",
		501:  "501-1000",
		1000: "501-1000",
		1001: "1001-2000",
		2000: "1001-2000",
		2001: "2001-3999",
		3999: "2001-3999",
		4000: "unknown",
	}
	for n, want := range tests {
		assert.Equal(t, want, InputRange(n), "InputRange(%d)", n)
	}
}

func TestConversionCollector(t *testing.T) {
	c := NewConversionCollector()
	c.ObserveConversion(DirectionToRoman, StatusSuccess, 42, time.Millisecond)
	c.ObserveConversion(DirectionToRoman, StatusSuccess, 42, time.Millisecond)
	c.ObserveConversion(DirectionFromRoman, StatusError, 0, time.Millisecond)
	c.ObserveError("ErrOutOfRange", "to_roman")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.conversions.WithLabelValues(StatusSuccess, "11-50", DirectionToRoman)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversions.WithLabelValues(StatusError, "unknown", DirectionFromRoman)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("ErrOutOfRange", "to_roman")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
	assert.Equal(t, "conversion", c.MetricsName())
}

func TestApiCollectorMiddleware(t *testing.T) {
	c := NewApiCollector(config.NewDefault())

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/romannumeral", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/bad", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	for _, target := range []string{"/romannumeral?query=1", "/romannumeral?query=2", "/bad", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/romannumeral", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/bad", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", unmatchedRoute, "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.activeConnections))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.sloViolations))
}

func TestNewHandlerGzip(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "gzip_sample_total", Help: "gzip sample"})
	counter.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rec := httptest.NewRecorder()
	NewHandler(counter).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "gzip_sample_total 1"))
}

func TestWrapWithTraceKeepsMetrics(t *testing.T) {
	c := NewConversionCollector()
	c.ObserveConversion(DirectionToRoman, StatusSuccess, 3999, time.Microsecond)

	wrapped := WrapWithTrace(c)
	assert.Equal(t, "conversion", wrapped.MetricsName())

	rec := httptest.NewRecorder()
	NewHandler(wrapped).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `roman_conversion_total{direction="to_roman",input_range="2001-3999",status="success"} 1`)
}

func TestAcceptsGzip(t *testing.T) {
	h := http.Header{}
	assert.False(t, acceptsGzip(h))
	h.Set("Accept-Encoding", "br, gzip;q=0.8")
	assert.True(t, acceptsGzip(h))
	h.Set("Accept-Encoding", "gzipx")
	assert.False(t, acceptsGzip(h))
}

func TestSystemCollector(t *testing.T) {
	cfg := config.NewDefault()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := NewSystemCollector(ctx, cfg)
	defer c.Stop()

	assert.Equal(t, "system", c.MetricsName())
	assert.Equal(t, 3, testutil.CollectAndCount(c))
}
