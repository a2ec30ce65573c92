package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	DirectionToRoman   = "to_roman"
	DirectionFromRoman = "from_roman"

	rangeUnknown = "unknown"
)

var inputRanges = []struct {
	upper int
	label string
}{
	{10, "1-10"},
	{50, "11-50"},
	{100, "51-100"},
	{500, "101-500"},
	{1000, "501-1000"},
	{2000, "1001-2000"},
	{3999, "2001-3999"},
}

// InputRange buckets a converted value for the input_range label. Values outside
// [1, 3999] map to "unknown".
func InputRange(n int) string {
	if n < 1 {
		return rangeUnknown
	}
	for _, r := range inputRanges {
		if n <= r.upper {
			return r.label
		}
	}
	return rangeUnknown
}

// ConversionCollector implements NamedCollector for conversion outcomes.
type ConversionCollector struct {
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
}

func NewConversionCollector() *ConversionCollector {
	return &ConversionCollector{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roman_conversion_total",
			Help: "Total number of Roman numeral conversions",
		}, []string{"status", "input_range", "direction"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roman_conversion_duration_seconds",
			Help:    "Duration of Roman numeral conversions in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		}, []string{"type", "context"}),
	}
}

func (c *ConversionCollector) MetricsName() string {
	return "conversion"
}

func (c *ConversionCollector) Describe(ch chan<- *prometheus.Desc) {
	c.conversions.Describe(ch)
	c.duration.Describe(ch)
	c.errors.Describe(ch)
}

func (c *ConversionCollector) Collect(ch chan<- prometheus.Metric) {
	c.conversions.Collect(ch)
	c.duration.Collect(ch)
	c.errors.Collect(ch)
}

// ObserveConversion records one conversion. value is the Arabic side of the
// conversion and selects the input_range label.
func (c *ConversionCollector) ObserveConversion(direction, status string, value int, elapsed time.Duration) {
	c.conversions.WithLabelValues(status, InputRange(value), direction).Inc()
	c.duration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// ObserveError counts an error of the given type raised in the given context.
func (c *ConversionCollector) ObserveError(errType, context string) {
	c.errors.WithLabelValues(errType, context).Inc()
}
