package common

import (
	"fmt"
	"time"

	"github.com/romanconv/romanconv/internal/util"
)

// MetricsConfig holds metrics collection configuration.
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Address string `json:"address,omitempty"`
	// SloMax is the latency in seconds above which a successful response counts as an SLO violation.
	SloMax          float64                `json:"sloMax,omitempty"`
	LatencyBuckets  []float64              `json:"latencyBuckets,omitempty"`
	SystemCollector *SystemCollectorConfig `json:"systemCollector,omitempty"`
	HttpCollector   *HttpCollectorConfig   `json:"httpCollector,omitempty"`
}

// SystemCollectorConfig holds system metrics collector configuration.
type SystemCollectorConfig struct {
	Enabled        bool          `json:"enabled,omitempty"`
	TickerInterval util.Duration `json:"tickerInterval,omitempty"`
}

// HttpCollectorConfig holds OpenTelemetry HTTP metrics collector configuration.
type HttpCollectorConfig struct {
	Enabled bool `json:"enabled,omitempty"`
}

// NewDefaultMetrics returns a default metrics configuration.
func NewDefaultMetrics() *MetricsConfig {
	return &MetricsConfig{
		Enabled:        true,
		Address:        ":15690",
		SloMax:         1.0,
		LatencyBuckets: []float64{0.1, 0.3, 0.5, 0.7, 1, 3, 5, 7, 10},
		SystemCollector: &SystemCollectorConfig{
			Enabled:        true,
			TickerInterval: util.Duration(5 * time.Second),
		},
		HttpCollector: &HttpCollectorConfig{
			Enabled: true,
		},
	}
}

func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Address == "" {
		return fmt.Errorf("metrics.address must be set when metrics are enabled")
	}
	if m.SloMax <= 0 {
		return fmt.Errorf("metrics.sloMax must be positive")
	}
	for i := 1; i < len(m.LatencyBuckets); i++ {
		if m.LatencyBuckets[i] <= m.LatencyBuckets[i-1] {
			return fmt.Errorf("metrics.latencyBuckets must be strictly increasing")
		}
	}
	if m.SystemCollector != nil && m.SystemCollector.Enabled && m.SystemCollector.TickerInterval <= 0 {
		return fmt.Errorf("metrics.systemCollector.tickerInterval must be positive")
	}
	return nil
}
