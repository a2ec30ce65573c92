package common

import (
	"fmt"
	"os"
)

// TracingConfig holds OpenTelemetry tracing configuration.
type TracingConfig struct {
	Enabled bool `json:"enabled,omitempty"`
	// Endpoint is host:port or an OTLP base URL such as http://collector:4318.
	Endpoint string `json:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty"`
	// SampleRatio is the fraction of root spans kept. Unset or 0 keeps all.
	SampleRatio float64 `json:"sampleRatio,omitempty"`
}

// NewDefaultTracingConfig returns a default tracing configuration (disabled).
func NewDefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		Enabled: false,
	}
}

// ApplyEnvOverrides enables tracing when an OTLP endpoint is exported in the environment.
func (t *TracingConfig) ApplyEnvOverrides() {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		t.Enabled = true
		t.Endpoint = endpoint
	}
}

// EffectiveSampleRatio returns SampleRatio with the keep-all default applied.
func (t *TracingConfig) EffectiveSampleRatio() float64 {
	if t.SampleRatio <= 0 {
		return 1.0
	}
	return t.SampleRatio
}

func (t *TracingConfig) Validate() error {
	if t.SampleRatio < 0 || t.SampleRatio > 1 {
		return fmt.Errorf("tracing.sampleRatio must be between 0 and 1, got %v", t.SampleRatio)
	}
	return nil
}
