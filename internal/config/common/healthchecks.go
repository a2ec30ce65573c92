package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/romanconv/romanconv/internal/util"
)

// HealthChecksConfig configures the liveness and readiness probe endpoints.
type HealthChecksConfig struct {
	Enabled          bool          `json:"enabled,omitempty"`
	ReadinessPath    string        `json:"readinessPath,omitempty"`
	LivenessPath     string        `json:"livenessPath,omitempty"`
	ReadinessTimeout util.Duration `json:"readinessTimeout,omitempty"`
}

func NewDefaultHealthChecks() *HealthChecksConfig {
	return &HealthChecksConfig{
		Enabled:          true,
		ReadinessPath:    "/readyz",
		LivenessPath:     "/healthz",
		ReadinessTimeout: util.Duration(2 * time.Second),
	}
}

func (h *HealthChecksConfig) Validate() error {
	if !h.Enabled {
		return nil
	}
	if !strings.HasPrefix(h.ReadinessPath, "/") {
		return fmt.Errorf("service.healthChecks.readinessPath must start with '/'")
	}
	if !strings.HasPrefix(h.LivenessPath, "/") {
		return fmt.Errorf("service.healthChecks.livenessPath must start with '/'")
	}
	if h.ReadinessPath == h.LivenessPath {
		return fmt.Errorf("service.healthChecks readiness and liveness paths must differ")
	}
	if h.ReadinessTimeout <= 0 {
		return fmt.Errorf("service.healthChecks.readinessTimeout must be positive")
	}
	return nil
}
