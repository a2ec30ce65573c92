package common

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/romanconv/romanconv/internal/util"
)

// RateLimitConfig configures per-client request limits on the conversion API.
type RateLimitConfig struct {
	Enabled        bool          `json:"enabled,omitempty"`
	Requests       int           `json:"requests,omitempty"`
	Window         util.Duration `json:"window,omitempty"`
	TrustedProxies []string      `json:"trustedProxies,omitempty"`
}

func NewDefaultRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:  true,
		Requests: 300,
		Window:   util.Duration(time.Minute),
	}
}

func (r *RateLimitConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Requests <= 0 {
		return fmt.Errorf("service.rateLimit.requests must be positive")
	}
	if r.Window <= 0 {
		return fmt.Errorf("service.rateLimit.window must be positive")
	}
	for _, p := range r.TrustedProxies {
		p = strings.TrimSpace(p)
		if strings.Contains(p, "/") {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("service.rateLimit.trustedProxies: invalid CIDR %q", p)
			}
			continue
		}
		if net.ParseIP(p) == nil {
			return fmt.Errorf("service.rateLimit.trustedProxies: invalid IP %q", p)
		}
	}
	return nil
}
