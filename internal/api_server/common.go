package apiserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	apimiddleware "github.com/romanconv/romanconv/internal/api_server/middleware"
	"github.com/romanconv/romanconv/internal/config/common"
	"github.com/romanconv/romanconv/internal/transport"
)

// GracefulShutdownTimeout is the duration to wait for graceful shutdown
const GracefulShutdownTimeout = 5 * time.Second

const rateLimitMessage = "Too many conversion requests, please try again later"

// ConfigureRateLimiterFromConfig installs the per-IP limiter on r when enabled.
func ConfigureRateLimiterFromConfig(r chi.Router, cfg *common.RateLimitConfig) {
	if cfg == nil || !cfg.Enabled {
		return
	}
	apimiddleware.InstallIPRateLimiter(r, apimiddleware.RateLimitOptions{
		Requests:       cfg.Requests,
		Window:         time.Duration(cfg.Window),
		Message:        rateLimitMessage,
		TrustedProxies: cfg.TrustedProxies,
	})
}

// NotFoundHandler answers unknown routes and unsupported methods.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transport.WriteTextResponse(w, transport.NotFound, http.StatusNotFound)
	}
}
