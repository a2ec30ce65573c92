package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/romanconv/romanconv/internal/config"
	"github.com/romanconv/romanconv/pkg/reqid"
)

// RequestSizeLimiter returns a middleware that limits the URL length and the number of request headers.
func RequestSizeLimiter(maxURLLength int, maxNumHeaders int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.String()) > maxURLLength {
				http.Error(w, fmt.Sprintf("URL too long, exceeds %d characters", maxURLLength), http.StatusRequestURITooLong)
				return
			}
			if len(r.Header) > maxNumHeaders {
				http.Error(w, fmt.Sprintf("Request has too many headers, exceeds %d", maxNumHeaders), http.StatusRequestHeaderFieldsTooLarge)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reuses the caller's X-Request-Id or assigns a new one, and echoes it
// in the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(chimw.RequestIDHeader)
		if requestID == "" {
			requestID = reqid.NextRequestID()
		}
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, requestID)
		w.Header().Set(chimw.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SecurityHeaders sets headers that stop browsers from sniffing or framing responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// CORS adds the Access-Control-Allow-* headers to every response and answers
// OPTIONS preflight requests for any path that routes has a GET handler for.
// Preflights for unknown paths fall through to the router.
func CORS(cfg *config.CorsConfig, routes chi.Routes) func(http.Handler) http.Handler {
	origin := "*"
	methods := "GET, OPTIONS"
	headers := "Content-Type"
	if cfg != nil {
		if len(cfg.AllowedOrigins) > 0 {
			origin = strings.Join(cfg.AllowedOrigins, ", ")
		}
		if len(cfg.AllowedMethods) > 0 {
			methods = strings.Join(cfg.AllowedMethods, ", ")
		}
		if len(cfg.AllowedHeaders) > 0 {
			headers = strings.Join(cfg.AllowedHeaders, ", ")
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions && routes != nil && routes.Match(chi.NewRouteContext(), http.MethodGet, r.URL.Path) {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
