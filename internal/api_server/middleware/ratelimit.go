package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

const defaultRateLimitMessage = "Rate limit exceeded, please try again later"

// RateLimitOptions configures rate limiting behavior
type RateLimitOptions struct {
	Requests       int
	Window         time.Duration
	Message        string
	TrustedProxies []string
}

// RateLimitStatus is the JSON body of a 429 response.
type RateLimitStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// peerHost strips the port from RemoteAddr. Addresses already rewritten by
// TrustedRealIP carry no port and are returned as is.
func peerHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// IPRateLimiter creates an IP-based rate limiter.
// Note: Should be used with TrustedRealIP middleware for proper proxy handling
func IPRateLimiter(requests int, window time.Duration, message string) func(http.Handler) http.Handler {
	if message == "" {
		message = defaultRateLimitMessage
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return peerHost(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(RateLimitStatus{
				Code:    http.StatusTooManyRequests,
				Message: message,
				Reason:  "TooManyRequests",
			})
		}),
	)
}

// InstallIPRateLimiter installs TrustedRealIP (when proxies are configured) followed
// by IPRateLimiter.
func InstallIPRateLimiter(r chi.Router, opts RateLimitOptions) {
	if len(opts.TrustedProxies) > 0 {
		r.Use(TrustedRealIP(opts.TrustedProxies))
	}
	r.Use(IPRateLimiter(opts.Requests, opts.Window, opts.Message))
}

// TrustedRealIP rewrites RemoteAddr from True-Client-IP, X-Real-IP or
// X-Forwarded-For, but only for requests whose immediate peer falls inside one
// of trustedProxies (CIDRs or single addresses).
func TrustedRealIP(trustedProxies []string) func(http.Handler) http.Handler {
	prefixes := trustedPrefixes(trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fromTrustedPeer(prefixes, peerHost(r)) {
				if ip, ok := forwardedClientIP(r.Header); ok {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func trustedPrefixes(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if p, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, p.Masked())
		} else if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
		}
	}
	return prefixes
}

func fromTrustedPeer(prefixes []netip.Prefix, host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// forwardedClientIP walks the forwarding headers from most to least specific;
// for X-Forwarded-For only the left-most (original client) entry counts.
func forwardedClientIP(h http.Header) (netip.Addr, bool) {
	xff, _, _ := strings.Cut(h.Get("X-Forwarded-For"), ",")
	for _, v := range []string{h.Get("True-Client-IP"), h.Get("X-Real-IP"), xff} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(v)); err == nil {
			return addr, true
		}
	}
	return netip.Addr{}, false
}
