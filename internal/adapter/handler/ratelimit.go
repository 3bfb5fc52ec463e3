package handler

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/products-api/internal/obs"
	"github.com/rl1809/products-api/internal/port"
)

// RateLimiter enforces a fixed window request budget per client IP on every
// path under Prefix.
type RateLimiter struct {
	Store  port.RateLimitStore
	Max    int
	Window time.Duration
	Prefix string
}

func NewRateLimiter(store port.RateLimitStore, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{Store: store, Max: max, Window: window, Prefix: "/api"}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.applies(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		count, ttl, err := l.Store.Increment(r.Context(), clientIP(r), l.Window)
		if err != nil {
			// Counter store trouble must not take the API down.
			obs.Logger.Warn().Err(err).
				Str("request_id", RequestIDFromContext(r.Context())).
				Msg("rate limit store unavailable")
			next.ServeHTTP(w, r)
			return
		}

		remaining := int64(l.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		reset := int64(math.Ceil(ttl.Seconds()))

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(l.Max))
		h.Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		h.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))

		if count > int64(l.Max) {
			h.Set("Retry-After", strconv.FormatInt(reset, 10))
			writeError(w, http.StatusTooManyRequests, errTooMany,
				fmt.Sprintf("Too many requests, please try again in %d seconds.", reset))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) applies(path string) bool {
	return path == l.Prefix || strings.HasPrefix(path, l.Prefix+"/")
}

// clientIP keys on the connection's remote address. With proxy headers
// enabled RemoteAddr already carries the forwarded client.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
