package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/alecgard/taskhub/internal/auth"
)

// Scopes used to label rejections.
const (
	ScopeIP   = "ip"
	ScopeUser = "user"
)

// KeyFunc extracts the bucket key for a request. ok=false skips limiting.
type KeyFunc func(r *http.Request) (key string, ok bool)

// ByIP keys requests by client address. Run chi's RealIP middleware first
// when the server sits behind a proxy.
func ByIP(r *http.Request) (string, bool) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host, host != ""
}

// ByUser keys requests by the authenticated user in the context.
func ByUser(r *http.Request) (string, bool) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		return "", false
	}
	return u.ID, true
}

// Middleware returns an HTTP middleware that enforces rate limits using the
// provided Limiter. Rate-limit headers are always set on the response:
//
//	X-RateLimit-Limit     maximum requests allowed in the window
//	X-RateLimit-Remaining tokens remaining in the current window
//	X-RateLimit-Reset     Unix timestamp when the bucket is fully replenished
//
// When the limit is exceeded the middleware responds with HTTP 429 and a JSON
// error body, and calls each onReject hook with scope.
func Middleware(limiter *Limiter, scope string, key KeyFunc, onReject ...func(scope string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k, ok := key(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			d := limiter.Take(scope + ":" + k)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				for _, fn := range onReject {
					fn(scope)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter(limiter), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"message": "Too many requests, please try again later",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter is the whole number of seconds until one token is available.
func retryAfter(l *Limiter) int64 {
	secs := int64(math.Ceil(l.window.Seconds() / float64(l.rate)))
	if secs < 1 {
		secs = 1
	}
	return secs
}
