package middleware

import (
	"net"
	"net/http"

	"widgetboard/pkg/common"
	"widgetboard/pkg/ratelimit"
)

// ClientIdentity stamps the persisted pseudo-anonymous identity onto
// every request context. The board serves a single client, so the
// identity is fixed at startup.
func ClientIdentity(clientID string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := common.WithClientID(r.Context(), clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit rejects requests once the caller's token bucket is drained.
// Requests are keyed by client identity when present, otherwise by the
// caller's address.
func RateLimit(limiter ratelimit.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := common.GetClientID(r.Context())
			if !ok {
				key = remoteHost(r)
			}

			if !limiter.Allow(key) {
				common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMIT", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
