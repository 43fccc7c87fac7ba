package handler

import (
	"go-auth-api/common"
	"go-auth-api/service"
	"net"
	"net/http"
)

// RateLimitMiddleware throttles the credential endpoints per client IP using
// the Redis-backed fixed-window limiter.
func RateLimitMiddleware(limiter *service.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), clientIP(r)) {
				appErr := common.NewAppError(http.StatusTooManyRequests, "Too many requests", nil)
				appErr.Send(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
