package ratelimit

import (
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Middleware returns chi-style middleware rejecting callers over the limit
// with 429. Caller identity is the forwarded client address when present,
// otherwise the socket peer. onReject, if non-nil, is invoked once per
// rejection so the caller can count them.
func (l *Limiter) Middleware(logger *otelzap.Logger, onReject func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ClientIP(r)
			if !l.Allow(identity) {
				if onReject != nil {
					onReject()
				}
				logger.Warn("rate limit exceeded",
					zap.String("identity", identity),
					zap.String("path", r.URL.Path))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				io.WriteString(w, `{"error":"too many requests"}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP derives the caller identity from X-Forwarded-For (first hop) or
// the remote socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
