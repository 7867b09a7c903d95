package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// requireAdmin gates privileged routes behind the static admin bearer token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			s.logger.Error("Admin token is not configured, rejecting privileged request")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "admin endpoint is not configured"})
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid admin token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// observe records request counts and latencies per route and status.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Method + " " + r.URL.Path
		s.metrics.RecordRequest(route, strconv.Itoa(rec.status), time.Since(start).Seconds())
	})
}
