// Package server exposes the bridge's HTTP surface: serviceability
// estimates, tracking lookups, the carrier webhook, and admin operations.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/parceldesk/shipbridge/internal/hostorders"
	"github.com/parceldesk/shipbridge/internal/ratelimit"
	"github.com/parceldesk/shipbridge/internal/telemetry"
	"github.com/parceldesk/shipbridge/internal/tracking"
	"github.com/parceldesk/shipbridge/pkg/carrier/shiprocket"
)

// Config holds server configuration.
type Config struct {
	Port          int
	WebhookSecret string
	AdminToken    string
}

// Server is the HTTP server for the carrier bridge.
type Server struct {
	cfg      Config
	carrier  *shiprocket.Client
	trackSvc *tracking.Service
	orders   hostorders.Store
	limiter  *ratelimit.Limiter
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// New creates a new server instance.
func New(cfg Config, client *shiprocket.Client, trackSvc *tracking.Service, orders hostorders.Store, limiter *ratelimit.Limiter, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		carrier:  client,
		trackSvc: trackSvc,
		orders:   orders,
		limiter:  limiter,
		logger:   logger,
		metrics:  metrics,
	}
}

// Router assembles the route tree. Split out from Run so handler tests can
// exercise the full middleware chain without binding a port.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/shipping", func(r chi.Router) {
		throttle := s.limiter.Middleware(s.logger, s.metrics.RateLimitRejections.Inc)
		r.With(throttle).Get("/estimate", s.handleEstimate)
		r.Get("/track/{awb}", s.handleTrack)
		r.Post("/webhook", s.handleWebhook)
		r.With(s.requireAdmin).Post("/sync/{awb}", s.handleSync)
		r.With(s.requireAdmin).Post("/shipments", s.handleCreateShipment)
	})

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
