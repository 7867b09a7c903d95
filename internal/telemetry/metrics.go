package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WebhooksTotal       *prometheus.CounterVec
	RateLimitRejections prometheus.Counter
	TrackingSyncsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipbridge_http_requests_total",
				Help: "Total HTTP requests by route and status class",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		WebhooksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipbridge_webhooks_total",
				Help: "Inbound carrier webhooks by outcome",
			},
			[]string{"outcome"},
		),
		RateLimitRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "shipbridge_rate_limit_rejections_total",
				Help: "Requests rejected by the estimate endpoint throttle",
			},
		),
		TrackingSyncsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipbridge_tracking_syncs_total",
				Help: "On-demand tracking pulls by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequest records one handled HTTP request.
func (m *Metrics) RecordRequest(route, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration)
}

// RecordWebhook records one inbound webhook outcome.
func (m *Metrics) RecordWebhook(outcome string) {
	m.WebhooksTotal.WithLabelValues(outcome).Inc()
}

// RecordSync records one tracking pull outcome.
func (m *Metrics) RecordSync(outcome string) {
	m.TrackingSyncsTotal.WithLabelValues(outcome).Inc()
}
